package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/middleware"
	"github.com/outsourceats/hirex/internal/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// A fresh pool connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{}, &models.Client{}, &models.ClientContact{},
		&models.Pitch{}, &models.JobDescription{}, &models.Candidate{},
		&models.Application{}, &models.ApplicationStatusHistory{},
		&models.Interview{}, &models.Offer{}, &models.Joining{},
	))

	db.DB = gdb
}

// testRouter registers the handlers with a stub identity instead of
// the JWT middleware.
func testRouter(user middleware.AuthenticatedUser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserKey, user)
		ctx.Next()
	})

	r.POST("/applications", CreateApplication)
	r.GET("/applications", ListApplications)
	r.GET("/applications/:application_id", GetApplication)
	r.PATCH("/applications/:application_id/status", UpdateApplicationStatus)
	r.POST("/applications/:application_id/submit", SubmitApplication)
	r.POST("/applications/:application_id/reject", RejectApplication)
	r.GET("/applications/:application_id/history", GetApplicationHistory)

	r.POST("/interviews", ScheduleInterview)
	r.POST("/offers", CreateOffer)
	r.POST("/offers/:offer_id/send", SendOffer)
	r.PATCH("/offers/:offer_id/status", UpdateOfferStatus)
	r.POST("/offers/:offer_id/revise", ReviseOffer)
	r.POST("/joinings", CreateJoining)

	return r
}

func recruiterUser() middleware.AuthenticatedUser {
	return middleware.AuthenticatedUser{
		ID: 1, FullName: "Riley Recruiter",
		Email: "riley@example.com", Role: models.RoleRecruiter,
	}
}

func seedPipeline(t *testing.T) (models.Candidate, models.JobDescription) {
	t.Helper()

	client := models.Client{CompanyName: "Acme Corp", Status: models.ClientActive, CreatedBy: 1}
	require.NoError(t, db.DB.Create(&client).Error)

	jd := models.JobDescription{
		ClientID:      client.ID,
		JDCode:        "ACM_0001",
		Title:         "Backend Engineer",
		Description:   "Go services",
		Status:        models.JDOpen,
		OpenPositions: 2,
		CreatedBy:     1,
	}
	require.NoError(t, db.DB.Create(&jd).Error)

	candidate := models.Candidate{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", CreatedBy: 1,
	}
	require.NoError(t, db.DB.Create(&candidate).Error)

	return candidate, jd
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateApplicationStartsSLAAndHistory(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	w := doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID,
		"jd_id":        jd.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var app models.Application
	require.NoError(t, db.DB.Where("candidate_id = ? AND jd_id = ?", candidate.ID, jd.ID).First(&app).Error)
	assert.Equal(t, models.AppSourced, app.Status)
	require.NotNil(t, app.SLAStartDate)
	require.NotNil(t, app.SLAEndDate)
	assert.Equal(t, models.SLAOnTrack, app.SLAStatus)

	var history []models.ApplicationStatusHistory
	require.NoError(t, db.DB.Where("application_id = ?", app.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].FromStatus)
	assert.Equal(t, models.AppSourced, history[0].ToStatus)
}

func TestCreateApplicationRejectsDuplicates(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	body := gin.H{"candidate_id": candidate.ID, "jd_id": jd.ID}
	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", body).Code)

	w := doJSON(t, r, http.MethodPost, "/applications", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateApplicationRequiresOpenJD(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.NoError(t, db.DB.Model(&jd).Update("status", models.JDOnHold).Error)

	w := doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID,
		"jd_id":        jd.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitBeforeScreeningIsRejected(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/applications/%d/submit", app.ID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "screened before submission")
}

func TestRejectWithoutReasonFails(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/applications/%d/reject", app.ID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusEndpointWalksThePipeline(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)
	statusPath := fmt.Sprintf("/applications/%d/status", app.ID)

	for _, status := range []models.ApplicationStatus{
		models.AppScreened, models.AppSubmitted, models.AppInterviewing,
	} {
		w := doJSON(t, r, http.MethodPatch, statusPath, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, "transition to %s: %s", status, w.Body.String())
	}

	// Skipping straight to joined is not a legal edge.
	w := doJSON(t, r, http.MethodPatch, statusPath, gin.H{"status": models.AppJoined})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	historyPath := fmt.Sprintf("/applications/%d/history", app.ID)
	w = doJSON(t, r, http.MethodGet, historyPath, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		History []models.ApplicationStatusHistory `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.History, 4)
}

func TestOfferLifecycleThroughHandlers(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)
	statusPath := fmt.Sprintf("/applications/%d/status", app.ID)
	for _, status := range []models.ApplicationStatus{models.AppScreened, models.AppInterviewing} {
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, statusPath, gin.H{"status": status}).Code)
	}

	// Offers require an interviewing application.
	w := doJSON(t, r, http.MethodPost, "/offers", gin.H{
		"application_id": app.ID,
		"designation":    "Backend Engineer",
		"ctc_annual":     120000.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var offer models.Offer
	require.NoError(t, db.DB.First(&offer).Error)
	assert.Equal(t, models.OfferDraft, offer.Status)
	assert.NotEmpty(t, offer.OfferNumber)

	require.NoError(t, db.DB.First(&app, app.ID).Error)
	assert.Equal(t, models.AppOffered, app.Status)

	// A second active offer on the same application is blocked.
	w = doJSON(t, r, http.MethodPost, "/offers", gin.H{
		"application_id": app.ID,
		"designation":    "Backend Engineer",
		"ctc_annual":     125000.0,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	sendPath := fmt.Sprintf("/offers/%d/send", offer.ID)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, sendPath, gin.H{}).Code)

	require.NoError(t, db.DB.First(&offer, offer.ID).Error)
	assert.Equal(t, models.OfferSent, offer.Status)
	assert.NotNil(t, offer.SentDate)
}

func TestOfferRevisionSupersedesParent(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)
	statusPath := fmt.Sprintf("/applications/%d/status", app.ID)
	for _, status := range []models.ApplicationStatus{models.AppScreened, models.AppInterviewing} {
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, statusPath, gin.H{"status": status}).Code)
	}

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/offers", gin.H{
		"application_id": app.ID,
		"designation":    "Backend Engineer",
		"ctc_annual":     120000.0,
	}).Code)

	var parent models.Offer
	require.NoError(t, db.DB.First(&parent).Error)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, fmt.Sprintf("/offers/%d/send", parent.ID), gin.H{}).Code)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/offers/%d/revise", parent.ID), gin.H{
		"ctc_annual": 135000.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, db.DB.First(&parent, parent.ID).Error)
	assert.Equal(t, models.OfferCancelled, parent.Status)

	var revision models.Offer
	require.NoError(t, db.DB.Where("parent_offer_id = ?", parent.ID).First(&revision).Error)
	assert.Equal(t, 2, revision.RevisionNumber)
	assert.Equal(t, 135000.0, revision.CTCAnnual)
	assert.Equal(t, models.OfferDraft, revision.Status)
	assert.NotEqual(t, parent.OfferNumber, revision.OfferNumber)
}

func TestJoiningRequiresAcceptedOfferAndFillsPosition(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)
	statusPath := fmt.Sprintf("/applications/%d/status", app.ID)
	for _, status := range []models.ApplicationStatus{models.AppScreened, models.AppInterviewing} {
		require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, statusPath, gin.H{"status": status}).Code)
	}

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/offers", gin.H{
		"application_id": app.ID,
		"designation":    "Backend Engineer",
		"ctc_annual":     120000.0,
	}).Code)

	var offer models.Offer
	require.NoError(t, db.DB.First(&offer).Error)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPost, fmt.Sprintf("/offers/%d/send", offer.ID), gin.H{}).Code)

	// No accepted offer yet: joining is refused.
	w := doJSON(t, r, http.MethodPost, "/joinings", gin.H{"application_id": app.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch,
		fmt.Sprintf("/offers/%d/status", offer.ID), gin.H{"status": models.OfferAccepted}).Code)

	w = doJSON(t, r, http.MethodPost, "/joinings", gin.H{"application_id": app.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, db.DB.First(&app, app.ID).Error)
	assert.Equal(t, models.AppJoined, app.Status)

	require.NoError(t, db.DB.First(&jd, jd.ID).Error)
	assert.Equal(t, 1, jd.FilledPositions)

	// One joining per application.
	w = doJSON(t, r, http.MethodPost, "/joinings", gin.H{"application_id": app.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInterviewSchedulingPromotesApplication(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)
	statusPath := fmt.Sprintf("/applications/%d/status", app.ID)
	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, statusPath, gin.H{"status": models.AppScreened}).Code)

	w := doJSON(t, r, http.MethodPost, "/interviews", gin.H{
		"application_id": app.ID,
		"round_name":     "Technical Round 1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, db.DB.First(&app, app.ID).Error)
	assert.Equal(t, models.AppInterviewing, app.Status)

	var interview models.Interview
	require.NoError(t, db.DB.First(&interview).Error)
	assert.Equal(t, 1, interview.RoundNumber)
	assert.Equal(t, models.InterviewScheduled, interview.Status)
}

func TestScheduleInterviewRollsBackWithFailedPromotion(t *testing.T) {
	setupTestDB(t)
	r := testRouter(recruiterUser())
	candidate, jd := seedPipeline(t)

	require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/applications", gin.H{
		"candidate_id": candidate.ID, "jd_id": jd.ID,
	}).Code)

	var app models.Application
	require.NoError(t, db.DB.First(&app).Error)

	// A sourced application cannot move to interviewing; the interview
	// row created in the same transaction must not survive the failure.
	w := doJSON(t, r, http.MethodPost, "/interviews", gin.H{
		"application_id": app.ID,
		"round_name":     "Technical Round 1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var interviews int64
	require.NoError(t, db.DB.Model(&models.Interview{}).Count(&interviews).Error)
	assert.Zero(t, interviews)

	require.NoError(t, db.DB.First(&app, app.ID).Error)
	assert.Equal(t, models.AppSourced, app.Status)

	var history int64
	require.NoError(t, db.DB.Model(&models.ApplicationStatusHistory{}).
		Where("application_id = ?", app.ID).Count(&history).Error)
	assert.EqualValues(t, 1, history)
}

func TestOfferNumbersAreNeverReused(t *testing.T) {
	setupTestDB(t)

	year := time.Now().UTC().Year()
	offers := []models.Offer{
		{ApplicationID: 1, OfferNumber: fmt.Sprintf("OFR-%d-0001", year),
			Designation: "Backend Engineer", CTCAnnual: 100000, Currency: "USD",
			Status: models.OfferDraft, RevisionNumber: 1, CreatedBy: 1},
		{ApplicationID: 2, OfferNumber: fmt.Sprintf("OFR-%d-0002", year),
			Designation: "Backend Engineer", CTCAnnual: 110000, Currency: "USD",
			Status: models.OfferSent, RevisionNumber: 1, CreatedBy: 1},
	}
	for i := range offers {
		require.NoError(t, db.DB.Create(&offers[i]).Error)
	}

	// Deleting the earlier draft shrinks the row count but 0002 stays
	// taken; allocation must continue past the highest issued suffix.
	require.NoError(t, db.DB.Delete(&offers[0]).Error)

	number, err := nextOfferNumber(db.DB)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("OFR-%d-0003", year), number)
}
