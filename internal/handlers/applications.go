package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/pipeline"
	"github.com/outsourceats/hirex/internal/utils"
)

type CreateApplicationRequest struct {
	CandidateID uint   `json:"candidate_id" binding:"required"`
	JDID        uint   `json:"jd_id" binding:"required"`
	Notes       string `json:"notes"`
}

type UpdateApplicationRequest struct {
	Substatus      *string `json:"substatus"`
	ScreeningNotes *string `json:"screening_notes"`
	InternalRating *int    `json:"internal_rating"`
	Notes          *string `json:"notes"`
}

type TransitionRequest struct {
	Status           models.ApplicationStatus `json:"status" binding:"required"`
	Notes            string                   `json:"notes"`
	RejectionReason  string                   `json:"rejection_reason"`
	RejectionStage   string                   `json:"rejection_stage"`
	WithdrawalReason string                   `json:"withdrawal_reason"`
	SubmissionNotes  string                   `json:"submission_notes"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" binding:"required"`
	Stage  string `json:"stage"`
	Notes  string `json:"notes"`
}

type WithdrawApplicationRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

type SubmitApplicationRequest struct {
	SubmissionNotes string `json:"submission_notes"`
}

type ApplicationResponse struct {
	ID          uint `json:"id"`
	CandidateID uint `json:"candidate_id"`
	JDID        uint `json:"jd_id"`

	Status    models.ApplicationStatus `json:"status"`
	Substatus string                   `json:"substatus,omitempty"`
	Version   int64                    `json:"version"`

	ScreeningNotes string     `json:"screening_notes,omitempty"`
	InternalRating *int       `json:"internal_rating,omitempty"`
	ScreenedBy     *uint      `json:"screened_by,omitempty"`
	ScreenedAt     *time.Time `json:"screened_at,omitempty"`

	SubmittedToClientDate *time.Time `json:"submitted_to_client_date,omitempty"`
	ClientSubmissionNotes string     `json:"client_submission_notes,omitempty"`

	SLAStartDate *time.Time       `json:"sla_start_date,omitempty"`
	SLAEndDate   *time.Time       `json:"sla_end_date,omitempty"`
	SLAStatus    models.SLAStatus `json:"sla_status,omitempty"`

	RejectionReason  string     `json:"rejection_reason,omitempty"`
	RejectionStage   string     `json:"rejection_stage,omitempty"`
	RejectedBy       string     `json:"rejected_by,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	WithdrawalReason string     `json:"withdrawal_reason,omitempty"`
	WithdrawnAt      *time.Time `json:"withdrawn_at,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// applicationResponse renders app with the SLA status recomputed as of
// now; the stored snapshot may be stale between sweeps.
func applicationResponse(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                    app.ID,
		CandidateID:           app.CandidateID,
		JDID:                  app.JDID,
		Status:                app.Status,
		Substatus:             app.Substatus,
		Version:               app.Version,
		ScreeningNotes:        app.ScreeningNotes,
		InternalRating:        app.InternalRating,
		ScreenedBy:            app.ScreenedBy,
		ScreenedAt:            app.ScreenedAt,
		SubmittedToClientDate: app.SubmittedToClientDate,
		ClientSubmissionNotes: app.ClientSubmissionNotes,
		SLAStartDate:          app.SLAStartDate,
		SLAEndDate:            app.SLAEndDate,
		SLAStatus:             pipeline.EvaluateStatus(app, time.Now().UTC()),
		RejectionReason:       app.RejectionReason,
		RejectionStage:        app.RejectionStage,
		RejectedBy:            app.RejectedBy,
		RejectedAt:            app.RejectedAt,
		WithdrawalReason:      app.WithdrawalReason,
		WithdrawnAt:           app.WithdrawnAt,
		Notes:                 app.Notes,
		CreatedBy:             app.CreatedBy,
		CreatedAt:             app.CreatedAt,
		UpdatedAt:             app.UpdatedAt,
	}
}

func findApplication(ctx *gin.Context) (*models.Application, bool) {
	id, err := utils.IDParam(ctx, "application_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var app models.Application
	if err := db.DB.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		} else {
			log.Printf("Failed to fetch application: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &app, true
}

// transitionError maps pipeline errors onto HTTP statuses: conflicts
// are 409, rule violations 400, anything else 500.
func transitionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Application was modified by another request, please retry"})
	case pipeline.IsValidation(err):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Failed to transition application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func runTransition(ctx *gin.Context, app *models.Application, req pipeline.Request) bool {
	actor, err := utils.Actor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return false
	}

	from := app.Status
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		return pipeline.Transition(tx, app, actor, req)
	})
	if err != nil {
		transitionError(ctx, err)
		return false
	}

	go BroadcastActivity(ActivityEvent{
		Type:          "status_changed",
		ApplicationID: app.ID,
		FromStatus:    string(from),
		ToStatus:      string(app.Status),
		Message:       "Application " + string(from) + " -> " + string(app.Status),
	})
	return true
}

// CreateApplication sources a candidate against an open JD and starts
// the SLA clock.
func CreateApplication(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateApplicationRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var candidate models.Candidate
	if err := db.DB.First(&candidate, body.CandidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Candidate not found"})
		} else {
			log.Printf("Failed to fetch candidate: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var jd models.JobDescription
	if err := db.DB.First(&jd, body.JDID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Job description not found"})
		} else {
			log.Printf("Failed to fetch job description: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if !jd.Open() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Job description is not open for applications"})
		return
	}

	// One live application per (candidate, JD); soft-deleted rows do not
	// block re-sourcing.
	var existing models.Application
	err = db.DB.Where("candidate_id = ? AND jd_id = ?", candidate.ID, jd.ID).First(&existing).Error
	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":          "Candidate already has an application for this job description",
			"application_id": existing.ID,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	now := time.Now().UTC()
	window := pipeline.WindowForJD(&jd, now, now)

	app := models.Application{
		CandidateID:  candidate.ID,
		JDID:         jd.ID,
		Status:       models.AppSourced,
		SLAStartDate: &window.Start,
		SLAEndDate:   &window.End,
		SLAStatus:    window.Status,
		Notes:        body.Notes,
		CreatedBy:    currentUser.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&app).Error; err != nil {
			return err
		}
		return pipeline.RecordCreation(tx, &app, pipeline.Actor{
			ID: currentUser.ID, Name: currentUser.FullName,
		}, "Application created")
	})
	if err != nil {
		log.Printf("Failed to create application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	go BroadcastActivity(ActivityEvent{
		Type:          "application_created",
		ApplicationID: app.ID,
		CandidateName: candidate.FullName(),
		JDCode:        jd.JDCode,
		ToStatus:      string(app.Status),
		Message:       candidate.FullName() + " sourced for " + jd.JDCode,
	})

	ctx.JSON(http.StatusCreated, gin.H{"application": applicationResponse(&app)})
}

func ListApplications(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Application{})
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if jdID := ctx.Query("jd_id"); jdID != "" {
		query = query.Where("jd_id = ?", jdID)
	}
	if candidateID := ctx.Query("candidate_id"); candidateID != "" {
		query = query.Where("candidate_id = ?", candidateID)
	}
	if slaStatus := ctx.Query("sla_status"); slaStatus != "" {
		query = query.Where("sla_status = ?", slaStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var apps []models.Application
	if err := query.Order("id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&apps).Error; err != nil {
		log.Printf("Failed to list applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	items := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		items = append(items, applicationResponse(&apps[i]))
	}

	ctx.JSON(http.StatusOK, listEnvelope(items, total, p))
}

func GetApplication(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var candidate models.Candidate
	if err := db.DB.First(&candidate, app.CandidateID).Error; err != nil {
		log.Printf("Failed to fetch candidate: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var jd models.JobDescription
	if err := db.DB.First(&jd, app.JDID).Error; err != nil {
		log.Printf("Failed to fetch job description: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var interviewCount, offerCount int64
	if err := db.DB.Model(&models.Interview{}).
		Where("application_id = ?", app.ID).Count(&interviewCount).Error; err != nil {
		log.Printf("Failed to count interviews: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.DB.Model(&models.Offer{}).
		Where("application_id = ?", app.ID).Count(&offerCount).Error; err != nil {
		log.Printf("Failed to count offers: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"application":     applicationResponse(app),
		"candidate":       candidate,
		"job_description": jd,
		"interview_count": interviewCount,
		"offer_count":     offerCount,
	})
}

func UpdateApplication(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var body UpdateApplicationRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.Substatus != nil {
		updates["substatus"] = *body.Substatus
	}
	if body.ScreeningNotes != nil {
		updates["screening_notes"] = *body.ScreeningNotes
	}
	if body.InternalRating != nil {
		if *body.InternalRating < 1 || *body.InternalRating > 5 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
			return
		}
		updates["internal_rating"] = *body.InternalRating
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(app).Updates(updates).Error; err != nil {
		log.Printf("Failed to update application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"application": applicationResponse(app)})
}

// UpdateApplicationStatus drives the pipeline state machine. All status
// changes, whatever the target, come through here or through one of the
// dedicated shortcuts below.
func UpdateApplicationStatus(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var body TransitionRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !runTransition(ctx, app, pipeline.Request{
		To:               body.Status,
		Notes:            body.Notes,
		RejectionReason:  body.RejectionReason,
		RejectionStage:   body.RejectionStage,
		WithdrawalReason: body.WithdrawalReason,
		SubmissionNotes:  body.SubmissionNotes,
	}) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"application": applicationResponse(app)})
}

func SubmitApplication(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var body SubmitApplicationRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !runTransition(ctx, app, pipeline.Request{
		To:              models.AppSubmitted,
		SubmissionNotes: body.SubmissionNotes,
	}) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"application": applicationResponse(app)})
}

func RejectApplication(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var body RejectApplicationRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
		return
	}

	if !runTransition(ctx, app, pipeline.Request{
		To:              models.AppRejected,
		Notes:           body.Notes,
		RejectionReason: body.Reason,
		RejectionStage:  body.Stage,
	}) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"application": applicationResponse(app)})
}

func WithdrawApplication(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var body WithdrawApplicationRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !runTransition(ctx, app, pipeline.Request{
		To:               models.AppWithdrawn,
		Notes:            body.Notes,
		WithdrawalReason: body.Reason,
	}) {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"application": applicationResponse(app)})
}

// GetApplicationHistory returns the full audit trail, oldest first.
func GetApplicationHistory(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	var history []models.ApplicationStatusHistory
	if err := db.DB.Where("application_id = ?", app.ID).
		Order("id").Find(&history).Error; err != nil {
		log.Printf("Failed to fetch application history: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"history": history})
}

func DeleteApplication(ctx *gin.Context) {
	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	if err := db.DB.Delete(app).Error; err != nil {
		log.Printf("Failed to delete application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
