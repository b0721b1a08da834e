package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/outsourceats/hirex/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A fresh pool connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.JobDescription{},
		&models.Candidate{},
		&models.Application{},
		&models.ApplicationStatusHistory{},
	))
	return db
}

func seedApplication(t *testing.T, db *gorm.DB, status models.ApplicationStatus) *models.Application {
	t.Helper()

	client := models.Client{CompanyName: "Acme Corp", Status: models.ClientActive, CreatedBy: 1}
	require.NoError(t, db.Create(&client).Error)

	jd := models.JobDescription{
		ClientID:    client.ID,
		JDCode:      "ACM_0001",
		Title:       "Backend Engineer",
		Description: "Go services",
		Status:      models.JDOpen,
		CreatedBy:   1,
	}
	require.NoError(t, db.Create(&jd).Error)

	candidate := models.Candidate{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", CreatedBy: 1,
	}
	require.NoError(t, db.Create(&candidate).Error)

	app := models.Application{
		CandidateID: candidate.ID,
		JDID:        jd.ID,
		Status:      status,
		CreatedBy:   1,
	}
	require.NoError(t, db.Create(&app).Error)
	require.NoError(t, RecordCreation(db, &app, Actor{ID: 1, Name: "Seeder"}, "Application created"))
	return &app
}

func historyFor(t *testing.T, db *gorm.DB, appID uint) []models.ApplicationStatusHistory {
	t.Helper()
	var rows []models.ApplicationStatusHistory
	require.NoError(t, db.Where("application_id = ?", appID).Order("id").Find(&rows).Error)
	return rows
}

func TestCreationRecordsInitialHistory(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)

	rows := historyFor(t, db, app.ID)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].FromStatus)
	assert.Equal(t, models.AppSourced, rows[0].ToStatus)
}

func TestTransitionAppendsUnbrokenHistoryChain(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)
	actor := Actor{ID: 2, Name: "Riley Recruiter"}

	steps := []models.ApplicationStatus{
		models.AppScreened, models.AppSubmitted, models.AppInterviewing,
		models.AppOffered, models.AppJoined,
	}
	for _, to := range steps {
		require.NoError(t, Transition(db, app, actor, Request{To: to}))
	}

	rows := historyFor(t, db, app.ID)
	require.Len(t, rows, len(steps)+1)
	for i := 1; i < len(rows); i++ {
		assert.Equal(t, rows[i-1].ToStatus, rows[i].FromStatus,
			"history must form an unbroken chain at row %d", i)
	}
	assert.Equal(t, models.AppJoined, rows[len(rows)-1].ToStatus)
}

func TestScreenedSideEffectsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)

	first := Actor{ID: 10, Name: "First Screener"}
	require.NoError(t, Transition(db, app, first, Request{To: models.AppScreened}))

	require.NotNil(t, app.ScreenedBy)
	require.NotNil(t, app.ScreenedAt)
	originalScreener := *app.ScreenedBy
	originalTime := *app.ScreenedAt

	// Re-confirming SCREENED by a different actor later must not steal
	// attribution, but still appends a history row.
	second := Actor{ID: 11, Name: "Second Screener"}
	require.NoError(t, Transition(db, app, second, Request{To: models.AppScreened}))

	var stored models.Application
	require.NoError(t, db.First(&stored, app.ID).Error)
	assert.Equal(t, originalScreener, *stored.ScreenedBy)
	assert.WithinDuration(t, originalTime, *stored.ScreenedAt, time.Second)

	rows := historyFor(t, db, app.ID)
	require.Len(t, rows, 3)
	assert.Equal(t, models.AppScreened, rows[2].FromStatus)
	assert.Equal(t, models.AppScreened, rows[2].ToStatus)
	assert.Equal(t, uint(11), rows[2].ChangedBy)
}

func TestSubmissionRequiresScreening(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)

	err := Transition(db, app, Actor{ID: 1}, Request{To: models.AppSubmitted})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "must be screened before submission")
}

func TestSubmissionIsOneShot(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppScreened)
	actor := Actor{ID: 3, Name: "AM"}

	require.NoError(t, Transition(db, app, actor, Request{
		To:              models.AppSubmitted,
		SubmissionNotes: "Strong profile",
	}))
	require.NotNil(t, app.SubmittedToClientDate)
	assert.Equal(t, "Strong profile", app.ClientSubmissionNotes)

	err := Transition(db, app, actor, Request{To: models.AppSubmitted})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "already submitted")
}

func TestRejectionCapturesMetadata(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)
	actor := Actor{ID: 4, Name: "Riley Recruiter"}

	require.NoError(t, Transition(db, app, actor, Request{To: models.AppScreened}))
	require.NoError(t, Transition(db, app, actor, Request{To: models.AppInterviewing}))

	// No explicit stage: defaults to the status the application was in.
	require.NoError(t, Transition(db, app, actor, Request{
		To:              models.AppRejected,
		RejectionReason: "failed technical",
	}))

	var stored models.Application
	require.NoError(t, db.First(&stored, app.ID).Error)
	assert.Equal(t, "failed technical", stored.RejectionReason)
	assert.Equal(t, string(models.AppInterviewing), stored.RejectionStage)
	assert.Equal(t, "Riley Recruiter", stored.RejectedBy)
	assert.NotNil(t, stored.RejectedAt)
}

func TestRejectionRequiresReason(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppScreened)

	err := Transition(db, app, Actor{ID: 1}, Request{To: models.AppRejected})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestTerminalStatusesRejectFurtherTransitions(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppScreened)
	actor := Actor{ID: 1}

	require.NoError(t, Transition(db, app, actor, Request{
		To: models.AppWithdrawn, WithdrawalReason: "took another offer",
	}))

	err := Transition(db, app, actor, Request{To: models.AppScreened})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestStaleVersionFailsWithConflict(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)
	actor := Actor{ID: 1}

	// Simulate a concurrent request that read the same row.
	stale := *app
	require.NoError(t, Transition(db, app, actor, Request{To: models.AppScreened}))

	err := Transition(db, &stale, actor, Request{To: models.AppScreened})
	assert.ErrorIs(t, err, ErrConflict)

	// The winning transition produced exactly one history row.
	rows := historyFor(t, db, app.ID)
	assert.Len(t, rows, 2)
}

func TestDeletedApplicationCannotBeMutated(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)
	require.NoError(t, db.Delete(&models.Application{}, app.ID).Error)

	var deleted models.Application
	require.NoError(t, db.Unscoped().First(&deleted, app.ID).Error)

	err := Transition(db, &deleted, Actor{ID: 1}, Request{To: models.AppScreened})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFailedTransitionLeavesNoTrace(t *testing.T) {
	db := openTestDB(t)
	app := seedApplication(t, db, models.AppSourced)

	err := Transition(db, app, Actor{ID: 1}, Request{To: models.AppOffered})
	require.Error(t, err)

	var stored models.Application
	require.NoError(t, db.First(&stored, app.ID).Error)
	assert.Equal(t, models.AppSourced, stored.Status)
	assert.Len(t, historyFor(t, db, app.ID), 1)
}
