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
	"github.com/outsourceats/hirex/internal/services"
	"github.com/outsourceats/hirex/internal/utils"
)

type ScheduleInterviewRequest struct {
	ApplicationID uint `json:"application_id" binding:"required"`

	RoundName       string     `json:"round_name" binding:"required"`
	RoundNumber     int        `json:"round_number"`
	ScheduledDate   *time.Time `json:"scheduled_date"`
	DurationMinutes int        `json:"duration_minutes"`

	InterviewerName        string `json:"interviewer_name"`
	InterviewerEmail       string `json:"interviewer_email"`
	InterviewerDesignation string `json:"interviewer_designation"`
	IsClientInterview      bool   `json:"is_client_interview"`

	Mode        models.InterviewMode `json:"mode"`
	MeetingLink string               `json:"meeting_link"`
	Location    string               `json:"location"`

	AdditionalNotes string `json:"additional_notes"`
}

type RescheduleInterviewRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" binding:"required"`
	MeetingLink   string    `json:"meeting_link"`
	Notes         string    `json:"notes"`
}

type InterviewFeedbackRequest struct {
	Feedback   string                 `json:"feedback" binding:"required"`
	Rating     *int                   `json:"rating"`
	Strengths  string                 `json:"strengths"`
	Weaknesses string                 `json:"weaknesses"`
	Result     models.InterviewResult `json:"result" binding:"required"`
}

func findInterview(ctx *gin.Context) (*models.Interview, bool) {
	id, err := utils.IDParam(ctx, "interview_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var interview models.Interview
	if err := db.DB.First(&interview, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
		} else {
			log.Printf("Failed to fetch interview: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &interview, true
}

// ScheduleInterview creates an interview round. Scheduling the first
// round moves the application into the interviewing stage.
func ScheduleInterview(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body ScheduleInterviewRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var app models.Application
	if err := db.DB.First(&app, body.ApplicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		} else {
			log.Printf("Failed to fetch application: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	mode := body.Mode
	if mode == "" {
		mode = models.ModeVideo
	}
	duration := body.DurationMinutes
	if duration <= 0 {
		duration = 60
	}

	var interview models.Interview
	from := app.Status

	// The interview row and the promotion to interviewing commit or
	// roll back together.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		roundNumber := body.RoundNumber
		if roundNumber < 1 {
			var count int64
			if err := tx.Model(&models.Interview{}).
				Where("application_id = ?", app.ID).Count(&count).Error; err != nil {
				return err
			}
			roundNumber = int(count) + 1
		}

		interview = models.Interview{
			ApplicationID:          app.ID,
			RoundNumber:            roundNumber,
			RoundName:              body.RoundName,
			ScheduledDate:          body.ScheduledDate,
			DurationMinutes:        duration,
			InterviewerName:        body.InterviewerName,
			InterviewerEmail:       body.InterviewerEmail,
			InterviewerDesignation: body.InterviewerDesignation,
			IsClientInterview:      body.IsClientInterview,
			Mode:                   mode,
			MeetingLink:            body.MeetingLink,
			Location:               body.Location,
			Status:                 models.InterviewScheduled,
			Result:                 models.ResultPending,
			AdditionalNotes:        body.AdditionalNotes,
			CreatedBy:              currentUser.ID,
		}
		if err := tx.Create(&interview).Error; err != nil {
			return err
		}

		if app.Status != models.AppInterviewing {
			return pipeline.Transition(tx, &app, pipeline.Actor{
				ID: currentUser.ID, Name: currentUser.FullName,
			}, pipeline.Request{
				To:    models.AppInterviewing,
				Notes: "Interview scheduled: " + body.RoundName,
			})
		}
		return nil
	})
	if err != nil {
		transitionError(ctx, err)
		return
	}

	if app.Status != from {
		go BroadcastActivity(ActivityEvent{
			Type:          "status_changed",
			ApplicationID: app.ID,
			FromStatus:    string(from),
			ToStatus:      string(app.Status),
			Message:       "Application " + string(from) + " -> " + string(app.Status),
		})
	}

	var candidate models.Candidate
	var jd models.JobDescription
	if err := db.DB.First(&candidate, app.CandidateID).Error; err == nil {
		if err := db.DB.First(&jd, app.JDID).Error; err == nil {
			go services.NotifyInterviewScheduled(candidate.FullName(), jd.Title, interview.RoundName, interview.ScheduledDate)
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{"interview": interview})
}

func ListInterviews(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Interview{})
	if applicationID := ctx.Query("application_id"); applicationID != "" {
		query = query.Where("application_id = ?", applicationID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if result := ctx.Query("result"); result != "" {
		query = query.Where("result = ?", result)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count interviews: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var interviews []models.Interview
	if err := query.Order("scheduled_date desc, id desc").
		Offset(p.Offset()).Limit(p.PageSize).Find(&interviews).Error; err != nil {
		log.Printf("Failed to list interviews: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(interviews, total, p))
}

func GetInterview(ctx *gin.Context) {
	interview, ok := findInterview(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"interview": interview})
}

func RescheduleInterview(ctx *gin.Context) {
	interview, ok := findInterview(ctx)
	if !ok {
		return
	}

	if interview.Completed() || interview.Status == models.InterviewCancelled {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only pending interviews can be rescheduled"})
		return
	}

	var body RescheduleInterviewRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := map[string]interface{}{
		"scheduled_date": body.ScheduledDate,
		"status":         models.InterviewRescheduled,
	}
	if body.MeetingLink != "" {
		updates["meeting_link"] = body.MeetingLink
	}
	if body.Notes != "" {
		updates["additional_notes"] = body.Notes
	}

	if err := db.DB.Model(interview).Updates(updates).Error; err != nil {
		log.Printf("Failed to reschedule interview: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"interview": interview})
}

func CompleteInterview(ctx *gin.Context) {
	interview, ok := findInterview(ctx)
	if !ok {
		return
	}

	if interview.Completed() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Interview is already completed"})
		return
	}
	if interview.Status == models.InterviewCancelled {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cancelled interviews cannot be completed"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       models.InterviewCompleted,
		"completed_at": now,
	}

	if err := db.DB.Model(interview).Updates(updates).Error; err != nil {
		log.Printf("Failed to complete interview: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"interview": interview})
}

// SubmitInterviewFeedback records the interviewer's verdict. Only
// completed interviews accept feedback.
func SubmitInterviewFeedback(ctx *gin.Context) {
	interview, ok := findInterview(ctx)
	if !ok {
		return
	}

	if !interview.Completed() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Feedback can only be submitted for completed interviews"})
		return
	}

	var body InterviewFeedbackRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.Rating != nil && (*body.Rating < 1 || *body.Rating > 5) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}

	updates := map[string]interface{}{
		"feedback":   body.Feedback,
		"strengths":  body.Strengths,
		"weaknesses": body.Weaknesses,
		"result":     body.Result,
	}
	if body.Rating != nil {
		updates["rating"] = *body.Rating
	}

	if err := db.DB.Model(interview).Updates(updates).Error; err != nil {
		log.Printf("Failed to submit interview feedback: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"interview": interview})
}

func CancelInterview(ctx *gin.Context) {
	interview, ok := findInterview(ctx)
	if !ok {
		return
	}

	if interview.Completed() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Completed interviews cannot be cancelled"})
		return
	}

	if err := db.DB.Model(interview).Update("status", models.InterviewCancelled).Error; err != nil {
		log.Printf("Failed to cancel interview: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"interview": interview})
}

func DeleteInterview(ctx *gin.Context) {
	interview, ok := findInterview(ctx)
	if !ok {
		return
	}

	// Completed interviews are part of the audit record.
	if interview.Completed() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Completed interviews cannot be deleted"})
		return
	}

	if err := db.DB.Delete(interview).Error; err != nil {
		log.Printf("Failed to delete interview: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
