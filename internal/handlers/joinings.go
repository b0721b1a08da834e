package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/pipeline"
	"github.com/outsourceats/hirex/internal/services"
	"github.com/outsourceats/hirex/internal/utils"
)

type CreateJoiningRequest struct {
	ApplicationID uint `json:"application_id" binding:"required"`

	ActualJoiningDate   *time.Time `json:"actual_joining_date"`
	ExpectedJoiningDate *time.Time `json:"expected_joining_date"`

	EmployeeID       string `json:"employee_id"`
	WorkEmail        string `json:"work_email"`
	ReportingManager string `json:"reporting_manager"`

	ReplacementWindowDays *int   `json:"replacement_window_days"`
	Notes                 string `json:"notes"`
}

type UpdateJoiningRequest struct {
	ExpectedJoiningDate *time.Time     `json:"expected_joining_date"`
	EmployeeID          *string        `json:"employee_id"`
	WorkEmail           *string        `json:"work_email"`
	ReportingManager    *string        `json:"reporting_manager"`
	BGVStatus           *string        `json:"bgv_status"`
	DocumentsCollected  datatypes.JSON `json:"documents_collected"`
	OnboardingStatus    datatypes.JSON `json:"onboarding_status"`
	Notes               *string        `json:"notes"`
}

type UpdateJoiningStatusRequest struct {
	Status       models.JoiningStatus `json:"status" binding:"required"`
	NoShowReason string               `json:"no_show_reason"`
}

type InitiateReplacementRequest struct {
	CandidateID uint   `json:"candidate_id" binding:"required"`
	Notes       string `json:"notes"`
}

func findJoining(ctx *gin.Context) (*models.Joining, bool) {
	id, err := utils.IDParam(ctx, "joining_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var joining models.Joining
	if err := db.DB.First(&joining, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Joining not found"})
		} else {
			log.Printf("Failed to fetch joining: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &joining, true
}

// CreateJoining closes the pipeline: it requires an accepted offer,
// moves the application to joined and fills a position on the JD.
func CreateJoining(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateJoiningRequest
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

	if app.Status != models.AppOffered {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Application must have an offer before joining"})
		return
	}

	var offer models.Offer
	err = db.DB.Where("application_id = ? AND status = ?", app.ID, models.OfferAccepted).
		Order("revision_number desc").First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Application has no accepted offer"})
		} else {
			log.Printf("Failed to fetch accepted offer: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var existing models.Joining
	err = db.DB.Where("application_id = ?", app.ID).First(&existing).Error
	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":      "Application already has a joining record",
			"joining_id": existing.ID,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing joining: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	joining := models.Joining{
		ApplicationID:         app.ID,
		OfferID:               offer.ID,
		ActualJoiningDate:     body.ActualJoiningDate,
		ExpectedJoiningDate:   body.ExpectedJoiningDate,
		EmployeeID:            body.EmployeeID,
		WorkEmail:             body.WorkEmail,
		ReportingManager:      body.ReportingManager,
		Status:                models.JoiningConfirmed,
		ReplacementWindowDays: body.ReplacementWindowDays,
		Notes:                 body.Notes,
		CreatedBy:             currentUser.ID,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&joining).Error; err != nil {
			return err
		}

		if err := pipeline.Transition(tx, &app, pipeline.Actor{
			ID: currentUser.ID, Name: currentUser.FullName,
		}, pipeline.Request{
			To:    models.AppJoined,
			Notes: "Candidate joined against offer " + offer.OfferNumber,
		}); err != nil {
			return err
		}

		return tx.Model(&models.JobDescription{}).
			Where("id = ?", app.JDID).
			UpdateColumn("filled_positions", gorm.Expr("filled_positions + 1")).Error
	})
	if err != nil {
		transitionError(ctx, err)
		return
	}

	var candidate models.Candidate
	var jd models.JobDescription
	if db.DB.First(&candidate, app.CandidateID).Error == nil &&
		db.DB.First(&jd, app.JDID).Error == nil {
		go services.NotifyCandidateJoined(candidate.FullName(), jd.Title)
	}

	ctx.JSON(http.StatusCreated, gin.H{"joining": joining})
}

func ListJoinings(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Joining{})
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count joinings: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var joinings []models.Joining
	if err := query.Order("id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&joinings).Error; err != nil {
		log.Printf("Failed to list joinings: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(joinings, total, p))
}

func GetJoining(ctx *gin.Context) {
	joining, ok := findJoining(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"joining": joining})
}

func UpdateJoining(ctx *gin.Context) {
	joining, ok := findJoining(ctx)
	if !ok {
		return
	}

	var body UpdateJoiningRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.ExpectedJoiningDate != nil {
		updates["expected_joining_date"] = *body.ExpectedJoiningDate
	}
	if body.EmployeeID != nil {
		updates["employee_id"] = *body.EmployeeID
	}
	if body.WorkEmail != nil {
		updates["work_email"] = *body.WorkEmail
	}
	if body.ReportingManager != nil {
		updates["reporting_manager"] = *body.ReportingManager
	}
	if body.BGVStatus != nil {
		updates["bgv_status"] = *body.BGVStatus
	}
	if body.DocumentsCollected != nil {
		updates["documents_collected"] = body.DocumentsCollected
	}
	if body.OnboardingStatus != nil {
		updates["onboarding_status"] = body.OnboardingStatus
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(joining).Updates(updates).Error; err != nil {
		log.Printf("Failed to update joining: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"joining": joining})
}

// UpdateJoiningStatus tracks post-join outcomes. A no-show frees the
// position on the JD again.
func UpdateJoiningStatus(ctx *gin.Context) {
	joining, ok := findJoining(ctx)
	if !ok {
		return
	}

	var body UpdateJoiningStatusRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := map[string]interface{}{"status": body.Status}
	freePosition := false

	switch body.Status {
	case models.JoiningConfirmed:
		if joining.ActualJoiningDate == nil {
			now := time.Now().UTC()
			updates["actual_joining_date"] = now
		}
	case models.JoiningNoShow:
		if body.NoShowReason == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "No-show reason is required"})
			return
		}
		now := time.Now().UTC()
		updates["no_show_reason"] = body.NoShowReason
		updates["no_show_date"] = now
		freePosition = joining.Status == models.JoiningConfirmed
	case models.JoiningDelayed, models.JoiningReplacementRequired:
		// status only
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown joining status: " + string(body.Status)})
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(joining).Updates(updates).Error; err != nil {
			return err
		}
		if freePosition {
			var app models.Application
			if err := tx.First(&app, joining.ApplicationID).Error; err != nil {
				return err
			}
			return tx.Model(&models.JobDescription{}).
				Where("id = ? AND filled_positions > 0", app.JDID).
				UpdateColumn("filled_positions", gorm.Expr("filled_positions - 1")).Error
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to update joining status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"joining": joining})
}

// InitiateReplacement opens a fresh application against the same JD for
// a substitute candidate and links it back to the failed joining.
func InitiateReplacement(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	joining, ok := findJoining(ctx)
	if !ok {
		return
	}

	if joining.Status != models.JoiningNoShow && joining.Status != models.JoiningReplacementRequired {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Replacement requires a no-show or replacement-required joining"})
		return
	}
	if joining.ReplacementInitiated {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":          "Replacement already initiated",
			"application_id": joining.ReplacementApplicationID,
		})
		return
	}

	var body InitiateReplacementRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var original models.Application
	if err := db.DB.First(&original, joining.ApplicationID).Error; err != nil {
		log.Printf("Failed to fetch original application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
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

	var duplicate models.Application
	err = db.DB.Where("candidate_id = ? AND jd_id = ?", candidate.ID, original.JDID).First(&duplicate).Error
	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":          "Candidate already has an application for this job description",
			"application_id": duplicate.ID,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing application: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var jd models.JobDescription
	if err := db.DB.First(&jd, original.JDID).Error; err != nil {
		log.Printf("Failed to fetch job description: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	now := time.Now().UTC()
	window := pipeline.WindowForJD(&jd, now, now)

	replacement := models.Application{
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
		if err := tx.Create(&replacement).Error; err != nil {
			return err
		}
		if err := pipeline.RecordCreation(tx, &replacement, pipeline.Actor{
			ID: currentUser.ID, Name: currentUser.FullName,
		}, "Replacement sourcing for joining "+jd.JDCode); err != nil {
			return err
		}
		return tx.Model(joining).Updates(map[string]interface{}{
			"replacement_initiated":      true,
			"replacement_application_id": replacement.ID,
		}).Error
	})
	if err != nil {
		log.Printf("Failed to initiate replacement: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"joining":     joining,
		"application": applicationResponse(&replacement),
	})
}
