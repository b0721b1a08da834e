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
	"github.com/outsourceats/hirex/internal/utils"
)

type CreatePitchRequest struct {
	ClientID          uint           `json:"client_id" binding:"required"`
	Title             string         `json:"title" binding:"required"`
	Description       string         `json:"description"`
	ProposedRoles     datatypes.JSON `json:"proposed_roles"`
	ExpectedHeadcount *int           `json:"expected_headcount"`
	RateCard          datatypes.JSON `json:"rate_card"`
	Notes             string         `json:"notes"`
}

type UpdatePitchRequest struct {
	Title             string         `json:"title"`
	Description       *string        `json:"description"`
	ProposedRoles     datatypes.JSON `json:"proposed_roles"`
	ExpectedHeadcount *int           `json:"expected_headcount"`
	RateCard          datatypes.JSON `json:"rate_card"`
	Notes             *string        `json:"notes"`
}

type DecidePitchRequest struct {
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason"`
}

type ConvertPitchRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	OpenPositions int      `json:"open_positions"`
	Location      string   `json:"location"`
	WorkMode      string   `json:"work_mode"`
	SLADays       *int     `json:"sla_days"`
	BudgetMin     *float64 `json:"budget_min"`
	BudgetMax     *float64 `json:"budget_max"`
}

func findPitch(ctx *gin.Context) (*models.Pitch, bool) {
	id, err := utils.IDParam(ctx, "pitch_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var pitch models.Pitch
	if err := db.DB.First(&pitch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Pitch not found"})
		} else {
			log.Printf("Failed to fetch pitch: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &pitch, true
}

func CreatePitch(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreatePitchRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var client models.Client
	if err := db.DB.First(&client, body.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			log.Printf("Failed to fetch client: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	pitch := models.Pitch{
		ClientID:          client.ID,
		Title:             body.Title,
		Description:       body.Description,
		ProposedRoles:     body.ProposedRoles,
		ExpectedHeadcount: body.ExpectedHeadcount,
		RateCard:          body.RateCard,
		Status:            models.PitchDraft,
		Notes:             body.Notes,
		CreatedBy:         currentUser.ID,
	}

	if err := db.DB.Create(&pitch).Error; err != nil {
		log.Printf("Failed to create pitch: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"pitch": pitch})
}

func ListPitches(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Pitch{})
	if clientID := ctx.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count pitches: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var pitches []models.Pitch
	if err := query.Order("id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&pitches).Error; err != nil {
		log.Printf("Failed to list pitches: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(pitches, total, p))
}

func GetPitch(ctx *gin.Context) {
	pitch, ok := findPitch(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"pitch": pitch})
}

func UpdatePitch(ctx *gin.Context) {
	pitch, ok := findPitch(ctx)
	if !ok {
		return
	}

	if !pitch.Editable() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only draft pitches can be edited"})
		return
	}

	var body UpdatePitchRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.Title != "" {
		updates["title"] = body.Title
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.ProposedRoles != nil {
		updates["proposed_roles"] = body.ProposedRoles
	}
	if body.ExpectedHeadcount != nil {
		updates["expected_headcount"] = *body.ExpectedHeadcount
	}
	if body.RateCard != nil {
		updates["rate_card"] = body.RateCard
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(pitch).Updates(updates).Error; err != nil {
		log.Printf("Failed to update pitch: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"pitch": pitch})
}

func DeletePitch(ctx *gin.Context) {
	pitch, ok := findPitch(ctx)
	if !ok {
		return
	}

	if !pitch.Editable() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only draft pitches can be deleted"})
		return
	}

	if err := db.DB.Delete(pitch).Error; err != nil {
		log.Printf("Failed to delete pitch: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func SendPitch(ctx *gin.Context) {
	pitch, ok := findPitch(ctx)
	if !ok {
		return
	}

	if pitch.Status != models.PitchDraft {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only draft pitches can be sent"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":    models.PitchSent,
		"sent_date": now,
	}

	if err := db.DB.Model(pitch).Updates(updates).Error; err != nil {
		log.Printf("Failed to send pitch: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"pitch": pitch})
}

// DecidePitch records the client's verdict on a sent pitch.
func DecidePitch(ctx *gin.Context) {
	pitch, ok := findPitch(ctx)
	if !ok {
		return
	}

	if pitch.Status != models.PitchSent {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only sent pitches can be decided"})
		return
	}

	var body DecidePitchRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{"decision_date": now}

	if body.Approved {
		updates["status"] = models.PitchApproved
	} else {
		if body.RejectionReason == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
			return
		}
		updates["status"] = models.PitchRejected
		updates["rejection_reason"] = body.RejectionReason
	}

	if err := db.DB.Model(pitch).Updates(updates).Error; err != nil {
		log.Printf("Failed to decide pitch: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"pitch": pitch})
}

// ConvertPitch turns an approved pitch into an open job description and
// marks the pitch converted.
func ConvertPitch(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pitch, ok := findPitch(ctx)
	if !ok {
		return
	}

	if !pitch.Convertible() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only approved pitches can be converted"})
		return
	}

	var body ConvertPitchRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	openPositions := body.OpenPositions
	if openPositions < 1 {
		openPositions = 1
	}

	var jd models.JobDescription
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		slaDays := body.SLADays
		if slaDays == nil {
			var client models.Client
			if err := tx.First(&client, pitch.ClientID).Error; err != nil {
				return err
			}
			slaDays = client.DefaultSLADays
		}

		code, err := nextJDCode(tx, pitch.ClientID)
		if err != nil {
			return err
		}

		pitchID := pitch.ID
		jd = models.JobDescription{
			ClientID:      pitch.ClientID,
			PitchID:       &pitchID,
			JDCode:        code,
			Title:         body.Title,
			Description:   body.Description,
			Location:      body.Location,
			WorkMode:      body.WorkMode,
			OpenPositions: openPositions,
			Status:        models.JDOpen,
			SLADays:       slaDays,
			BudgetMin:     body.BudgetMin,
			BudgetMax:     body.BudgetMax,
			CreatedBy:     currentUser.ID,
		}
		if err := tx.Create(&jd).Error; err != nil {
			return err
		}

		return tx.Model(pitch).Update("status", models.PitchConverted).Error
	})
	if err != nil {
		log.Printf("Failed to convert pitch: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"pitch":           pitch,
		"job_description": jd,
	})
}
