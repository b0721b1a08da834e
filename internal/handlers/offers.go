package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
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

type CreateOfferRequest struct {
	ApplicationID uint `json:"application_id" binding:"required"`

	Designation string `json:"designation" binding:"required"`
	Department  string `json:"department"`

	CTCAnnual         float64  `json:"ctc_annual" binding:"required"`
	FixedComponent    *float64 `json:"fixed_component"`
	VariableComponent *float64 `json:"variable_component"`
	Currency          string   `json:"currency"`

	OtherBenefits datatypes.JSON `json:"other_benefits"`

	JoiningDateProposed *time.Time `json:"joining_date_proposed"`
	OfferValidTill      *time.Time `json:"offer_valid_till"`

	Notes string `json:"notes"`
}

type UpdateOfferRequest struct {
	Designation         string         `json:"designation"`
	Department          *string        `json:"department"`
	CTCAnnual           *float64       `json:"ctc_annual"`
	FixedComponent      *float64       `json:"fixed_component"`
	VariableComponent   *float64       `json:"variable_component"`
	OtherBenefits       datatypes.JSON `json:"other_benefits"`
	JoiningDateProposed *time.Time     `json:"joining_date_proposed"`
	OfferValidTill      *time.Time     `json:"offer_valid_till"`
	Notes               *string        `json:"notes"`
}

type UpdateOfferStatusRequest struct {
	Status           models.OfferStatus `json:"status" binding:"required"`
	DeclineReason    string             `json:"decline_reason"`
	NegotiationNotes string             `json:"negotiation_notes"`
}

type ReviseOfferRequest struct {
	CTCAnnual           *float64       `json:"ctc_annual"`
	FixedComponent      *float64       `json:"fixed_component"`
	VariableComponent   *float64       `json:"variable_component"`
	OtherBenefits       datatypes.JSON `json:"other_benefits"`
	JoiningDateProposed *time.Time     `json:"joining_date_proposed"`
	OfferValidTill      *time.Time     `json:"offer_valid_till"`
	NegotiationNotes    string         `json:"negotiation_notes"`
}

// nextOfferNumber allocates a sequential human-readable identifier,
// e.g. "OFR-2026-0042". Revisions keep their own numbers. The suffix
// comes from the highest number issued this year, not a row count, so
// deleted drafts never free a taken number. The zero-padded suffix
// keeps lexicographic and numeric order aligned.
func nextOfferNumber(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("OFR-%d-", time.Now().UTC().Year())

	var numbers []string
	if err := tx.Model(&models.Offer{}).
		Where("offer_number LIKE ?", prefix+"%").
		Order("offer_number desc").
		Limit(1).
		Pluck("offer_number", &numbers).Error; err != nil {
		return "", err
	}

	next := 1
	if len(numbers) > 0 {
		if n, err := strconv.Atoi(strings.TrimPrefix(numbers[0], prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

func findOffer(ctx *gin.Context) (*models.Offer, bool) {
	id, err := utils.IDParam(ctx, "offer_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var offer models.Offer
	if err := db.DB.First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
		} else {
			log.Printf("Failed to fetch offer: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &offer, true
}

// CreateOffer drafts an offer for an interviewing candidate and moves
// the application into the offered stage. One active offer per
// application at a time.
func CreateOffer(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateOfferRequest
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

	if app.Status != models.AppInterviewing && app.Status != models.AppOffered {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Offers can only be created for interviewing applications"})
		return
	}

	var activeOffers []models.Offer
	if err := db.DB.Where("application_id = ? AND status IN ?", app.ID, []models.OfferStatus{
		models.OfferDraft, models.OfferSent, models.OfferNegotiating,
	}).Find(&activeOffers).Error; err != nil {
		log.Printf("Failed to check active offers: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if len(activeOffers) > 0 {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":    "Application already has an active offer",
			"offer_id": activeOffers[0].ID,
		})
		return
	}

	currency := body.Currency
	if currency == "" {
		currency = "USD"
	}

	var offer models.Offer
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		number, err := nextOfferNumber(tx)
		if err != nil {
			return err
		}

		offer = models.Offer{
			ApplicationID:       app.ID,
			OfferNumber:         number,
			Designation:         body.Designation,
			Department:          body.Department,
			CTCAnnual:           body.CTCAnnual,
			FixedComponent:      body.FixedComponent,
			VariableComponent:   body.VariableComponent,
			Currency:            currency,
			OtherBenefits:       body.OtherBenefits,
			JoiningDateProposed: body.JoiningDateProposed,
			OfferValidTill:      body.OfferValidTill,
			Status:              models.OfferDraft,
			RevisionNumber:      1,
			Notes:               body.Notes,
			CreatedBy:           currentUser.ID,
		}
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}

		if app.Status != models.AppOffered {
			return pipeline.Transition(tx, &app, pipeline.Actor{
				ID: currentUser.ID, Name: currentUser.FullName,
			}, pipeline.Request{
				To:    models.AppOffered,
				Notes: "Offer " + offer.OfferNumber + " drafted",
			})
		}
		return nil
	})
	if err != nil {
		transitionError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"offer": offer})
}

func ListOffers(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Offer{})
	if applicationID := ctx.Query("application_id"); applicationID != "" {
		query = query.Where("application_id = ?", applicationID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count offers: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var offers []models.Offer
	if err := query.Order("id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&offers).Error; err != nil {
		log.Printf("Failed to list offers: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(offers, total, p))
}

func GetOffer(ctx *gin.Context) {
	offer, ok := findOffer(ctx)
	if !ok {
		return
	}

	// Walk back through the revision chain for context.
	var revisions []models.Offer
	if err := db.DB.Where("application_id = ?", offer.ApplicationID).
		Order("revision_number").Find(&revisions).Error; err != nil {
		log.Printf("Failed to fetch offer revisions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"offer":     offer,
		"revisions": revisions,
	})
}

func UpdateOffer(ctx *gin.Context) {
	offer, ok := findOffer(ctx)
	if !ok {
		return
	}

	// Sent offers are immutable; changes go through a revision.
	if offer.Status != models.OfferDraft {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only draft offers can be edited; revise the offer instead"})
		return
	}

	var body UpdateOfferRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.Designation != "" {
		updates["designation"] = body.Designation
	}
	if body.Department != nil {
		updates["department"] = *body.Department
	}
	if body.CTCAnnual != nil {
		updates["ctc_annual"] = *body.CTCAnnual
	}
	if body.FixedComponent != nil {
		updates["fixed_component"] = *body.FixedComponent
	}
	if body.VariableComponent != nil {
		updates["variable_component"] = *body.VariableComponent
	}
	if body.OtherBenefits != nil {
		updates["other_benefits"] = body.OtherBenefits
	}
	if body.JoiningDateProposed != nil {
		updates["joining_date_proposed"] = *body.JoiningDateProposed
	}
	if body.OfferValidTill != nil {
		updates["offer_valid_till"] = *body.OfferValidTill
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(offer).Updates(updates).Error; err != nil {
		log.Printf("Failed to update offer: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"offer": offer})
}

func SendOffer(ctx *gin.Context) {
	offer, ok := findOffer(ctx)
	if !ok {
		return
	}

	if offer.Status != models.OfferDraft {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only draft offers can be sent"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":    models.OfferSent,
		"sent_date": now,
	}

	if err := db.DB.Model(offer).Updates(updates).Error; err != nil {
		log.Printf("Failed to send offer: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var app models.Application
	if err := db.DB.First(&app, offer.ApplicationID).Error; err == nil {
		var candidate models.Candidate
		var jd models.JobDescription
		if db.DB.First(&candidate, app.CandidateID).Error == nil &&
			db.DB.First(&jd, app.JDID).Error == nil {
			go services.NotifyOfferSent(candidate.FullName(), jd.Title, offer.OfferNumber)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"offer": offer})
}

// UpdateOfferStatus records the candidate's response to a sent offer.
func UpdateOfferStatus(ctx *gin.Context) {
	offer, ok := findOffer(ctx)
	if !ok {
		return
	}

	var body UpdateOfferStatusRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if offer.Status != models.OfferSent && offer.Status != models.OfferNegotiating {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only sent offers can change status"})
		return
	}

	updates := map[string]interface{}{"status": body.Status}

	switch body.Status {
	case models.OfferAccepted:
		now := time.Now().UTC()
		updates["acceptance_date"] = now
	case models.OfferDeclined:
		if body.DeclineReason == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decline reason is required"})
			return
		}
		updates["decline_reason"] = body.DeclineReason
	case models.OfferNegotiating:
		updates["negotiation_notes"] = body.NegotiationNotes
	case models.OfferExpired, models.OfferCancelled:
		// terminal without extra metadata
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown offer status: " + string(body.Status)})
		return
	}

	if err := db.DB.Model(offer).Updates(updates).Error; err != nil {
		log.Printf("Failed to update offer status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"offer": offer})
}

// ReviseOffer supersedes a sent or negotiating offer with a new draft
// revision; the parent is cancelled, not edited.
func ReviseOffer(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	offer, ok := findOffer(ctx)
	if !ok {
		return
	}

	if offer.Status != models.OfferSent && offer.Status != models.OfferNegotiating {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only sent or negotiating offers can be revised"})
		return
	}

	var body ReviseOfferRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Copy-forward: unchanged terms carry over from the parent.
	revision := models.Offer{
		ApplicationID:       offer.ApplicationID,
		Designation:         offer.Designation,
		Department:          offer.Department,
		CTCAnnual:           offer.CTCAnnual,
		FixedComponent:      offer.FixedComponent,
		VariableComponent:   offer.VariableComponent,
		Currency:            offer.Currency,
		OtherBenefits:       offer.OtherBenefits,
		JoiningDateProposed: offer.JoiningDateProposed,
		OfferValidTill:      offer.OfferValidTill,
		Status:              models.OfferDraft,
		RevisionNumber:      offer.RevisionNumber + 1,
		ParentOfferID:       &offer.ID,
		NegotiationNotes:    body.NegotiationNotes,
		CreatedBy:           currentUser.ID,
	}
	if body.CTCAnnual != nil {
		revision.CTCAnnual = *body.CTCAnnual
	}
	if body.FixedComponent != nil {
		revision.FixedComponent = body.FixedComponent
	}
	if body.VariableComponent != nil {
		revision.VariableComponent = body.VariableComponent
	}
	if body.OtherBenefits != nil {
		revision.OtherBenefits = body.OtherBenefits
	}
	if body.JoiningDateProposed != nil {
		revision.JoiningDateProposed = body.JoiningDateProposed
	}
	if body.OfferValidTill != nil {
		revision.OfferValidTill = body.OfferValidTill
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		number, err := nextOfferNumber(tx)
		if err != nil {
			return err
		}
		revision.OfferNumber = number

		if err := tx.Create(&revision).Error; err != nil {
			return err
		}
		return tx.Model(offer).Update("status", models.OfferCancelled).Error
	})
	if err != nil {
		log.Printf("Failed to revise offer: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"offer": revision})
}

func DeleteOffer(ctx *gin.Context) {
	offer, ok := findOffer(ctx)
	if !ok {
		return
	}

	if offer.Status != models.OfferDraft {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only draft offers can be deleted"})
		return
	}

	if err := db.DB.Delete(offer).Error; err != nil {
		log.Printf("Failed to delete offer: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
