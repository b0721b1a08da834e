package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/utils"
)

type CreateCandidateRequest struct {
	FirstName          string                 `json:"first_name" binding:"required"`
	LastName           string                 `json:"last_name" binding:"required"`
	Email              string                 `json:"email" binding:"required,email"`
	Phone              string                 `json:"phone"`
	CurrentCompany     string                 `json:"current_company"`
	CurrentDesignation string                 `json:"current_designation"`
	TotalExperience    *float64               `json:"total_experience"`
	RelevantExperience *float64               `json:"relevant_experience"`
	Skills             datatypes.JSON         `json:"skills"`
	Certifications     datatypes.JSON         `json:"certifications"`
	CurrentLocation    string                 `json:"current_location"`
	PreferredLocations datatypes.JSON         `json:"preferred_locations"`
	WillingToRelocate  bool                   `json:"willing_to_relocate"`
	NoticePeriodDays   *int                   `json:"notice_period_days"`
	CurrentCTC         *float64               `json:"current_ctc"`
	ExpectedCTC        *float64               `json:"expected_ctc"`
	Currency           string                 `json:"currency"`
	Source             models.CandidateSource `json:"source"`
	SourceDetails      string                 `json:"source_details"`
	LinkedInURL        string                 `json:"linkedin_url"`
	Notes              string                 `json:"notes"`
	Tags               datatypes.JSON         `json:"tags"`
}

type UpdateCandidateRequest struct {
	FirstName          string         `json:"first_name"`
	LastName           string         `json:"last_name"`
	Phone              *string        `json:"phone"`
	CurrentCompany     *string        `json:"current_company"`
	CurrentDesignation *string        `json:"current_designation"`
	TotalExperience    *float64       `json:"total_experience"`
	RelevantExperience *float64       `json:"relevant_experience"`
	Skills             datatypes.JSON `json:"skills"`
	Certifications     datatypes.JSON `json:"certifications"`
	CurrentLocation    *string        `json:"current_location"`
	PreferredLocations datatypes.JSON `json:"preferred_locations"`
	WillingToRelocate  *bool          `json:"willing_to_relocate"`
	NoticePeriodDays   *int           `json:"notice_period_days"`
	CurrentCTC         *float64       `json:"current_ctc"`
	ExpectedCTC        *float64       `json:"expected_ctc"`
	LinkedInURL        *string        `json:"linkedin_url"`
	Notes              *string        `json:"notes"`
	Tags               datatypes.JSON `json:"tags"`
}

var allowedResumeExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

func findCandidate(ctx *gin.Context) (*models.Candidate, bool) {
	id, err := utils.IDParam(ctx, "candidate_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var candidate models.Candidate
	if err := db.DB.First(&candidate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Candidate not found"})
		} else {
			log.Printf("Failed to fetch candidate: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &candidate, true
}

func CreateCandidate(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateCandidateRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var existing models.Candidate
	err = db.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":        "A candidate with this email already exists",
			"candidate_id": existing.ID,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing candidate: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	source := body.Source
	if source == "" {
		source = models.SourceDirect
	}

	candidate := models.Candidate{
		FirstName:          body.FirstName,
		LastName:           body.LastName,
		Email:              email,
		Phone:              body.Phone,
		CurrentCompany:     body.CurrentCompany,
		CurrentDesignation: body.CurrentDesignation,
		TotalExperience:    body.TotalExperience,
		RelevantExperience: body.RelevantExperience,
		Skills:             body.Skills,
		Certifications:     body.Certifications,
		CurrentLocation:    body.CurrentLocation,
		PreferredLocations: body.PreferredLocations,
		WillingToRelocate:  body.WillingToRelocate,
		NoticePeriodDays:   body.NoticePeriodDays,
		CurrentCTC:         body.CurrentCTC,
		ExpectedCTC:        body.ExpectedCTC,
		Currency:           body.Currency,
		Source:             source,
		SourceDetails:      body.SourceDetails,
		LinkedInURL:        body.LinkedInURL,
		Notes:              body.Notes,
		Tags:               body.Tags,
		CreatedBy:          currentUser.ID,
	}

	if err := db.DB.Create(&candidate).Error; err != nil {
		log.Printf("Failed to create candidate: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"candidate": candidate})
}

func ListCandidates(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Candidate{})
	if source := ctx.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if search := ctx.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count candidates: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var candidates []models.Candidate
	if err := query.Order("id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&candidates).Error; err != nil {
		log.Printf("Failed to list candidates: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(candidates, total, p))
}

func GetCandidate(ctx *gin.Context) {
	candidate, ok := findCandidate(ctx)
	if !ok {
		return
	}

	var applications []models.Application
	if err := db.DB.Where("candidate_id = ?", candidate.ID).Find(&applications).Error; err != nil {
		log.Printf("Failed to fetch candidate applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"candidate":    candidate,
		"applications": applications,
	})
}

func UpdateCandidate(ctx *gin.Context) {
	candidate, ok := findCandidate(ctx)
	if !ok {
		return
	}

	var body UpdateCandidateRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.FirstName != "" {
		updates["first_name"] = body.FirstName
	}
	if body.LastName != "" {
		updates["last_name"] = body.LastName
	}
	if body.Phone != nil {
		updates["phone"] = *body.Phone
	}
	if body.CurrentCompany != nil {
		updates["current_company"] = *body.CurrentCompany
	}
	if body.CurrentDesignation != nil {
		updates["current_designation"] = *body.CurrentDesignation
	}
	if body.TotalExperience != nil {
		updates["total_experience"] = *body.TotalExperience
	}
	if body.RelevantExperience != nil {
		updates["relevant_experience"] = *body.RelevantExperience
	}
	if body.Skills != nil {
		updates["skills"] = body.Skills
	}
	if body.Certifications != nil {
		updates["certifications"] = body.Certifications
	}
	if body.CurrentLocation != nil {
		updates["current_location"] = *body.CurrentLocation
	}
	if body.PreferredLocations != nil {
		updates["preferred_locations"] = body.PreferredLocations
	}
	if body.WillingToRelocate != nil {
		updates["willing_to_relocate"] = *body.WillingToRelocate
	}
	if body.NoticePeriodDays != nil {
		updates["notice_period_days"] = *body.NoticePeriodDays
	}
	if body.CurrentCTC != nil {
		updates["current_ctc"] = *body.CurrentCTC
	}
	if body.ExpectedCTC != nil {
		updates["expected_ctc"] = *body.ExpectedCTC
	}
	if body.LinkedInURL != nil {
		updates["linked_in_url"] = *body.LinkedInURL
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}
	if body.Tags != nil {
		updates["tags"] = body.Tags
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(candidate).Updates(updates).Error; err != nil {
		log.Printf("Failed to update candidate: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"candidate": candidate})
}

// UploadResume stores the candidate's resume on disk under a
// non-guessable name and keeps the original filename for display.
func UploadResume(ctx *gin.Context) {
	candidate, ok := findCandidate(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("resume")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Resume file is required"})
		return
	}

	if file.Size > cfg.MaxUploadSize {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Resume exceeds the maximum upload size"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedResumeExtensions[ext] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and Word documents are accepted"})
		return
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Printf("Failed to create upload directory: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	storedName := fmt.Sprintf("resume_%d_%d%s", candidate.ID, time.Now().UnixNano(), ext)
	storedPath := filepath.Join(cfg.UploadDir, storedName)

	if err := ctx.SaveUploadedFile(file, storedPath); err != nil {
		log.Printf("Failed to save resume: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	previousPath := candidate.ResumePath

	updates := map[string]interface{}{
		"resume_path":          storedPath,
		"resume_original_name": file.Filename,
	}
	if err := db.DB.Model(candidate).Updates(updates).Error; err != nil {
		log.Printf("Failed to record resume upload: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if previousPath != "" {
		if err := os.Remove(previousPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove previous resume: %v", err)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"resume_path":          storedPath,
		"resume_original_name": file.Filename,
	})
}

func DownloadResume(ctx *gin.Context) {
	candidate, ok := findCandidate(ctx)
	if !ok {
		return
	}

	if candidate.ResumePath == "" {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No resume on file"})
		return
	}

	ctx.FileAttachment(candidate.ResumePath, candidate.ResumeOriginalName)
}

func DeleteCandidate(ctx *gin.Context) {
	candidate, ok := findCandidate(ctx)
	if !ok {
		return
	}

	var active int64
	if err := db.DB.Model(&models.Application{}).
		Where("candidate_id = ? AND status NOT IN ?", candidate.ID, []models.ApplicationStatus{
			models.AppRejected, models.AppWithdrawn, models.AppJoined,
		}).Count(&active).Error; err != nil {
		log.Printf("Failed to count active applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if active > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete a candidate with active applications"})
		return
	}

	if err := db.DB.Delete(candidate).Error; err != nil {
		log.Printf("Failed to delete candidate: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
