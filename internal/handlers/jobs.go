package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/utils"
)

type CreateJDRequest struct {
	ClientID            uint                `json:"client_id" binding:"required"`
	Title               string              `json:"title" binding:"required"`
	Description         string              `json:"description" binding:"required"`
	RequiredSkills      datatypes.JSON      `json:"required_skills"`
	PreferredSkills     datatypes.JSON      `json:"preferred_skills"`
	ExperienceMin       *float64            `json:"experience_min"`
	ExperienceMax       *float64            `json:"experience_max"`
	Location            string              `json:"location"`
	WorkMode            string              `json:"work_mode"`
	ContractType        models.ContractType `json:"contract_type"`
	OpenPositions       int                 `json:"open_positions"`
	Priority            models.JDPriority   `json:"priority"`
	SLADays             *int                `json:"sla_days"`
	BudgetMin           *float64            `json:"budget_min"`
	BudgetMax           *float64            `json:"budget_max"`
	Currency            string              `json:"currency"`
	Benefits            string              `json:"benefits"`
	AssignedRecruiterID *uint               `json:"assigned_recruiter_id"`
}

type UpdateJDRequest struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	RequiredSkills  datatypes.JSON    `json:"required_skills"`
	PreferredSkills datatypes.JSON    `json:"preferred_skills"`
	ExperienceMin   *float64          `json:"experience_min"`
	ExperienceMax   *float64          `json:"experience_max"`
	Location        *string           `json:"location"`
	WorkMode        *string           `json:"work_mode"`
	OpenPositions   *int              `json:"open_positions"`
	Priority        models.JDPriority `json:"priority"`
	SLADays         *int              `json:"sla_days"`
	BudgetMin       *float64          `json:"budget_min"`
	BudgetMax       *float64          `json:"budget_max"`
	Benefits        *string           `json:"benefits"`
}

type UpdateJDStatusRequest struct {
	Status models.JDStatus `json:"status" binding:"required"`
}

type AssignRecruiterRequest struct {
	RecruiterID uint `json:"recruiter_id" binding:"required"`
}

// nextJDCode derives a human-readable code from the client's company
// name plus a per-client sequence, e.g. "ACM_0007".
func nextJDCode(tx *gorm.DB, clientID uint) (string, error) {
	var client models.Client
	if err := tx.First(&client, clientID).Error; err != nil {
		return "", err
	}

	prefix := strings.ToUpper(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, client.CompanyName))
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		prefix = "JOB"
	}

	var count int64
	if err := tx.Unscoped().Model(&models.JobDescription{}).
		Where("client_id = ?", clientID).Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s_%04d", prefix, count+1), nil
}

func findJD(ctx *gin.Context) (*models.JobDescription, bool) {
	id, err := utils.IDParam(ctx, "jd_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var jd models.JobDescription
	if err := db.DB.First(&jd, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Job description not found"})
		} else {
			log.Printf("Failed to fetch job description: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &jd, true
}

func CreateJD(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateJDRequest
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

	openPositions := body.OpenPositions
	if openPositions < 1 {
		openPositions = 1
	}

	contractType := body.ContractType
	if contractType == "" {
		contractType = models.ContractFullTime
	}
	priority := body.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	// JDs without their own SLA window inherit the client default.
	slaDays := body.SLADays
	if slaDays == nil {
		slaDays = client.DefaultSLADays
	}

	var jd models.JobDescription
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		code, err := nextJDCode(tx, client.ID)
		if err != nil {
			return err
		}

		jd = models.JobDescription{
			ClientID:            client.ID,
			AssignedRecruiterID: body.AssignedRecruiterID,
			JDCode:              code,
			Title:               body.Title,
			Description:         body.Description,
			RequiredSkills:      body.RequiredSkills,
			PreferredSkills:     body.PreferredSkills,
			ExperienceMin:       body.ExperienceMin,
			ExperienceMax:       body.ExperienceMax,
			Location:            body.Location,
			WorkMode:            body.WorkMode,
			ContractType:        contractType,
			OpenPositions:       openPositions,
			Status:              models.JDDraft,
			Priority:            priority,
			SLADays:             slaDays,
			BudgetMin:           body.BudgetMin,
			BudgetMax:           body.BudgetMax,
			Currency:            body.Currency,
			Benefits:            body.Benefits,
			CreatedBy:           currentUser.ID,
		}
		return tx.Create(&jd).Error
	})
	if err != nil {
		log.Printf("Failed to create job description: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"job_description": jd})
}

func ListJDs(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.JobDescription{})
	if clientID := ctx.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := ctx.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if recruiterID := ctx.Query("recruiter_id"); recruiterID != "" {
		query = query.Where("assigned_recruiter_id = ?", recruiterID)
	}
	if search := ctx.Query("search"); search != "" {
		query = query.Where("title LIKE ? OR jd_code LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count job descriptions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var jds []models.JobDescription
	if err := query.Order("id desc").Offset(p.Offset()).Limit(p.PageSize).Find(&jds).Error; err != nil {
		log.Printf("Failed to list job descriptions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(jds, total, p))
}

func GetJD(ctx *gin.Context) {
	jd, ok := findJD(ctx)
	if !ok {
		return
	}

	var applicationCount int64
	if err := db.DB.Model(&models.Application{}).
		Where("jd_id = ?", jd.ID).Count(&applicationCount).Error; err != nil {
		log.Printf("Failed to count applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"job_description":     jd,
		"application_count":   applicationCount,
		"remaining_positions": jd.RemainingPositions(),
	})
}

func UpdateJD(ctx *gin.Context) {
	jd, ok := findJD(ctx)
	if !ok {
		return
	}

	if !jd.Editable() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Closed job descriptions cannot be edited"})
		return
	}

	var body UpdateJDRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.Title != "" {
		updates["title"] = body.Title
	}
	if body.Description != "" {
		updates["description"] = body.Description
	}
	if body.RequiredSkills != nil {
		updates["required_skills"] = body.RequiredSkills
	}
	if body.PreferredSkills != nil {
		updates["preferred_skills"] = body.PreferredSkills
	}
	if body.ExperienceMin != nil {
		updates["experience_min"] = *body.ExperienceMin
	}
	if body.ExperienceMax != nil {
		updates["experience_max"] = *body.ExperienceMax
	}
	if body.Location != nil {
		updates["location"] = *body.Location
	}
	if body.WorkMode != nil {
		updates["work_mode"] = *body.WorkMode
	}
	if body.OpenPositions != nil {
		if *body.OpenPositions < jd.FilledPositions {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Open positions cannot be below filled positions"})
			return
		}
		updates["open_positions"] = *body.OpenPositions
	}
	if body.Priority != "" {
		updates["priority"] = body.Priority
	}
	if body.SLADays != nil {
		updates["sla_days"] = *body.SLADays
	}
	if body.BudgetMin != nil {
		updates["budget_min"] = *body.BudgetMin
	}
	if body.BudgetMax != nil {
		updates["budget_max"] = *body.BudgetMax
	}
	if body.Benefits != nil {
		updates["benefits"] = *body.Benefits
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(jd).Updates(updates).Error; err != nil {
		log.Printf("Failed to update job description: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job_description": jd})
}

func UpdateJDStatus(ctx *gin.Context) {
	jd, ok := findJD(ctx)
	if !ok {
		return
	}

	var body UpdateJDStatusRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !body.Status.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + string(body.Status)})
		return
	}

	// Closing a JD is blocked while applications are still in flight;
	// they must be rejected, withdrawn or joined first.
	if body.Status == models.JDClosed {
		var active int64
		if err := db.DB.Model(&models.Application{}).
			Where("jd_id = ? AND status NOT IN ?", jd.ID, []models.ApplicationStatus{
				models.AppRejected, models.AppWithdrawn, models.AppJoined,
			}).Count(&active).Error; err != nil {
			log.Printf("Failed to count active applications: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if active > 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot close a job description with active applications"})
			return
		}
	}

	if err := db.DB.Model(jd).Update("status", body.Status).Error; err != nil {
		log.Printf("Failed to update job description status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job_description": jd})
}

func AssignRecruiter(ctx *gin.Context) {
	jd, ok := findJD(ctx)
	if !ok {
		return
	}

	var body AssignRecruiterRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var recruiter models.User
	if err := db.DB.First(&recruiter, body.RecruiterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Recruiter not found"})
		} else {
			log.Printf("Failed to fetch recruiter: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if recruiter.Role != models.RoleRecruiter && recruiter.Role != models.RoleAdmin {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is not a recruiter"})
		return
	}

	if err := db.DB.Model(jd).Update("assigned_recruiter_id", recruiter.ID).Error; err != nil {
		log.Printf("Failed to assign recruiter: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"job_description": jd})
}

func DeleteJD(ctx *gin.Context) {
	jd, ok := findJD(ctx)
	if !ok {
		return
	}

	var applicationCount int64
	if err := db.DB.Model(&models.Application{}).
		Where("jd_id = ?", jd.ID).Count(&applicationCount).Error; err != nil {
		log.Printf("Failed to count applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if applicationCount > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete a job description with applications"})
		return
	}

	if err := db.DB.Delete(jd).Error; err != nil {
		log.Printf("Failed to delete job description: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
