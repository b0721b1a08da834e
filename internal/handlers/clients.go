package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/utils"
)

type CreateClientRequest struct {
	CompanyName      string              `json:"company_name" binding:"required"`
	Industry         string              `json:"industry"`
	Website          string              `json:"website"`
	Address          string              `json:"address"`
	Status           models.ClientStatus `json:"status"`
	AccountManagerID *uint               `json:"account_manager_id"`
	DefaultSLADays   *int                `json:"default_sla_days"`
}

type UpdateClientRequest struct {
	CompanyName      string               `json:"company_name"`
	Industry         *string              `json:"industry"`
	Website          *string              `json:"website"`
	Address          *string              `json:"address"`
	Status           *models.ClientStatus `json:"status"`
	AccountManagerID *uint                `json:"account_manager_id"`
	DefaultSLADays   *int                 `json:"default_sla_days"`
}

type ClientContactRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	IsPrimary   bool   `json:"is_primary"`
}

func findClient(ctx *gin.Context, param string) (*models.Client, bool) {
	id, err := utils.IDParam(ctx, param)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var client models.Client
	if err := db.DB.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			log.Printf("Failed to fetch client: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}
	return &client, true
}

func CreateClient(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateClientRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := body.Status
	if status == "" {
		status = models.ClientProspect
	}
	if !status.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown client status: " + string(status)})
		return
	}

	client := models.Client{
		CompanyName:      body.CompanyName,
		Industry:         body.Industry,
		Website:          body.Website,
		Address:          body.Address,
		Status:           status,
		AccountManagerID: body.AccountManagerID,
		DefaultSLADays:   body.DefaultSLADays,
		CreatedBy:        currentUser.ID,
	}

	if err := db.DB.Create(&client).Error; err != nil {
		log.Printf("Failed to create client: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"client": client})
}

func ListClients(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.Client{})
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := ctx.Query("search"); search != "" {
		query = query.Where("company_name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count clients: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var clients []models.Client
	if err := query.Order("id").Offset(p.Offset()).Limit(p.PageSize).Find(&clients).Error; err != nil {
		log.Printf("Failed to list clients: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, listEnvelope(clients, total, p))
}

func GetClient(ctx *gin.Context) {
	id, err := utils.IDParam(ctx, "client_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var client models.Client
	err = db.DB.Preload("Contacts").First(&client, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			log.Printf("Failed to fetch client: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var openJDs int64
	if err := db.DB.Model(&models.JobDescription{}).
		Where("client_id = ? AND status = ?", client.ID, models.JDOpen).
		Count(&openJDs).Error; err != nil {
		log.Printf("Failed to count open JDs: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"client":   client,
		"open_jds": openJDs,
	})
}

func UpdateClient(ctx *gin.Context) {
	client, ok := findClient(ctx, "client_id")
	if !ok {
		return
	}

	var body UpdateClientRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})
	if body.CompanyName != "" {
		updates["company_name"] = body.CompanyName
	}
	if body.Industry != nil {
		updates["industry"] = *body.Industry
	}
	if body.Website != nil {
		updates["website"] = *body.Website
	}
	if body.Address != nil {
		updates["address"] = *body.Address
	}
	if body.Status != nil {
		if !body.Status.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown client status: " + string(*body.Status)})
			return
		}
		updates["status"] = *body.Status
	}
	if body.AccountManagerID != nil {
		updates["account_manager_id"] = *body.AccountManagerID
	}
	if body.DefaultSLADays != nil {
		updates["default_sla_days"] = *body.DefaultSLADays
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(client).Updates(updates).Error; err != nil {
		log.Printf("Failed to update client: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"client": client})
}

// DeleteClient soft-deletes. Blocked while the client still has open JDs.
func DeleteClient(ctx *gin.Context) {
	client, ok := findClient(ctx, "client_id")
	if !ok {
		return
	}

	var openJDs int64
	if err := db.DB.Model(&models.JobDescription{}).
		Where("client_id = ? AND status = ?", client.ID, models.JDOpen).
		Count(&openJDs).Error; err != nil {
		log.Printf("Failed to count open JDs: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if openJDs > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete a client with open job descriptions"})
		return
	}

	if err := db.DB.Delete(client).Error; err != nil {
		log.Printf("Failed to delete client: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func AddClientContact(ctx *gin.Context) {
	client, ok := findClient(ctx, "client_id")
	if !ok {
		return
	}

	var body ClientContactRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contact := models.ClientContact{
		ClientID:    client.ID,
		Name:        body.Name,
		Email:       body.Email,
		Phone:       body.Phone,
		Designation: body.Designation,
		IsPrimary:   body.IsPrimary,
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		// Only one primary contact per client.
		if contact.IsPrimary {
			if err := tx.Model(&models.ClientContact{}).
				Where("client_id = ?", client.ID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&contact).Error
	})
	if err != nil {
		log.Printf("Failed to create client contact: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"contact": contact})
}

func DeleteClientContact(ctx *gin.Context) {
	client, ok := findClient(ctx, "client_id")
	if !ok {
		return
	}

	contactID, err := utils.IDParam(ctx, "contact_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := db.DB.Where("client_id = ?", client.ID).Delete(&models.ClientContact{}, contactID)
	if result.Error != nil {
		log.Printf("Failed to delete client contact: %v", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
