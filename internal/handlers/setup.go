package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/auth"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/utils"
)

type SetupAdminRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// SetupStatus reports whether the instance still needs its first admin.
// Auth is optional here: an already-authenticated caller gets their
// identity back so the frontend can skip the login screen.
func SetupStatus(ctx *gin.Context) {
	var count int64
	if err := db.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("Failed to count users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := gin.H{"setup_required": count == 0}
	if currentUser, err := utils.GetCurrentUser(ctx); err == nil {
		response["user"] = currentUser
	}

	ctx.JSON(http.StatusOK, response)
}

// SetupAdmin bootstraps the first admin account. Open only while the
// user table is empty; afterwards user creation goes through the
// authenticated team endpoints.
func SetupAdmin(ctx *gin.Context) {
	var body SetupAdminRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var count int64
	if err := db.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("Failed to count users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Setup has already been completed"})
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	admin := models.User{
		FullName:     body.FullName,
		Email:        strings.ToLower(strings.TrimSpace(body.Email)),
		PasswordHash: passwordHash,
		Phone:        body.Phone,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	if err := db.DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to create admin user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Admin account created",
		"user":    userResponse(&admin),
	})
}
