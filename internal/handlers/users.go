package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/auth"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/utils"
)

type CreateUserRequest struct {
	FullName string      `json:"full_name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"omitempty,min=8"`
	Phone    string      `json:"phone"`
	Role     models.Role `json:"role" binding:"required"`
	ClientID *uint       `json:"client_id"`
}

type UpdateUserRequest struct {
	FullName string       `json:"full_name"`
	Phone    string       `json:"phone"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
	ClientID *uint        `json:"client_id"`
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateUser adds a team member. When no password is supplied a
// temporary one is generated and returned once in the response.
func CreateUser(ctx *gin.Context) {
	var body CreateUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !body.Role.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + string(body.Role)})
		return
	}

	if body.Role == models.RoleClient && body.ClientID == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Client users must be linked to a client"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var existing models.User
	err := db.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	password := body.Password
	tempPassword := ""
	if password == "" {
		password, err = generateTempPassword()
		if err != nil {
			log.Printf("Failed to generate temporary password: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		tempPassword = password
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		FullName:     body.FullName,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        body.Phone,
		Role:         body.Role,
		IsActive:     true,
		ClientID:     body.ClientID,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := gin.H{"user": userResponse(&user)}
	if tempPassword != "" {
		response["temporary_password"] = tempPassword
	}
	ctx.JSON(http.StatusCreated, response)
}

func ListUsers(ctx *gin.Context) {
	p := paginationParams(ctx)

	query := db.DB.Model(&models.User{})
	if role := ctx.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if active := ctx.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var users []models.User
	if err := query.Order("id").Offset(p.Offset()).Limit(p.PageSize).Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}

	ctx.JSON(http.StatusOK, listEnvelope(items, total, p))
}

func GetUser(ctx *gin.Context) {
	id, err := utils.IDParam(ctx, "user_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}

func UpdateUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := utils.IDParam(ctx, "user_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdateUserRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	updates := make(map[string]interface{})
	if body.FullName != "" {
		updates["full_name"] = strings.TrimSpace(body.FullName)
	}
	if body.Phone != "" {
		updates["phone"] = strings.TrimSpace(body.Phone)
	}
	if body.Role != nil {
		if !body.Role.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + string(*body.Role)})
			return
		}
		updates["role"] = *body.Role
	}
	if body.IsActive != nil {
		// Admins cannot lock themselves out.
		if user.ID == currentUser.ID && !*body.IsActive {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate your own account"})
			return
		}
		updates["is_active"] = *body.IsActive
	}
	if body.ClientID != nil {
		updates["client_id"] = *body.ClientID
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}

func DeleteUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := utils.IDParam(ctx, "user_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if id == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Delete(&user).Error; err != nil {
		log.Printf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
