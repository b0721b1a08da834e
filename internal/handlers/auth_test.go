package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/auth"
	"github.com/outsourceats/hirex/internal/middleware"
	"github.com/outsourceats/hirex/internal/models"
)

func seedUser(t *testing.T, email, password string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		FullName:     "Riley Recruiter",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleRecruiter,
		IsActive:     true,
	}
	require.NoError(t, db.DB.Create(&user).Error)
	return user
}

// authTestRouter wires the real token issuer; only the identity for the
// authenticated routes is stubbed.
func authTestRouter(t *testing.T, user middleware.AuthenticatedUser) *gin.Engine {
	t.Helper()

	iss, err := auth.NewIssuer("handler-test-secret", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	SetIssuer(iss)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", Login)

	authed := r.Group("", func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserKey, user)
		ctx.Next()
	})
	authed.POST("/auth/change-password", ChangePassword)

	return r
}

func TestLoginVerifiesCredentials(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "riley@example.com", "correct horse battery")
	r := authTestRouter(t, middleware.AuthenticatedUser{})

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "riley@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		AccessToken  string       `json:"access_token"`
		RefreshToken string       `json:"refresh_token"`
		User         UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.AccessToken)
	assert.NotEmpty(t, body.RefreshToken)
	assert.Equal(t, user.ID, body.User.ID)

	// The wrong password must fail, and so must the stored hash itself:
	// only the plaintext the user typed may authenticate.
	for _, password := range []string{"wrong password", user.PasswordHash} {
		w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
			"email":    "riley@example.com",
			"password": password,
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code, "password %q", password)
	}
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "riley@example.com", "correct horse battery")
	require.NoError(t, db.DB.Model(&user).Update("is_active", false).Error)
	r := authTestRouter(t, middleware.AuthenticatedUser{})

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"email":    "riley@example.com",
		"password": "correct horse battery",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordChecksCurrentPassword(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "riley@example.com", "old password 123")
	r := authTestRouter(t, middleware.AuthenticatedUser{
		ID: user.ID, FullName: user.FullName, Email: user.Email, Role: user.Role,
	})

	w := doJSON(t, r, http.MethodPost, "/auth/change-password", gin.H{
		"current_password": "not the password",
		"new_password":     "new password 456",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/change-password", gin.H{
		"current_password": "old password 123",
		"new_password":     "new password 456",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, db.DB.First(&user, user.ID).Error)
	assert.True(t, auth.VerifyPassword("new password 456", user.PasswordHash))
	assert.False(t, auth.VerifyPassword("old password 123", user.PasswordHash))
}
