package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/auth"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/permissions"
)

// AuthenticatedUser is the identity stashed in the gin context after a
// request passes the auth guard.
type AuthenticatedUser struct {
	ID       uint        `json:"id"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	ClientID *uint       `json:"client_id,omitempty"`
}

const ContextUserKey = "user"

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func resolveUser(issuer *auth.Issuer, tokenString string) (*models.User, bool) {
	claims, err := issuer.Verify(tokenString, auth.TokenAccess)
	if err != nil {
		return nil, false
	}

	var user models.User
	if err := db.DB.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		return nil, false
	}
	if !user.IsActive {
		return nil, false
	}
	return &user, true
}

// AuthMiddleware rejects requests without a valid access token backed
// by an active, non-deleted user.
func AuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		user, ok := resolveUser(issuer, tokenString)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		ctx.Set(ContextUserKey, AuthenticatedUser{
			ID:       user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Role:     user.Role,
			ClientID: user.ClientID,
		})
		ctx.Next()
	}
}

// OptionalAuthMiddleware resolves an identity when a token is present
// but lets anonymous requests through.
func OptionalAuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tokenString, ok := bearerToken(ctx); ok {
			if user, ok := resolveUser(issuer, tokenString); ok {
				ctx.Set(ContextUserKey, AuthenticatedUser{
					ID:       user.ID,
					FullName: user.FullName,
					Email:    user.Email,
					Role:     user.Role,
					ClientID: user.ClientID,
				})
			}
		}
		ctx.Next()
	}
}

// RequirePermission gates a route on the permission matrix. Must run
// after AuthMiddleware.
func RequirePermission(perm permissions.Permission) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(ContextUserKey)
		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		user, ok := value.(AuthenticatedUser)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user in context"})
			return
		}

		if err := permissions.Require(user.Role, perm); err != nil {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		ctx.Next()
	}
}

// RequireRole gates a route on membership in allowed roles.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(ContextUserKey)
		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		user, ok := value.(AuthenticatedUser)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid user in context"})
			return
		}

		for _, role := range allowed {
			if user.Role == role {
				ctx.Next()
				return
			}
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied for role " + string(user.Role)})
	}
}
