package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/outsourceats/hirex/internal/middleware"
	"github.com/outsourceats/hirex/internal/pipeline"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(middleware.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, errors.New("User not authenticated")
	}

	user, ok := value.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, errors.New("Invalid user type in context")
	}

	return user, nil
}

// Actor converts the authenticated user into the attribution the
// transition handler records.
func Actor(ctx *gin.Context) (pipeline.Actor, error) {
	user, err := GetCurrentUser(ctx)
	if err != nil {
		return pipeline.Actor{}, err
	}
	return pipeline.Actor{ID: user.ID, Name: user.FullName}, nil
}

// IDParam parses the named path parameter as an unsigned ID.
func IDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New("Missing " + name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + name)
	}

	return uint(id), nil
}
