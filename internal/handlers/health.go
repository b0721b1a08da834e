package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outsourceats/hirex/db"
)

func HealthCheck(ctx *gin.Context) {
	sqlDB, err := db.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
	})
}
