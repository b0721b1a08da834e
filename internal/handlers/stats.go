package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
)

// StatsOverview is the landing dashboard: headline counts plus the SLA
// health of the live pipeline.
func StatsOverview(ctx *gin.Context) {
	var activeClients, openJDs, candidates, activeApplications int64

	if err := db.DB.Model(&models.Client{}).
		Where("status = ?", models.ClientActive).Count(&activeClients).Error; err != nil {
		log.Printf("Failed to count clients: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.DB.Model(&models.JobDescription{}).
		Where("status = ?", models.JDOpen).Count(&openJDs).Error; err != nil {
		log.Printf("Failed to count job descriptions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.DB.Model(&models.Candidate{}).Count(&candidates).Error; err != nil {
		log.Printf("Failed to count candidates: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	activeStatuses := []models.ApplicationStatus{
		models.AppSourced, models.AppScreened, models.AppSubmitted,
		models.AppInterviewing, models.AppOffered,
	}
	if err := db.DB.Model(&models.Application{}).
		Where("status IN ?", activeStatuses).Count(&activeApplications).Error; err != nil {
		log.Printf("Failed to count applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var atRisk, breached int64
	if err := db.DB.Model(&models.Application{}).
		Where("status IN ? AND sla_status = ?", activeStatuses, models.SLAAtRisk).
		Count(&atRisk).Error; err != nil {
		log.Printf("Failed to count at-risk applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.DB.Model(&models.Application{}).
		Where("status IN ? AND sla_status = ?", activeStatuses, models.SLABreached).
		Count(&breached).Error; err != nil {
		log.Printf("Failed to count breached applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var upcomingInterviews int64
	now := time.Now().UTC()
	if err := db.DB.Model(&models.Interview{}).
		Where("status IN ? AND scheduled_date BETWEEN ? AND ?",
			[]models.InterviewStatus{models.InterviewScheduled, models.InterviewRescheduled},
			now, now.AddDate(0, 0, 7)).
		Count(&upcomingInterviews).Error; err != nil {
		log.Printf("Failed to count upcoming interviews: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"active_clients":      activeClients,
		"open_jds":            openJDs,
		"candidates":          candidates,
		"active_applications": activeApplications,
		"sla": gin.H{
			"at_risk":  atRisk,
			"breached": breached,
		},
		"upcoming_interviews": upcomingInterviews,
	})
}

// PipelineFunnel reports how many applications ever reached each stage
// and the stage-to-stage conversion rates. Reached-stage counts come
// from the history trail, so applications that moved past a stage still
// count for it.
func PipelineFunnel(ctx *gin.Context) {
	stages := []models.ApplicationStatus{
		models.AppSourced, models.AppScreened, models.AppSubmitted,
		models.AppInterviewing, models.AppOffered, models.AppJoined,
	}

	jdID := ctx.Query("jd_id")
	stageQuery := func() *gorm.DB {
		q := db.DB.Model(&models.ApplicationStatusHistory{})
		if jdID != "" {
			q = q.Joins("JOIN applications ON applications.id = application_status_histories.application_id").
				Where("applications.jd_id = ?", jdID)
		}
		return q
	}

	reached := make(map[models.ApplicationStatus]int64, len(stages))
	for _, stage := range stages {
		var count int64
		if err := stageQuery().
			Where("application_status_histories.to_status = ?", stage).
			Distinct("application_status_histories.application_id").
			Count(&count).Error; err != nil {
			log.Printf("Failed to aggregate funnel stage %s: %v", stage, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		reached[stage] = count
	}

	type funnelStage struct {
		Stage          models.ApplicationStatus `json:"stage"`
		Reached        int64                    `json:"reached"`
		ConversionRate float64                  `json:"conversion_rate"`
	}

	funnel := make([]funnelStage, 0, len(stages))
	for i, stage := range stages {
		rate := 0.0
		if i == 0 {
			if reached[stage] > 0 {
				rate = 100.0
			}
		} else if prev := reached[stages[i-1]]; prev > 0 {
			rate = float64(reached[stage]) / float64(prev) * 100.0
		}
		funnel = append(funnel, funnelStage{
			Stage:          stage,
			Reached:        reached[stage],
			ConversionRate: rate,
		})
	}

	var rejected, withdrawn int64
	if err := db.DB.Model(&models.Application{}).
		Where("status = ?", models.AppRejected).Count(&rejected).Error; err != nil {
		log.Printf("Failed to count rejected applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := db.DB.Model(&models.Application{}).
		Where("status = ?", models.AppWithdrawn).Count(&withdrawn).Error; err != nil {
		log.Printf("Failed to count withdrawn applications: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"funnel":    funnel,
		"rejected":  rejected,
		"withdrawn": withdrawn,
	})
}
