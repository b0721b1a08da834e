package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/pipeline"
	"github.com/outsourceats/hirex/internal/utils"
)

type PortalFeedbackRequest struct {
	// approve, reject or hold
	Decision string `json:"decision" binding:"required"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

// portalClientID resolves which client the caller may see. Client
// users are pinned to their own company; internal roles address one
// via the client_id path parameter.
func portalClientID(ctx *gin.Context) (uint, bool) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}

	if currentUser.Role == models.RoleClient {
		if currentUser.ClientID == nil {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Account is not linked to a client"})
			return 0, false
		}
		return *currentUser.ClientID, true
	}

	id, err := utils.IDParam(ctx, "client_id")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}

// PortalDashboard summarizes the client's open positions and the
// candidates currently with them.
func PortalDashboard(ctx *gin.Context) {
	clientID, ok := portalClientID(ctx)
	if !ok {
		return
	}

	var client models.Client
	if err := db.DB.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		} else {
			log.Printf("Failed to fetch client: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var jds []models.JobDescription
	if err := db.DB.Where("client_id = ? AND status = ?", clientID, models.JDOpen).
		Find(&jds).Error; err != nil {
		log.Printf("Failed to fetch job descriptions: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	jdIDs := make([]uint, 0, len(jds))
	for _, jd := range jds {
		jdIDs = append(jdIDs, jd.ID)
	}

	counts := map[string]int64{}
	if len(jdIDs) > 0 {
		type statusCount struct {
			Status models.ApplicationStatus
			Count  int64
		}
		var rows []statusCount
		if err := db.DB.Model(&models.Application{}).
			Select("status, count(*) as count").
			Where("jd_id IN ?", jdIDs).
			Group("status").Scan(&rows).Error; err != nil {
			log.Printf("Failed to aggregate applications: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		for _, row := range rows {
			counts[string(row.Status)] = row.Count
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"client":             client,
		"open_positions":     jds,
		"application_counts": counts,
	})
}

// PortalCandidates lists the candidates submitted to the client,
// without internal-only fields like screening notes or ratings.
func PortalCandidates(ctx *gin.Context) {
	clientID, ok := portalClientID(ctx)
	if !ok {
		return
	}

	p := paginationParams(ctx)

	query := db.DB.Model(&models.Application{}).
		Joins("JOIN job_descriptions ON job_descriptions.id = applications.jd_id").
		Where("job_descriptions.client_id = ?", clientID).
		Where("applications.status IN ?", []models.ApplicationStatus{
			models.AppSubmitted, models.AppInterviewing, models.AppOffered, models.AppJoined,
		})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("Failed to count portal candidates: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var apps []models.Application
	if err := query.Order("applications.id desc").
		Offset(p.Offset()).Limit(p.PageSize).Find(&apps).Error; err != nil {
		log.Printf("Failed to list portal candidates: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	type portalCandidate struct {
		ApplicationID uint                     `json:"application_id"`
		Status        models.ApplicationStatus `json:"status"`
		CandidateName string                   `json:"candidate_name"`
		Designation   string                   `json:"current_designation,omitempty"`
		Experience    *float64                 `json:"total_experience,omitempty"`
		JDCode        string                   `json:"jd_code"`
		JDTitle       string                   `json:"jd_title"`
	}

	items := make([]portalCandidate, 0, len(apps))
	for _, app := range apps {
		var candidate models.Candidate
		if err := db.DB.First(&candidate, app.CandidateID).Error; err != nil {
			continue
		}
		var jd models.JobDescription
		if err := db.DB.First(&jd, app.JDID).Error; err != nil {
			continue
		}
		items = append(items, portalCandidate{
			ApplicationID: app.ID,
			Status:        app.Status,
			CandidateName: candidate.FullName(),
			Designation:   candidate.CurrentDesignation,
			Experience:    candidate.TotalExperience,
			JDCode:        jd.JDCode,
			JDTitle:       jd.Title,
		})
	}

	ctx.JSON(http.StatusOK, listEnvelope(items, total, p))
}

// PortalFeedback records the client's verdict on a submitted candidate:
// approve moves them to interviews, reject closes the application, hold
// parks them without a status change.
func PortalFeedback(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	app, ok := findApplication(ctx)
	if !ok {
		return
	}

	// Client users may only give feedback on their own company's JDs;
	// internal roles record feedback relayed out-of-band.
	var jd models.JobDescription
	if err := db.DB.First(&jd, app.JDID).Error; err != nil {
		log.Printf("Failed to fetch job description: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if currentUser.Role == models.RoleClient {
		if currentUser.ClientID == nil || jd.ClientID != *currentUser.ClientID {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Application does not belong to this client"})
			return
		}
	}

	if app.Status != models.AppSubmitted {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Feedback is only accepted for submitted candidates"})
		return
	}

	var body PortalFeedbackRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	switch body.Decision {
	case "approve":
		if !runTransition(ctx, app, pipeline.Request{
			To:    models.AppInterviewing,
			Notes: body.Notes,
		}) {
			return
		}
	case "reject":
		if body.Reason == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
			return
		}
		if !runTransition(ctx, app, pipeline.Request{
			To:              models.AppRejected,
			Notes:           body.Notes,
			RejectionReason: body.Reason,
			RejectionStage:  "client_screening",
		}) {
			return
		}
	case "hold":
		if err := db.DB.Model(app).Update("substatus", "client_hold").Error; err != nil {
			log.Printf("Failed to hold application: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be approve, reject or hold"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"application": applicationResponse(app)})
}
