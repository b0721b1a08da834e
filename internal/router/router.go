package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/outsourceats/hirex/internal/auth"
	"github.com/outsourceats/hirex/internal/config"
	"github.com/outsourceats/hirex/internal/handlers"
	"github.com/outsourceats/hirex/internal/middleware"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/permissions"
)

func NewRouter(cfg *config.Config, issuer *auth.Issuer) *gin.Engine {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authn := middleware.AuthMiddleware(issuer)
	perm := middleware.RequirePermission

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/activity", authn, handlers.ActivityWebSocket)

		setup := api.Group("/setup")
		{
			setup.GET("/status", middleware.OptionalAuthMiddleware(issuer), handlers.SetupStatus)
			setup.POST("/admin", handlers.SetupAdmin)
		}

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", handlers.Login)
			authGroup.POST("/refresh", handlers.RefreshToken)
			authGroup.POST("/logout", authn, handlers.Logout)
			authGroup.GET("/me", authn, handlers.Me)
			authGroup.PATCH("/me", authn, handlers.UpdateProfile)
			authGroup.POST("/change-password", authn, handlers.ChangePassword)
		}

		users := api.Group("/users", authn)
		{
			users.POST("", perm(permissions.CreateUser), handlers.CreateUser)
			users.GET("", perm(permissions.ViewUser), handlers.ListUsers)
			users.GET("/:user_id", perm(permissions.ViewUser), handlers.GetUser)
			users.PATCH("/:user_id", perm(permissions.UpdateUser), handlers.UpdateUser)
			users.DELETE("/:user_id", perm(permissions.DeleteUser), handlers.DeleteUser)
		}

		clients := api.Group("/clients", authn)
		{
			clients.POST("", perm(permissions.CreateClient), handlers.CreateClient)
			clients.GET("", perm(permissions.ViewClient), handlers.ListClients)
			clients.GET("/:client_id", perm(permissions.ViewClient), handlers.GetClient)
			clients.PATCH("/:client_id", perm(permissions.UpdateClient), handlers.UpdateClient)
			clients.DELETE("/:client_id", perm(permissions.DeleteClient), handlers.DeleteClient)

			clients.POST("/:client_id/contacts", perm(permissions.UpdateClient), handlers.AddClientContact)
			clients.DELETE("/:client_id/contacts/:contact_id", perm(permissions.UpdateClient), handlers.DeleteClientContact)
		}

		pitches := api.Group("/pitches", authn)
		{
			pitches.POST("", perm(permissions.CreatePitch), handlers.CreatePitch)
			pitches.GET("", perm(permissions.ViewPitch), handlers.ListPitches)
			pitches.GET("/:pitch_id", perm(permissions.ViewPitch), handlers.GetPitch)
			pitches.PATCH("/:pitch_id", perm(permissions.UpdatePitch), handlers.UpdatePitch)
			pitches.DELETE("/:pitch_id", perm(permissions.DeletePitch), handlers.DeletePitch)
			pitches.POST("/:pitch_id/send", perm(permissions.SendPitch), handlers.SendPitch)
			pitches.POST("/:pitch_id/decision", perm(permissions.ApprovePitch), handlers.DecidePitch)
			pitches.POST("/:pitch_id/convert", perm(permissions.CreateJD), handlers.ConvertPitch)
		}

		jds := api.Group("/jds", authn)
		{
			jds.POST("", perm(permissions.CreateJD), handlers.CreateJD)
			jds.GET("", perm(permissions.ViewJD), handlers.ListJDs)
			jds.GET("/:jd_id", perm(permissions.ViewJD), handlers.GetJD)
			jds.PATCH("/:jd_id", perm(permissions.UpdateJD), handlers.UpdateJD)
			jds.PATCH("/:jd_id/status", perm(permissions.UpdateJD), handlers.UpdateJDStatus)
			jds.POST("/:jd_id/assign", perm(permissions.AssignJD), handlers.AssignRecruiter)
			jds.DELETE("/:jd_id", perm(permissions.DeleteJD), handlers.DeleteJD)
		}

		candidates := api.Group("/candidates", authn)
		{
			candidates.POST("", perm(permissions.CreateCandidate), handlers.CreateCandidate)
			candidates.GET("", perm(permissions.ViewCandidate), handlers.ListCandidates)
			candidates.GET("/:candidate_id", perm(permissions.ViewCandidate), handlers.GetCandidate)
			candidates.PATCH("/:candidate_id", perm(permissions.UpdateCandidate), handlers.UpdateCandidate)
			candidates.DELETE("/:candidate_id", perm(permissions.DeleteCandidate), handlers.DeleteCandidate)

			candidates.POST("/:candidate_id/resume", perm(permissions.UploadResume), handlers.UploadResume)
			candidates.GET("/:candidate_id/resume", perm(permissions.ViewCandidate), handlers.DownloadResume)
		}

		applications := api.Group("/applications", authn)
		{
			applications.POST("", perm(permissions.CreateApplication), handlers.CreateApplication)
			applications.GET("", perm(permissions.ViewApplication), handlers.ListApplications)
			applications.GET("/:application_id", perm(permissions.ViewApplication), handlers.GetApplication)
			applications.PATCH("/:application_id", perm(permissions.UpdateApplication), handlers.UpdateApplication)
			applications.PATCH("/:application_id/status", perm(permissions.UpdateApplication), handlers.UpdateApplicationStatus)
			applications.POST("/:application_id/submit", perm(permissions.SubmitApplication), handlers.SubmitApplication)
			applications.POST("/:application_id/reject", perm(permissions.UpdateApplication), handlers.RejectApplication)
			applications.POST("/:application_id/withdraw", perm(permissions.UpdateApplication), handlers.WithdrawApplication)
			applications.GET("/:application_id/history", perm(permissions.ViewApplication), handlers.GetApplicationHistory)
			applications.DELETE("/:application_id", perm(permissions.DeleteApplication), handlers.DeleteApplication)
		}

		interviews := api.Group("/interviews", authn)
		{
			interviews.POST("", perm(permissions.CreateInterview), handlers.ScheduleInterview)
			interviews.GET("", perm(permissions.ViewInterview), handlers.ListInterviews)
			interviews.GET("/:interview_id", perm(permissions.ViewInterview), handlers.GetInterview)
			interviews.POST("/:interview_id/reschedule", perm(permissions.UpdateInterview), handlers.RescheduleInterview)
			interviews.POST("/:interview_id/complete", perm(permissions.UpdateInterview), handlers.CompleteInterview)
			interviews.POST("/:interview_id/feedback", perm(permissions.SubmitFeedback), handlers.SubmitInterviewFeedback)
			interviews.POST("/:interview_id/cancel", perm(permissions.UpdateInterview), handlers.CancelInterview)
			interviews.DELETE("/:interview_id", perm(permissions.DeleteInterview), handlers.DeleteInterview)
		}

		offers := api.Group("/offers", authn)
		{
			offers.POST("", perm(permissions.CreateOffer), handlers.CreateOffer)
			offers.GET("", perm(permissions.ViewOffer), handlers.ListOffers)
			offers.GET("/:offer_id", perm(permissions.ViewOffer), handlers.GetOffer)
			offers.PATCH("/:offer_id", perm(permissions.UpdateOffer), handlers.UpdateOffer)
			offers.POST("/:offer_id/send", perm(permissions.SendOffer), handlers.SendOffer)
			offers.PATCH("/:offer_id/status", perm(permissions.UpdateOffer), handlers.UpdateOfferStatus)
			offers.POST("/:offer_id/revise", perm(permissions.CreateOffer), handlers.ReviseOffer)
			offers.DELETE("/:offer_id", perm(permissions.DeleteOffer), handlers.DeleteOffer)
		}

		joinings := api.Group("/joinings", authn)
		{
			joinings.POST("", perm(permissions.CreateJoining), handlers.CreateJoining)
			joinings.GET("", perm(permissions.ViewJoining), handlers.ListJoinings)
			joinings.GET("/:joining_id", perm(permissions.ViewJoining), handlers.GetJoining)
			joinings.PATCH("/:joining_id", perm(permissions.UpdateJoining), handlers.UpdateJoining)
			joinings.PATCH("/:joining_id/status", perm(permissions.UpdateJoining), handlers.UpdateJoiningStatus)
			joinings.POST("/:joining_id/replacement", perm(permissions.CreateApplication), handlers.InitiateReplacement)
		}

		portal := api.Group("/portal", authn)
		{
			// Client-scoped views: client users see their own company,
			// internal roles address a client explicitly.
			portal.GET("/dashboard", middleware.RequireRole(models.RoleClient), handlers.PortalDashboard)
			portal.GET("/candidates", middleware.RequireRole(models.RoleClient), handlers.PortalCandidates)
			portal.GET("/clients/:client_id/dashboard", perm(permissions.ViewClient), handlers.PortalDashboard)
			portal.GET("/clients/:client_id/candidates", perm(permissions.ViewClient), handlers.PortalCandidates)
			portal.POST("/applications/:application_id/feedback", perm(permissions.ViewApplication), handlers.PortalFeedback)
		}

		stats := api.Group("/stats", authn)
		{
			stats.GET("/overview", perm(permissions.ViewReports), handlers.StatsOverview)
			stats.GET("/funnel", perm(permissions.ViewReports), handlers.PipelineFunnel)
		}
	}

	return r
}
