package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brainmetric/quiz-service/internal/config"
	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/services"
	"github.com/brainmetric/quiz-service/internal/telegram"
	"github.com/brainmetric/quiz-service/internal/utils"
)

type HandlerManager struct {
	testHandler       *TestHandler
	resultHandler     *ResultHandler
	profileHandler    *ProfileHandler
	invitationHandler *InvitationHandler
	dashboardHandler  *DashboardHandler
	telegramHandler   *TelegramHandler
	authMiddleware    *CasdoorAuthMiddleware
	serviceManager    services.ServiceManager
	cookieSecure      bool
}

// NewHandlerManager wires every handler. bot may be nil when Telegram is not configured.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	cfg *config.Config,
	userRepo repositories.UserRepository,
	bot *telegram.Bot,
) *HandlerManager {
	hm := &HandlerManager{
		testHandler:       NewTestHandler(serviceManager.Test(), serviceManager.Attempt(), logger, cfg.LoginURL),
		resultHandler:     NewResultHandler(serviceManager.Result(), logger),
		profileHandler:    NewProfileHandler(serviceManager.Profile(), serviceManager.Result(), logger),
		invitationHandler: NewInvitationHandler(serviceManager.Invitation(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:    NewCasdoorAuthMiddleware(cfg.Casdoor, userRepo, logger),
		serviceManager:    serviceManager,
		cookieSecure:      cfg.CookieSecure,
	}
	if bot != nil {
		hm.telegramHandler = NewTelegramHandler(bot, cfg.Telegram.WebhookSecret, logger)
	}
	return hm
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	auth := hm.authMiddleware

	v1 := router.Group("/api/v1")
	v1.Use(ClientSessionMiddleware(hm.cookieSecure))
	{
		// Anonymous visitors may take tests, see their own results and open invitations
		public := v1.Group("")
		public.Use(auth.OptionalAuthMiddleware())
		{
			public.GET("/tests", hm.testHandler.ListTests)
			public.GET("/tests/:id", hm.testHandler.GetCurrentQuestion)
			public.POST("/tests/:id", hm.testHandler.Navigate)
			public.DELETE("/tests/:id", hm.testHandler.ResetAttempt)

			public.GET("/results/:id", hm.resultHandler.GetResult)
			public.GET("/invitations/:token", hm.invitationHandler.OpenInvitation)
		}

		private := v1.Group("")
		private.Use(auth.AuthMiddleware())
		{
			profile := private.Group("/profile")
			{
				profile.GET("", hm.profileHandler.GetProfile)
				profile.PUT("", hm.profileHandler.UpdateProfile)
				profile.GET("/results", hm.profileHandler.ListMyResults)
				profile.POST("/telegram-code", hm.profileHandler.IssueTelegramCode)
			}

			// plan checks happen in the service
			hr := private.Group("/hr")
			{
				hr.POST("/invitations", hm.invitationHandler.CreateInvitation)
				hr.GET("/invitations", hm.invitationHandler.ListInvitations)
			}

			private.POST("/results/:id/regenerate", auth.RequireRoleMiddleware(models.RoleAdmin), hm.resultHandler.RegenerateAnalysis)

			dashboard := private.Group("/admin/dashboard")
			dashboard.Use(auth.RequireRoleMiddleware(models.RoleAdmin))
			{
				dashboard.GET("/stats", hm.dashboardHandler.GetDashboardStats)
				dashboard.GET("/activity-trends", hm.dashboardHandler.GetActivityTrends)
				dashboard.GET("/question-distribution", hm.dashboardHandler.GetQuestionDistribution)
				dashboard.GET("/category-accuracy", hm.dashboardHandler.GetCategoryAccuracy)
			}
		}
	}

	if hm.telegramHandler != nil {
		router.POST("/webhook/telegram", hm.telegramHandler.Webhook)
	}

	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "quiz-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
