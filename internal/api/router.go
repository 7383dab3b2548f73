package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safepay/fraud-engine/internal/analytics"
	"github.com/safepay/fraud-engine/internal/auth"
	"github.com/safepay/fraud-engine/internal/lifecycle"
	"github.com/safepay/fraud-engine/internal/pipeline"
	"github.com/safepay/fraud-engine/internal/repositories"
	"github.com/safepay/fraud-engine/internal/services"
)

// Deps bundles everything the router mounts.
type Deps struct {
	JWT       *auth.JWTManager
	Auth      *services.AuthService
	Pipeline  *pipeline.Service
	Cards     *services.CardService
	Devices   *services.DeviceService
	Alerts    *repositories.AlertRepository
	Analytics *analytics.Service
	Lifecycle *lifecycle.Service
	DB        *repositories.Database
}

// SetupRoutes mounts the full API surface.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		payload := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
		}
		c.JSON(status, payload)
	})

	v1 := router.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", registerHandler(deps.Auth))
		authRoutes.POST("/login", loginHandler(deps.Auth))
	}

	// Evaluation endpoints are public: they are the engine's front door.
	evaluations := v1.Group("/evaluations")
	{
		evaluations.POST("", processHandler(deps.Pipeline))
		evaluations.POST("/manual", processManualHandler(deps.Pipeline))
	}

	protected := v1.Group("")
	protected.Use(auth.AuthMiddleware(deps.JWT))

	cardRoutes := protected.Group("/cards")
	{
		cardRoutes.POST("", createCardsHandler(deps.Cards))
		cardRoutes.GET("", listCardsHandler(deps.Cards))
		cardRoutes.GET("/:id", getCardHandler(deps.Cards))
		cardRoutes.PATCH("/:id/status", changeCardStatusHandler(deps.Cards))
		cardRoutes.DELETE("/:id", deleteCardHandler(deps.Cards))
		cardRoutes.GET("/:id/devices", listCardDevicesHandler(deps.Devices))
	}

	deviceRoutes := protected.Group("/devices")
	{
		deviceRoutes.POST("", createDeviceHandler(deps.Devices))
	}

	alertRoutes := protected.Group("/alerts")
	{
		alertRoutes.GET("", listAlertsHandler(deps.Alerts))
		alertRoutes.PATCH("/:id/status", updateAlertStatusHandler(deps.Alerts))
		alertRoutes.GET("/summary", alertSummaryHandler(deps.Analytics))
	}

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RoleMiddleware("admin"))
	{
		adminRoutes.POST("/reset", resetHandler(deps.Lifecycle))
	}
}
