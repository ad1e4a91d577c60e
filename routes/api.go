package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/handlers"
	"github.com/nightjar-records/pressroom/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	campaignHandler *handlers.CampaignHandler,
	webhookHandler *handlers.WebhookHandler,
	unsubscribeHandler *handlers.UnsubscribeHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public endpoints: the webhook authenticates through its envelope
	// signature, the unsubscribe pages through their signed token.
	e.POST("/webhooks/email-events", webhookHandler.HandleEmailEvents)
	e.GET("/unsubscribe", unsubscribeHandler.Confirm)
	e.POST("/unsubscribe", unsubscribeHandler.Submit)

	// API v1 base group
	v1 := e.Group("/api/v1")

	// Composer endpoints behind the internal shared secret
	campaigns := v1.Group("/campaigns", middlewares.InternalAuth(cfg.Auth))

	campaigns.GET("/enqueue", campaignHandler.Audience)
	campaigns.POST("/enqueue", campaignHandler.Enqueue)
	campaigns.POST("/drain", campaignHandler.Drain)
	campaigns.POST("/preview", campaignHandler.Preview)
	campaigns.GET("/:id/sent-cache", campaignHandler.SentCache)
	campaigns.GET("/:id/runs", campaignHandler.Runs)
}
