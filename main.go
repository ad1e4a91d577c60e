package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nightjar-records/pressroom/environments"
	"github.com/nightjar-records/pressroom/handlers"
	"github.com/nightjar-records/pressroom/internal/middlewares"
	"github.com/nightjar-records/pressroom/internal/repository"
	"github.com/nightjar-records/pressroom/internal/service"
	"github.com/nightjar-records/pressroom/pkg/base"
	"github.com/nightjar-records/pressroom/pkg/cache"
	"github.com/nightjar-records/pressroom/pkg/database"
	"github.com/nightjar-records/pressroom/pkg/logger"
	"github.com/nightjar-records/pressroom/pkg/mailer"
	"github.com/nightjar-records/pressroom/pkg/token"
	"github.com/nightjar-records/pressroom/pkg/validator"
	"github.com/nightjar-records/pressroom/routes"

	_ "github.com/nightjar-records/pressroom/docs" // swagger docs
)

// @title Pressroom API
// @version 1.0
// @description Press-outreach campaign service for Nightjar Records

// @contact.name Nightjar Records

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}

	// Load config; missing secrets fail here, before anything is wired up.
	cfg, err := environments.Load()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	logger.Infof("Starting Pressroom...")

	// Clients for the hosted base and the email provider
	baseClient := base.NewClient(cfg.Base)
	mailClient := mailer.NewClient(cfg.Email)

	// Ops database is optional: it only backs drain-run audit rows.
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Warnf("Ops database not available, drain-run history disabled: %v", err)
		db = nil
	} else if err := database.RunMigrations(db); err != nil {
		logger.Warnf("Ops database migrations failed, drain-run history disabled: %v", err)
		db.Close()
		db = nil
	}

	// Cache is optional as well: it only backs the recently-sent view.
	cacheClient, err := cache.NewClient(cfg.Cache)
	if err != nil {
		logger.Warnf("Cache not available, recently-sent view disabled: %v", err)
		cacheClient = nil
	}

	signer := token.NewSigner(cfg.Unsubscribe.Secret)

	campaignService := service.NewCampaignService(baseClient, mailClient, signer, cfg.Campaign)
	if db != nil {
		campaignService.SetRunRecorder(repository.NewRunRepository(db))
	}
	if cacheClient != nil {
		campaignService.SetSentCache(cacheClient)
	}
	webhookService := service.NewWebhookService(baseClient)
	unsubscribeService := service.NewUnsubscribeService(baseClient, signer)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cacheClient)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	webhookHandler := handlers.NewWebhookHandler(webhookService, cfg.Webhook.SigningSecret)
	unsubscribeHandler := handlers.NewUnsubscribeHandler(unsubscribeService)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, campaignHandler, webhookHandler, unsubscribeHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	if db != nil {
		logger.Infof("Closing ops database connection...")
		if err := db.Close(); err != nil {
			logger.Errorf("Error closing ops database: %v", err)
		}
	}

	if cacheClient != nil {
		logger.Infof("Closing cache connection...")
		if err := cacheClient.Close(); err != nil {
			logger.Errorf("Error closing cache: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
