package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/nightjar-records/pressroom/pkg/cache"
)

// HealthHandler handles health checks.
type HealthHandler struct {
	db           *sqlx.DB
	cache        *cache.Client
	checkTimeout time.Duration
}

func NewHealthHandler(db *sqlx.DB, cacheClient *cache.Client) *HealthHandler {
	return &HealthHandler{
		db:           db,
		cache:        cacheClient,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and component statuses. Campaign data lives in
// the hosted base, so the service stays "ok" without the ops database or the
// cache; they only degrade the status when configured but unreachable.
// @Summary Health check
// @Description Returns overall status with ops-database and cache connectivity results
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"

	dbStatus := "disabled"
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			dbStatus = "down"
			overallStatus = "degraded"
		} else {
			dbStatus = "up"
		}
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "down"
			overallStatus = "degraded"
		} else {
			cacheStatus = "up"
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": map[string]any{
				"status": dbStatus,
			},
			"cache": map[string]any{
				"status": cacheStatus,
			},
		},
	})
}
