package handler

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/deppfellow/company-api/internal/middleware"
	"github.com/deppfellow/company-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HealthHandler serves GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth pings the dependencies named in the health check config.
// Redis is skipped when it is not configured.
//
// It answers 200 with status "healthy" when every check passes, 200 with
// "degraded" when only Redis fails (synchronous routes keep working), and
// 503 with "unhealthy" when the database is unreachable.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	ctx := c.Request().Context()

	cfg := h.server.Config.Observability.HealthChecks

	var dbErr, redisErr error
	if slices.Contains(cfg.Checks, "database") {
		dbErr = h.check(ctx, &logger, cfg.Timeout, checks, "database", h.server.DB.Pool.Ping)
	}
	if h.server.Redis != nil && slices.Contains(cfg.Checks, "redis") {
		redisErr = h.check(ctx, &logger, cfg.Timeout, checks, "redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	status := http.StatusOK
	switch {
	case dbErr != nil:
		response["status"] = "unhealthy"
		status = http.StatusServiceUnavailable
	case redisErr != nil:
		response["status"] = "degraded"
	}

	if status != http.StatusOK {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		h.recordHealthEvent(map[string]any{
			"check_type":        "overall",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
	} else {
		logger.Info().Dur("total_duration", time.Since(start)).Msg("health check passed")
	}

	if err := c.JSON(status, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// check runs one ping bounded by timeout and records its outcome under name
// in checks.
func (h *HealthHandler) check(ctx context.Context, logger *zerolog.Logger, timeout time.Duration, checks map[string]any, name string, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pingStart := time.Now()
	err := ping(ctx)
	elapsed := time.Since(pingStart)

	if err != nil {
		checks[name] = map[string]any{
			"status":        "unhealthy",
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		logger.Error().
			Err(err).
			Dur("response_time", elapsed).
			Msgf("%s health check failed", name)

		h.recordHealthEvent(map[string]any{
			"check_type":       name,
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return err
	}

	checks[name] = map[string]any{
		"status":        "healthy",
		"response_time": elapsed.String(),
	}

	logger.Debug().
		Dur("response_time", elapsed).
		Msgf("%s health check passed", name)

	return nil
}

// recordHealthEvent sends a HealthCheckError custom event when New Relic is
// enabled.
func (h *HealthHandler) recordHealthEvent(attrs map[string]any) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}
	attrs["operation"] = "health_check"
	app.RecordCustomEvent("HealthCheckError", attrs)
}
