package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// healthPingTimeout bounds the database round trip of a health probe.
const healthPingTimeout = 2 * time.Second

// Pinger reports whether the coupon store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness probes for the coupon service.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler backed by db.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health. It answers 200 {"status":"healthy"} when the
// database responds within healthPingTimeout and 503 otherwise.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Msg("health check failed: database unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}
	return c.JSON(fiber.Map{"status": "healthy"})
}
