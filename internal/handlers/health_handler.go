package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is implemented by storage backends that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the health of the app and its dependencies.
type HealthHandler struct {
	db            Pinger
	eventsEnabled bool
}

// NewHealthHandler creates a HealthHandler. db may be nil for backends without a connection.
func NewHealthHandler(db Pinger, eventsEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, eventsEnabled: eventsEnabled}
}

func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when storage is reachable and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	database := "up"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status, database, code = "unhealthy", "down", fiber.StatusServiceUnavailable
		}
	}

	events := "disabled"
	if h.eventsEnabled {
		events = "enabled"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"time":     time.Now().UTC().Format(time.RFC3339),
		"database": database,
		"events":   events,
	})
}
