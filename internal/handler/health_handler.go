package handler

import (
	"context"
	"time"

	"driver-location-be/internal/dto"
	"driver-location-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks one backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports open WebSocket sessions.
type SessionCounter interface {
	ActiveCount() int
}

type HealthHandler struct {
	storeDriver string
	stores      map[string]Pinger
	sessions    SessionCounter
}

func NewHealthHandler(storeDriver string, stores map[string]Pinger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{storeDriver: storeDriver, stores: stores, sessions: sessions}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	res := dto.HealthResponse{
		Status:         "ok",
		StoreDriver:    h.storeDriver,
		ActiveSessions: h.sessions.ActiveCount(),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	res.Redis = "ok"
	if len(h.stores) == 0 {
		res.Redis = ""
	}
	for name, store := range h.stores {
		if err := store.Ping(ctx); err != nil {
			res.Status = "degraded"
			res.Redis = name + ": " + err.Error()
			break
		}
	}

	if res.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(&serverutils.BaseResponse{
			Success: false,
			Code:    fiber.StatusServiceUnavailable,
			Message: "Service degraded",
			Data:    res,
		})
	}
	return c.JSON(serverutils.SuccessResponse("Service healthy", res))
}

func (h *HealthHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/health", h.Health)
}
