package handler

import (
	"context"
	"time"

	"driver-location-be/internal/dto"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/internal/pkg/serverutils"
	"driver-location-be/internal/service"
	internalWS "driver-location-be/internal/websocket"
	"driver-location-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventPublisher puts trip events on the durable bus.
type EventPublisher interface {
	Connected() bool
	Publish(ctx context.Context, event events.Event) error
}

type LocationWSHandler struct {
	// ctx outlives requests; cancelling it closes every session.
	ctx       context.Context
	gateway   *internalWS.Gateway
	publisher EventPublisher
	directive service.IDirectiveService
	logger    logger.ILogger
}

func NewLocationWSHandler(
	ctx context.Context,
	gateway *internalWS.Gateway,
	publisher EventPublisher,
	directive service.IDirectiveService,
	log logger.ILogger,
) *LocationWSHandler {
	return &LocationWSHandler{
		ctx:       ctx,
		gateway:   gateway,
		publisher: publisher,
		directive: directive,
		logger:    log,
	}
}

// ServeWs upgrades /ws/location/:driverId. A missing id is rejected with 400
// before upgrade.
func (h *LocationWSHandler) ServeWs(c *fiber.Ctx) error {
	driverID, err := internalWS.ParseDriverID(c.Path())
	if err != nil {
		h.logger.Warn("LocationWSHandler", "Rejected handshake without driver id", map[string]interface{}{"path": c.Path()})
		return fiber.NewError(fiber.StatusBadRequest, "driver id is required")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("LocationWSHandler", "Starting WebSocket session", map[string]interface{}{"driver_id": driverID})
		h.gateway.Serve(h.ctx, conn, driverID)
		h.logger.Info("LocationWSHandler", "WebSocket session ended", map[string]interface{}{"driver_id": driverID})
	})(c)
}

// DebugTripEvent injects a trip lifecycle event. It goes through NATS when
// connected so the durable consumer path is exercised, otherwise straight to
// the broadcaster.
func (h *LocationWSHandler) DebugTripEvent(c *fiber.Ctx) error {
	var req dto.TripEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	evt := events.NewTripEvent(req.Type, req.DriverID)
	// Sessions on other instances are not visible here.
	local := h.gateway.Hub().Connected(req.DriverID)

	if h.publisher != nil && h.publisher.Connected() {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		if err := h.publisher.Publish(ctx, evt); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(serverutils.SuccessResponse("Event published", fiber.Map{"type": req.Type, "driver_id": req.DriverID, "via": "nats", "local_session": local}))
	}

	if err := h.directive.OnBusinessEvent(c.UserContext(), evt); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Event dispatched", fiber.Map{"type": req.Type, "driver_id": req.DriverID, "via": "direct", "local_session": local}))
}

func (h *LocationWSHandler) RegisterRoutes(app fiber.Router, api fiber.Router) {
	app.Get(internalWS.LocationPath, h.ServeWs)
	app.Get(internalWS.LocationPath+"/*", h.ServeWs)

	debug := api.Group("/debug")
	debug.Post("/trip-events", h.DebugTripEvent)
}
