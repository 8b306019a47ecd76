package websocket

import (
	"context"

	"driver-location-be/internal/pkg/logger"
	"driver-location-be/pkg/pubsub"
)

// Gateway turns accepted connections into registered sessions.
type Gateway struct {
	hub      *Hub
	bus      pubsub.Bus
	recorder PositionRecorder
	cfg      SessionConfig
	logger   logger.ILogger
}

func NewGateway(hub *Hub, bus pubsub.Bus, recorder PositionRecorder, cfg SessionConfig, log logger.ILogger) *Gateway {
	return &Gateway{
		hub:      hub,
		bus:      bus,
		recorder: recorder,
		cfg:      cfg,
		logger:   log,
	}
}

func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Serve runs a session for conn until it closes. It blocks, so the caller's
// goroutine becomes the session's read loop.
func (g *Gateway) Serve(ctx context.Context, conn Conn, driverID string) {
	session := NewSession(conn, driverID, g.bus, g.recorder, g.cfg, g.logger)
	g.hub.Register(session)
	defer g.hub.Unregister(session)

	session.Run(ctx)
}
