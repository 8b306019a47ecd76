package service

import (
	"context"
	"fmt"
	"time"

	"driver-location-be/internal/model"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/pkg/events"
	pktNats "driver-location-be/pkg/nats"
	"driver-location-be/pkg/pubsub"
)

const (
	DefaultHighFrequencyMs int64 = 1000
	DefaultLowFrequencyMs  int64 = 5000

	directiveConsumer = "directive-broadcaster"
)

// EventSubscriber is the slice of the NATS subscriber the broadcaster needs.
type EventSubscriber interface {
	Subscribe(durableName string, handler pktNats.EventHandler, subjects ...string) error
}

type DirectiveOptions struct {
	HighFrequencyMs int64
	LowFrequencyMs  int64
	PublishTimeout  time.Duration
}

type IDirectiveService interface {
	Start() error
	OnBusinessEvent(ctx context.Context, event events.Event) error
}

type directiveService struct {
	bus        pubsub.Bus
	subscriber EventSubscriber
	opts       DirectiveOptions
	logger     logger.ILogger
}

// NewDirectiveService builds the broadcaster. subscriber may be nil, in which
// case events only arrive through OnBusinessEvent.
func NewDirectiveService(bus pubsub.Bus, subscriber EventSubscriber, opts DirectiveOptions, log logger.ILogger) IDirectiveService {
	if opts.HighFrequencyMs <= 0 {
		opts.HighFrequencyMs = DefaultHighFrequencyMs
	}
	if opts.LowFrequencyMs <= 0 {
		opts.LowFrequencyMs = DefaultLowFrequencyMs
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	return &directiveService{
		bus:        bus,
		subscriber: subscriber,
		opts:       opts,
		logger:     log,
	}
}

// Start attaches the broadcaster to the trip lifecycle subjects.
func (s *directiveService) Start() error {
	if s.subscriber == nil {
		s.logger.Warn("DirectiveService", "No event subscriber configured, trip events via debug endpoint only", nil)
		return nil
	}

	subjects := []string{
		events.Subject(events.TypeTripMatched),
		events.Subject(events.TypeTripCompleted),
		events.Subject(events.TypeTripCanceled),
	}
	if err := s.subscriber.Subscribe(directiveConsumer, s.OnBusinessEvent, subjects...); err != nil {
		return fmt.Errorf("start directive broadcaster: %w", err)
	}
	s.logger.Info("DirectiveService", "Directive broadcaster started", map[string]interface{}{"subjects": subjects})
	return nil
}

// DirectiveFor maps a trip lifecycle event to the reporting directive.
// A matched trip speeds reporting up; completion or cancellation slows it down.
func DirectiveFor(eventType string, opts DirectiveOptions) (model.Directive, error) {
	switch eventType {
	case events.TypeTripMatched:
		return model.NewConfigUpdate(opts.HighFrequencyMs), nil
	case events.TypeTripCompleted, events.TypeTripCanceled:
		return model.NewConfigUpdate(opts.LowFrequencyMs), nil
	default:
		return model.Directive{}, fmt.Errorf("%w: %s", ErrUnknownEvent, eventType)
	}
}

// OnBusinessEvent publishes the matching directive to the driver's channel.
// Every failure is logged and swallowed: a directive is advisory, and
// redelivering it later would only confuse the client.
func (s *directiveService) OnBusinessEvent(ctx context.Context, event events.Event) error {
	typeCode := events.TypeCode(event)

	directive, err := DirectiveFor(typeCode, s.opts)
	if err != nil {
		s.logger.Warn("DirectiveService", "Ignoring event", map[string]interface{}{"type": typeCode, "error": err})
		return nil
	}

	driverID, ok := events.DriverID(event)
	if !ok {
		s.logger.Warn("DirectiveService", "Ignoring event", map[string]interface{}{"type": typeCode, "error": ErrEventMissingDriverID})
		return nil
	}

	payload, err := directive.Marshal()
	if err != nil {
		s.logger.Error("DirectiveService", "Failed to encode directive", map[string]interface{}{"driver_id": driverID, "error": err})
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.opts.PublishTimeout)
	defer cancel()

	channel := model.DirectiveChannel(driverID)
	receivers, err := s.bus.Publish(pubCtx, channel, payload)
	if err != nil {
		s.logger.Error("DirectiveService", "Failed to publish directive", map[string]interface{}{
			"driver_id": driverID,
			"channel":   channel,
			"error":     fmt.Errorf("%w: %w", ErrDirectiveNotPublished, err),
		})
		return nil
	}

	if receivers == 0 {
		s.logger.Info("DirectiveService", "Driver offline, directive dropped", map[string]interface{}{
			"driver_id": driverID,
			"type":      typeCode,
		})
		return nil
	}

	s.logger.Info("DirectiveService", "Directive published", map[string]interface{}{
		"driver_id":   driverID,
		"type":        typeCode,
		"interval_ms": directive.Payload.LocationIntervalMs,
		"receivers":   receivers,
	})
	return nil
}
