package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driver-location-be/internal/model"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/internal/repository/contract"
	"driver-location-be/pkg/events"
)

// EventEmitter publishes without waiting for delivery.
type EventEmitter interface {
	Emit(event events.Event) error
}

type IPresenceService interface {
	RecordPosition(ctx context.Context, driverID string, position model.Position) error
}

type presenceService struct {
	geoIndex contract.GeoIndexRepository
	liveness contract.LivenessRepository
	emitter  EventEmitter
	ttl      time.Duration
	logger   logger.ILogger
}

// NewPresenceService wires the write path. emitter may be nil.
func NewPresenceService(
	geoIndex contract.GeoIndexRepository,
	liveness contract.LivenessRepository,
	emitter EventEmitter,
	ttl time.Duration,
	log logger.ILogger,
) IPresenceService {
	return &presenceService{
		geoIndex: geoIndex,
		liveness: liveness,
		emitter:  emitter,
		ttl:      ttl,
		logger:   log,
	}
}

// RecordPosition writes the geo index and the liveness flag independently.
// Both writes are always attempted; a failure of one does not undo the other.
// Reads treat an index entry without a flag as stale, so a partial write heals
// on the next query.
func (s *presenceService) RecordPosition(ctx context.Context, driverID string, position model.Position) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	var errs []error
	if err := s.geoIndex.Upsert(ctx, model.DriverMember(driverID), position); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrPositionNotIndexed, err))
	}
	if err := s.liveness.SetAlive(ctx, driverID, s.ttl); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrLivenessNotRefreshed, err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.logger.Debug("PresenceService", "Driver position recorded", map[string]interface{}{
		"driver_id": driverID,
		"longitude": position.Longitude,
		"latitude":  position.Latitude,
	})

	if s.emitter != nil {
		evt := events.NewDriverLocationUpdated(driverID, position.Latitude, position.Longitude)
		if err := s.emitter.Emit(evt); err != nil {
			s.logger.Warn("PresenceService", "Failed to emit location event", map[string]interface{}{
				"driver_id": driverID,
				"error":     err,
			})
		}
	}
	return nil
}
