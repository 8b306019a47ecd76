package service

import (
	"context"
	"fmt"
	"time"

	"driver-location-be/internal/model"
	"driver-location-be/internal/pkg/logger"
	"driver-location-be/internal/repository/contract"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultSearchLimit          = 50
	DefaultLivenessConcurrency  = 10
	DefaultLivenessCheckTimeout = 200 * time.Millisecond
)

type NearbyQuery struct {
	Center   model.Position
	RadiusKm float64
	Limit    int // <= 0 uses the configured default
}

type ProximityOptions struct {
	DefaultLimit int
	Concurrency  int
	CheckTimeout time.Duration
}

type IProximityService interface {
	FindNearby(ctx context.Context, query NearbyQuery) ([]model.NearbyDriver, error)
}

type proximityService struct {
	geoIndex contract.GeoIndexRepository
	liveness contract.LivenessRepository
	opts     ProximityOptions
	logger   logger.ILogger
}

func NewProximityService(
	geoIndex contract.GeoIndexRepository,
	liveness contract.LivenessRepository,
	opts ProximityOptions,
	log logger.ILogger,
) IProximityService {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultSearchLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultLivenessConcurrency
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = DefaultLivenessCheckTimeout
	}
	return &proximityService{
		geoIndex: geoIndex,
		liveness: liveness,
		opts:     opts,
		logger:   log,
	}
}

// FindNearby returns live drivers around the center, nearest first.
//
// Candidates come from one radius query; each is then liveness-checked by a
// pool of at most opts.Concurrency workers. A check that errors or exceeds
// opts.CheckTimeout drops only that candidate. Expired candidates are evicted
// from the index on the way. The output keeps the index order regardless of
// which check finishes first.
func (s *proximityService) FindNearby(ctx context.Context, query NearbyQuery) ([]model.NearbyDriver, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}

	candidates, err := s.geoIndex.Radius(ctx, query.Center, query.RadiusKm, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeoIndexUnavailable, err)
	}

	s.logger.Info("ProximityService", "Nearby search", map[string]interface{}{
		"longitude":  query.Center.Longitude,
		"latitude":   query.Center.Latitude,
		"radius_km":  query.RadiusKm,
		"candidates": len(candidates),
	})

	results := make([]model.NearbyDriver, 0, len(candidates))
	if len(candidates) == 0 {
		return results, nil
	}

	// One slot per candidate; workers only write their own index.
	live := make([]bool, len(candidates))
	ids := make([]string, len(candidates))

	// Sub-lookups are time-boxed individually and deliberately not tied to the
	// caller's cancellation.
	lookupCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, c := range candidates {
		driverID, ok := model.DriverIDFromMember(c.Member)
		if !ok {
			s.logger.Warn("ProximityService", "Skipping foreign geo member", map[string]interface{}{"member": c.Member})
			continue
		}
		ids[i] = driverID
		g.Go(func() error {
			live[i] = s.checkCandidate(lookupCtx, driverID, c.Member)
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range candidates {
		if live[i] {
			results = append(results, model.NearbyDriver{DriverID: ids[i], DistanceKm: c.DistanceKm})
		}
	}
	return results, nil
}

// checkCandidate reports whether the driver is live. Expired drivers are
// evicted from the index once, best effort.
func (s *proximityService) checkCandidate(ctx context.Context, driverID, member string) bool {
	checkCtx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
	alive, err := s.liveness.IsAlive(checkCtx, driverID)
	cancel()

	if err != nil {
		s.logger.Warn("ProximityService", "Liveness check failed, dropping candidate", map[string]interface{}{
			"driver_id": driverID,
			"error":     err,
		})
		return false
	}
	if alive {
		return true
	}

	s.evict(ctx, driverID, member)
	return false
}

func (s *proximityService) evict(ctx context.Context, driverID, member string) {
	evictCtx, cancel := context.WithTimeout(ctx, s.opts.CheckTimeout)
	defer cancel()

	if err := s.geoIndex.Remove(evictCtx, member); err != nil {
		s.logger.Error("ProximityService", "Failed to evict stale driver", map[string]interface{}{
			"driver_id": driverID,
			"error":     err,
		})
		return
	}
	s.logger.Info("ProximityService", "Evicted stale driver from geo index", map[string]interface{}{"driver_id": driverID})
}
