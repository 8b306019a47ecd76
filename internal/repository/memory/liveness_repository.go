package memory

import (
	"context"
	"time"

	"driver-location-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type LivenessRepository struct {
	cache  *cache.Cache
	prefix string
}

func NewLivenessRepository(prefix string, defaultTTL time.Duration) *LivenessRepository {
	// Expired flags are invisible to Get immediately; the janitor only
	// reclaims memory, once a minute.
	c := cache.New(defaultTTL, time.Minute)
	return &LivenessRepository{
		cache:  c,
		prefix: prefix,
	}
}

var _ contract.LivenessRepository = (*LivenessRepository)(nil)

func (r *LivenessRepository) SetAlive(_ context.Context, driverID string, ttl time.Duration) error {
	r.cache.Set(r.prefix+driverID, struct{}{}, ttl)
	return nil
}

func (r *LivenessRepository) IsAlive(_ context.Context, driverID string) (bool, error) {
	_, found := r.cache.Get(r.prefix + driverID)
	return found, nil
}
