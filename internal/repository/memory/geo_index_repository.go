package memory

import (
	"context"
	"sort"
	"sync"

	"driver-location-be/internal/model"
	"driver-location-be/internal/repository/contract"
	"driver-location-be/pkg/utils"
)

// GeoIndexRepository is a linear-scan geo index for single-instance mode and
// tests. Distances use the same haversine radius as Redis.
type GeoIndexRepository struct {
	mu      sync.RWMutex
	members map[string]model.Position
}

func NewGeoIndexRepository() *GeoIndexRepository {
	return &GeoIndexRepository{members: make(map[string]model.Position)}
}

var _ contract.GeoIndexRepository = (*GeoIndexRepository)(nil)

func (r *GeoIndexRepository) Upsert(_ context.Context, member string, position model.Position) error {
	r.mu.Lock()
	r.members[member] = position
	r.mu.Unlock()
	return nil
}

func (r *GeoIndexRepository) Radius(_ context.Context, center model.Position, radiusKm float64, limit int) ([]model.GeoCandidate, error) {
	r.mu.RLock()
	candidates := make([]model.GeoCandidate, 0)
	for member, pos := range r.members {
		d := utils.HaversineKm(center.Longitude, center.Latitude, pos.Longitude, pos.Latitude)
		if d <= radiusKm {
			candidates = append(candidates, model.GeoCandidate{Member: member, DistanceKm: d})
		}
	}
	r.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm == candidates[j].DistanceKm {
			return candidates[i].Member < candidates[j].Member
		}
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (r *GeoIndexRepository) Remove(_ context.Context, member string) error {
	r.mu.Lock()
	delete(r.members, member)
	r.mu.Unlock()
	return nil
}

// Len reports how many members the index holds.
func (r *GeoIndexRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
