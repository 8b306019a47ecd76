package implementation

import (
	"context"

	"driver-location-be/internal/model"
	"driver-location-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type GeoIndexRepositoryImpl struct {
	rdb redis.Cmdable
	key string
}

func NewGeoIndexRepository(rdb redis.Cmdable, key string) contract.GeoIndexRepository {
	return &GeoIndexRepositoryImpl{rdb: rdb, key: key}
}

func (r *GeoIndexRepositoryImpl) Upsert(ctx context.Context, member string, position model.Position) error {
	return r.rdb.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      member,
		Longitude: position.Longitude,
		Latitude:  position.Latitude,
	}).Err()
}

func (r *GeoIndexRepositoryImpl) Radius(ctx context.Context, center model.Position, radiusKm float64, limit int) ([]model.GeoCandidate, error) {
	locations, err := r.rdb.GeoRadius(ctx, r.key, center.Longitude, center.Latitude, &redis.GeoRadiusQuery{
		Radius:   radiusKm,
		Unit:     "km",
		WithDist: true,
		Count:    limit,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	candidates := make([]model.GeoCandidate, 0, len(locations))
	for _, loc := range locations {
		candidates = append(candidates, model.GeoCandidate{Member: loc.Name, DistanceKm: loc.Dist})
	}
	return candidates, nil
}

// Remove drops a member. GEO sets are sorted sets, so ZREM is the delete.
func (r *GeoIndexRepositoryImpl) Remove(ctx context.Context, member string) error {
	return r.rdb.ZRem(ctx, r.key, member).Err()
}
