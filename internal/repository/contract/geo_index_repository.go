package contract

import (
	"context"

	"driver-location-be/internal/model"
)

// GeoIndexRepository stores one point per member under a single shared index.
type GeoIndexRepository interface {
	// Upsert replaces any previous position held by member.
	Upsert(ctx context.Context, member string, position model.Position) error
	// Radius returns up to limit members within radiusKm of center, nearest first.
	Radius(ctx context.Context, center model.Position, radiusKm float64, limit int) ([]model.GeoCandidate, error)
	Remove(ctx context.Context, member string) error
}
