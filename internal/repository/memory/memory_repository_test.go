package memory

import (
	"context"
	"testing"
	"time"

	"driver-location-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoIndexRepositoryRadius(t *testing.T) {
	repo := NewGeoIndexRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "driver:4", model.Position{Longitude: 127.050, Latitude: 37.550}))
	require.NoError(t, repo.Upsert(ctx, "driver:2", model.Position{Longitude: 127.005, Latitude: 37.505}))
	require.NoError(t, repo.Upsert(ctx, "driver:3", model.Position{Longitude: 127.020, Latitude: 37.520}))
	require.NoError(t, repo.Upsert(ctx, "driver:1", model.Position{Longitude: 127.001, Latitude: 37.501}))

	got, err := repo.Radius(ctx, model.Position{Longitude: 127.0, Latitude: 37.5}, 5, 50)
	require.NoError(t, err)

	members := make([]string, 0, len(got))
	for _, c := range got {
		members = append(members, c.Member)
	}
	assert.Equal(t, []string{"driver:1", "driver:2", "driver:3"}, members)

	limited, err := repo.Radius(ctx, model.Position{Longitude: 127.0, Latitude: 37.5}, 5, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGeoIndexRepositoryUpsertKeepsOnePositionPerMember(t *testing.T) {
	repo := NewGeoIndexRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "driver:1", model.Position{Longitude: 127.001, Latitude: 37.501}))
	require.NoError(t, repo.Upsert(ctx, "driver:1", model.Position{Longitude: 127.002, Latitude: 37.502}))
	assert.Equal(t, 1, repo.Len())

	require.NoError(t, repo.Remove(ctx, "driver:1"))
	assert.Zero(t, repo.Len())
}

func TestGeoIndexRepositoryZeroRadiusMatchesExactPoint(t *testing.T) {
	repo := NewGeoIndexRepository()
	ctx := context.Background()
	p := model.Position{Longitude: 127.001, Latitude: 37.501}

	require.NoError(t, repo.Upsert(ctx, "driver:1", p))
	got, err := repo.Radius(ctx, p, 0, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].DistanceKm)
}

func TestLivenessRepositoryExpires(t *testing.T) {
	repo := NewLivenessRepository("liveness:", time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.SetAlive(ctx, "101", 50*time.Millisecond))
	alive, err := repo.IsAlive(ctx, "101")
	require.NoError(t, err)
	assert.True(t, alive)

	assert.Eventually(t, func() bool {
		alive, _ := repo.IsAlive(ctx, "101")
		return !alive
	}, time.Second, 10*time.Millisecond)

	alive, err = repo.IsAlive(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, alive)
}
