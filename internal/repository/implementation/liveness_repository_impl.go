package implementation

import (
	"context"
	"time"

	"driver-location-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const livenessSentinel = "1"

type LivenessRepositoryImpl struct {
	rdb    redis.Cmdable
	prefix string
}

func NewLivenessRepository(rdb redis.Cmdable, prefix string) contract.LivenessRepository {
	return &LivenessRepositoryImpl{rdb: rdb, prefix: prefix}
}

func (r *LivenessRepositoryImpl) SetAlive(ctx context.Context, driverID string, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.prefix+driverID, livenessSentinel, ttl).Err()
}

func (r *LivenessRepositoryImpl) IsAlive(ctx context.Context, driverID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.prefix+driverID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
