package contract

import (
	"context"
	"time"
)

// LivenessRepository holds expiring "driver is alive" flags. Expiry is the only
// deletion mechanism.
type LivenessRepository interface {
	SetAlive(ctx context.Context, driverID string, ttl time.Duration) error
	IsAlive(ctx context.Context, driverID string) (bool, error)
}
