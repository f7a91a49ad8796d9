package ports

import (
	"context"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

// PoolCache is a read-through cache for pool snapshots with bounded staleness.
// Writes to a pool invalidate its entry synchronously.
type PoolCache interface {
	Get(ctx context.Context, poolID string) (domain.StakingPool, bool, error)
	Set(ctx context.Context, pool domain.StakingPool, ttl time.Duration) error
	Invalidate(ctx context.Context, poolID string) error
}
