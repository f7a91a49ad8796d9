package cache

import (
	"context"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

// NoopPoolCache serves every read as a miss. Used when no redis is configured.
type NoopPoolCache struct{}

func NewNoopPoolCache() *NoopPoolCache {
	return &NoopPoolCache{}
}

func (NoopPoolCache) Get(_ context.Context, _ string) (domain.StakingPool, bool, error) {
	return domain.StakingPool{}, false, nil
}

func (NoopPoolCache) Set(_ context.Context, _ domain.StakingPool, _ time.Duration) error {
	return nil
}

func (NoopPoolCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
