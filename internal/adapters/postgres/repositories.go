package postgres

import (
	"github.com/twistlabs/influencer-staking/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Pools        ports.PoolRepository
	Stakes       ports.StakeRepository
	Conversions  ports.ConversionRepository
	Touchpoints  ports.TouchpointRepository
	Attributions ports.AttributionRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
	Idempotency  ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Pools:        &poolRepository{db: db},
		Stakes:       &stakeRepository{db: db},
		Conversions:  &conversionRepository{db: db},
		Touchpoints:  &touchpointRepository{db: db},
		Attributions: &attributionRepository{db: db},
		Outbox:       &outboxRepository{db: db},
		EventDedup:   &eventDedupRepository{db: db},
		Idempotency:  &idempotencyRepository{db: db},
	}
}
