package application

import (
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
	"github.com/twistlabs/influencer-staking/internal/ports"
)

type Config struct {
	ServiceName            string
	DefaultModel           domain.AttributionModel
	AttributionWindow      time.Duration
	ApyWindowDays          int
	PoolCacheTTL           time.Duration
	IdempotencyTTL         time.Duration
	EventDedupTTL          time.Duration
	EnableAutoDistribution bool
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

type CreatePoolInput struct {
	InfluencerID    string
	RevenueShareBps int
	MinStake        int64
}

type StakeInput struct {
	PoolID string
	UserID string
	Amount int64
}

type ProcessConversionInput struct {
	ConversionID string
	UserID       string
	ProductID    string
	Amount       int64
	OccurredAt   time.Time
	Model        string
}

type RecordTouchpointInput struct {
	InfluencerID string
	LinkCode     string
	UserID       string
	ProductID    string
	ClickedAt    time.Time
}

type DistributeInput struct {
	PoolID         string
	EarningAmount  int64
	DistributionID string
}

// StakePosition is the user-facing view of a stake: pending rewards are the
// settled balance plus the lazily-accrued share since the last checkpoint.
type StakePosition struct {
	PoolID         string    `json:"pool_id"`
	UserID         string    `json:"user_id"`
	Amount         int64     `json:"amount"`
	PendingRewards int64     `json:"pending_rewards"`
	TotalClaimed   int64     `json:"total_claimed"`
	IsActive       bool      `json:"is_active"`
	StakedAt       time.Time `json:"staked_at"`
}

type StakeResult struct {
	Pool        domain.StakingPool `json:"pool"`
	Stake       StakePosition      `json:"stake"`
	TierChanged bool               `json:"tier_changed"`
	OldTier     domain.Tier        `json:"old_tier,omitempty"`
}

type ClaimResult struct {
	PoolID       string `json:"pool_id"`
	UserID       string `json:"user_id"`
	Claimed      int64  `json:"claimed"`
	TotalClaimed int64  `json:"total_claimed"`
}

type AttributionResult struct {
	ConversionID string                     `json:"conversion_id"`
	Model        domain.AttributionModel    `json:"model"`
	Records      []domain.AttributionRecord `json:"records"`
	Replayed     bool                       `json:"replayed"`
}

type ApyResult struct {
	PoolID             string `json:"pool_id"`
	ApyBps             int64  `json:"apy_bps"`
	TotalStakerRewards int64  `json:"total_staker_rewards"`
	WindowDays         int    `json:"window_days"`
	Changed            bool   `json:"changed"`
}

type PoolListOutput struct {
	Items []domain.StakingPool
	Total int
}

type StakeListOutput struct {
	Items []StakePosition
	Total int
}

type Service struct {
	cfg          Config
	pools        ports.PoolRepository
	stakes       ports.StakeRepository
	conversions  ports.ConversionRepository
	touchpoints  ports.TouchpointRepository
	attributions ports.AttributionRepository
	outbox       ports.OutboxRepository
	eventDedup   ports.EventDedupRepository
	idempotency  ports.IdempotencyRepository
	modelConfig  ports.ModelConfigReader
	cache        ports.PoolCache
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Pools        ports.PoolRepository
	Stakes       ports.StakeRepository
	Conversions  ports.ConversionRepository
	Touchpoints  ports.TouchpointRepository
	Attributions ports.AttributionRepository
	Outbox       ports.OutboxRepository
	EventDedup   ports.EventDedupRepository
	Idempotency  ports.IdempotencyRepository
	ModelConfig  ports.ModelConfigReader
	Cache        ports.PoolCache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "influencer-staking"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = domain.ModelLastClick
	}
	if cfg.AttributionWindow <= 0 {
		cfg.AttributionWindow = domain.AttributionWindow
	}
	if cfg.ApyWindowDays <= 0 {
		cfg.ApyWindowDays = domain.ApyWindowDays
	}
	if cfg.PoolCacheTTL <= 0 {
		cfg.PoolCacheTTL = 30 * time.Second
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	return &Service{
		cfg:          cfg,
		pools:        deps.Pools,
		stakes:       deps.Stakes,
		conversions:  deps.Conversions,
		touchpoints:  deps.Touchpoints,
		attributions: deps.Attributions,
		outbox:       deps.Outbox,
		eventDedup:   deps.EventDedup,
		idempotency:  deps.Idempotency,
		modelConfig:  deps.ModelConfig,
		cache:        deps.Cache,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

func stakePosition(pool domain.StakingPool, stake domain.UserStake) StakePosition {
	pending := stake.PendingSettled + domain.PendingReward(pool.RewardIndex, stake.RewardCheckpoint, stake.Amount)
	return StakePosition{
		PoolID:         stake.PoolID,
		UserID:         stake.UserID,
		Amount:         stake.Amount,
		PendingRewards: pending,
		TotalClaimed:   stake.TotalClaimed,
		IsActive:       stake.IsActive,
		StakedAt:       stake.StakedAt,
	}
}
