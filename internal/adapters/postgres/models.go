package postgres

import (
	"time"
)

// Reward index values exceed int64 range at scale 1e12, so they travel as
// NUMERIC columns mapped to decimal strings.

type poolModel struct {
	PoolID                  string    `gorm:"column:pool_id;primaryKey"`
	InfluencerID            string    `gorm:"column:influencer_id"`
	TotalStaked             int64     `gorm:"column:total_staked"`
	StakerCount             int       `gorm:"column:staker_count"`
	RevenueShareBps         int       `gorm:"column:revenue_share_bps"`
	MinStake                int64     `gorm:"column:min_stake"`
	PendingRewards          int64     `gorm:"column:pending_rewards"`
	TotalRewardsDistributed int64     `gorm:"column:total_rewards_distributed"`
	RewardIndex             string    `gorm:"column:reward_index;type:numeric(38,0)"`
	CurrentTier             string    `gorm:"column:current_tier"`
	CurrentApyBps           int64     `gorm:"column:current_apy_bps"`
	IsActive                bool      `gorm:"column:is_active"`
	CreatedAt               time.Time `gorm:"column:created_at"`
	UpdatedAt               time.Time `gorm:"column:updated_at"`
}

func (poolModel) TableName() string { return "staking_pools" }

type stakeModel struct {
	PoolID           string    `gorm:"column:pool_id;primaryKey"`
	UserID           string    `gorm:"column:user_id;primaryKey"`
	Amount           int64     `gorm:"column:amount"`
	RewardCheckpoint string    `gorm:"column:reward_checkpoint;type:numeric(38,0)"`
	PendingSettled   int64     `gorm:"column:pending_settled"`
	TotalClaimed     int64     `gorm:"column:total_claimed"`
	IsActive         bool      `gorm:"column:is_active"`
	StakedAt         time.Time `gorm:"column:staked_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (stakeModel) TableName() string { return "user_stakes" }

type distributionModel struct {
	DistributionID  string    `gorm:"column:distribution_id;primaryKey"`
	PoolID          string    `gorm:"column:pool_id"`
	EarningAmount   int64     `gorm:"column:earning_amount"`
	StakerShare     int64     `gorm:"column:staker_share"`
	InfluencerShare int64     `gorm:"column:influencer_share"`
	TotalStaked     int64     `gorm:"column:total_staked"`
	DistributedAt   time.Time `gorm:"column:distributed_at"`
}

func (distributionModel) TableName() string { return "reward_distributions" }

type conversionModel struct {
	ConversionID string    `gorm:"column:conversion_id;primaryKey"`
	UserID       string    `gorm:"column:user_id"`
	ProductID    string    `gorm:"column:product_id"`
	Amount       int64     `gorm:"column:amount"`
	OccurredAt   time.Time `gorm:"column:occurred_at"`
}

func (conversionModel) TableName() string { return "conversions" }

type touchpointModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	InfluencerID string    `gorm:"column:influencer_id"`
	LinkCode     string    `gorm:"column:link_code"`
	UserID       string    `gorm:"column:user_id"`
	ProductID    string    `gorm:"column:product_id"`
	ClickedAt    time.Time `gorm:"column:clicked_at"`
}

func (touchpointModel) TableName() string { return "touchpoints" }

type attributionModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ConversionID    string    `gorm:"column:conversion_id"`
	InfluencerID    string    `gorm:"column:influencer_id"`
	PercentBps      int64     `gorm:"column:percent_bps"`
	EarnedAmount    int64     `gorm:"column:earned_amount"`
	Model           string    `gorm:"column:model"`
	TouchpointCount int       `gorm:"column:touchpoint_count"`
	FirstTouchAt    time.Time `gorm:"column:first_touch_at"`
	LastTouchAt     time.Time `gorm:"column:last_touch_at"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (attributionModel) TableName() string { return "attribution_records" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload"`
	TraceID      string     `gorm:"column:trace_id"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    string     `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
}

func (outboxModel) TableName() string { return "staking_outbox" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "staking_event_dedup" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "staking_idempotency" }
