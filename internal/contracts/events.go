package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

// Consumed payloads.

type ConversionRecordedPayload struct {
	ConversionID string `json:"conversion_id"`
	UserID       string `json:"user_id"`
	ProductID    string `json:"product_id"`
	Amount       int64  `json:"amount"`
	OccurredAt   string `json:"occurred_at"`
}

type TouchpointRecordedPayload struct {
	InfluencerID string `json:"influencer_id"`
	LinkCode     string `json:"link_code"`
	UserID       string `json:"user_id"`
	ProductID    string `json:"product_id"`
	ClickedAt    string `json:"clicked_at"`
}

type StakeChangedPayload struct {
	PoolID    string `json:"pool_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Direction string `json:"direction"`
}

type RevenueEarnedPayload struct {
	PoolID         string `json:"pool_id"`
	EarningAmount  int64  `json:"earning_amount"`
	DistributionID string `json:"distribution_id"`
}

// Emitted payloads.

type AttributionRecordPayload struct {
	InfluencerID    string  `json:"influencer_id"`
	Percent         float64 `json:"percent"`
	PercentBps      int64   `json:"percent_bps"`
	EarnedAmount    int64   `json:"earned_amount"`
	TouchpointCount int     `json:"touchpoint_count"`
}

type AttributionCalculatedPayload struct {
	ConversionID string                     `json:"conversion_id"`
	Model        string                     `json:"model"`
	Amount       int64                      `json:"amount"`
	Records      []AttributionRecordPayload `json:"records"`
	CalculatedAt string                     `json:"calculated_at"`
}

type RewardsDistributedPayload struct {
	PoolID          string `json:"pool_id"`
	DistributionID  string `json:"distribution_id"`
	EarningAmount   int64  `json:"earning_amount"`
	StakerShare     int64  `json:"staker_share"`
	InfluencerShare int64  `json:"influencer_share"`
	TotalStaked     int64  `json:"total_staked"`
	DistributedAt   string `json:"distributed_at"`
}

type TierChangedPayload struct {
	PoolID      string `json:"pool_id"`
	OldTier     string `json:"old_tier"`
	NewTier     string `json:"new_tier"`
	TotalStaked int64  `json:"total_staked"`
	ChangedAt   string `json:"changed_at"`
}

type ApyUpdatedPayload struct {
	PoolID    string  `json:"pool_id"`
	Apy       float64 `json:"apy"`
	ApyBps    int64   `json:"apy_bps"`
	UpdatedAt string  `json:"updated_at"`
}

type PoolCreatedPayload struct {
	PoolID          string `json:"pool_id"`
	InfluencerID    string `json:"influencer_id"`
	RevenueShareBps int    `json:"revenue_share_bps"`
	MinStake        int64  `json:"min_stake"`
	CreatedAt       string `json:"created_at"`
}

type PoolUpdatedPayload struct {
	PoolID      string `json:"pool_id"`
	OldShareBps int    `json:"old_share_bps"`
	NewShareBps int    `json:"new_share_bps"`
	UpdatedAt   string `json:"updated_at"`
}
