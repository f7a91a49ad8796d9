package contracts

import "time"

type CreatePoolRequest struct {
	InfluencerID    string `json:"influencer_id"`
	RevenueShareBps int    `json:"revenue_share_bps"`
	MinStake        int64  `json:"min_stake"`
}

type UpdateRevenueShareRequest struct {
	RevenueShareBps int `json:"revenue_share_bps"`
}

type StakeRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type UnstakeRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

type ClaimRequest struct {
	UserID string `json:"user_id"`
}

type ProcessConversionRequest struct {
	ConversionID string    `json:"conversion_id"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	Amount       int64     `json:"amount"`
	OccurredAt   time.Time `json:"occurred_at"`
	Model        string    `json:"model,omitempty"`
}

type RecordTouchpointRequest struct {
	InfluencerID string    `json:"influencer_id"`
	LinkCode     string    `json:"link_code"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	ClickedAt    time.Time `json:"clicked_at"`
}

type DistributeRequest struct {
	PoolID         string `json:"pool_id"`
	EarningAmount  int64  `json:"earning_amount"`
	DistributionID string `json:"distribution_id"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
