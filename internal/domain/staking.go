package domain

import (
	"math/big"
	"time"
)

type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// tierThresholds is the static tier table, ordered by minimum stake descending.
// Thresholds are in the smallest token unit (9 decimals).
var tierThresholds = []struct {
	Tier      Tier
	MinStaked int64
}{
	{TierPlatinum, 50_000 * 1_000_000_000},
	{TierGold, 10_000 * 1_000_000_000},
	{TierSilver, 1_000 * 1_000_000_000},
	{TierBronze, 0},
}

// ClassifyTier maps a pool's total staked amount onto the tier table.
func ClassifyTier(totalStaked int64) Tier {
	for _, row := range tierThresholds {
		if totalStaked >= row.MinStaked {
			return row.Tier
		}
	}
	return TierBronze
}

type StakingPool struct {
	PoolID                  string    `json:"pool_id"`
	InfluencerID            string    `json:"influencer_id"`
	TotalStaked             int64     `json:"total_staked"`
	StakerCount             int       `json:"staker_count"`
	RevenueShareBps         int       `json:"revenue_share_bps"`
	MinStake                int64     `json:"min_stake"`
	PendingRewards          int64     `json:"pending_rewards"`
	TotalRewardsDistributed int64     `json:"total_rewards_distributed"`
	RewardIndex             *big.Int  `json:"reward_index"`
	CurrentTier             Tier      `json:"current_tier"`
	CurrentApyBps           int64     `json:"current_apy_bps"`
	IsActive                bool      `json:"is_active"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

type UserStake struct {
	PoolID           string    `json:"pool_id"`
	UserID           string    `json:"user_id"`
	Amount           int64     `json:"amount"`
	RewardCheckpoint *big.Int  `json:"reward_checkpoint"`
	PendingSettled   int64     `json:"pending_settled"`
	TotalClaimed     int64     `json:"total_claimed"`
	IsActive         bool      `json:"is_active"`
	StakedAt         time.Time `json:"staked_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RewardDistributionEvent is the immutable record of one distribution. The
// DistributionID doubles as the idempotency key for at-least-once delivery.
type RewardDistributionEvent struct {
	DistributionID  string    `json:"distribution_id"`
	PoolID          string    `json:"pool_id"`
	EarningAmount   int64     `json:"earning_amount"`
	StakerShare     int64     `json:"staker_share"`
	InfluencerShare int64     `json:"influencer_share"`
	TotalStaked     int64     `json:"total_staked"`
	DistributedAt   time.Time `json:"distributed_at"`
}

func ValidateRevenueShare(bps int) error {
	if bps < 0 || bps > MaxRevenueShareBps {
		return ErrInvalidRevenueShare
	}
	return nil
}

// SplitEarning divides an earned amount between the staker pool and the
// influencer. The two shares always sum to the input exactly.
func SplitEarning(earning int64, revenueShareBps int) (stakerShare, influencerShare int64) {
	stakerShare = MulDivFloor(earning, int64(revenueShareBps), BpsDenominator)
	return stakerShare, earning - stakerShare
}

// AccrueRewardIndex advances the cumulative reward-per-staked-unit index by
// stakerShare spread over the current total staked. The index only ever grows.
func AccrueRewardIndex(index *big.Int, stakerShare, totalStaked int64) *big.Int {
	if index == nil {
		index = new(big.Int)
	}
	if stakerShare <= 0 || totalStaked <= 0 {
		return new(big.Int).Set(index)
	}
	delta := new(big.Int).Mul(big.NewInt(stakerShare), big.NewInt(RewardIndexScale))
	delta.Quo(delta, big.NewInt(totalStaked))
	return new(big.Int).Add(index, delta)
}

// PendingReward computes a staker's lazily-accrued reward since their last
// checkpoint: (index - checkpoint) * amount / scale, floored. The flooring
// remainder stays in the pool-level balance, never lost.
func PendingReward(index, checkpoint *big.Int, amount int64) int64 {
	if index == nil || amount <= 0 {
		return 0
	}
	if checkpoint == nil {
		checkpoint = new(big.Int)
	}
	diff := new(big.Int).Sub(index, checkpoint)
	if diff.Sign() <= 0 {
		return 0
	}
	diff.Mul(diff, big.NewInt(amount))
	diff.Quo(diff, big.NewInt(RewardIndexScale))
	return diff.Int64()
}

// SettleStake folds the stake's lazily-accrued reward into its settled balance
// and advances the checkpoint to the pool's current index. Must run before any
// change to the stake amount so past accrual is preserved exactly.
func SettleStake(stake *UserStake, pool *StakingPool) {
	pending := PendingReward(pool.RewardIndex, stake.RewardCheckpoint, stake.Amount)
	stake.PendingSettled += pending
	if pool.RewardIndex == nil {
		stake.RewardCheckpoint = new(big.Int)
	} else {
		stake.RewardCheckpoint = new(big.Int).Set(pool.RewardIndex)
	}
}
