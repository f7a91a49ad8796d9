package postgres

import (
	"math/big"
	"testing"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

func TestPoolUpdatesWritesDrainedColumns(t *testing.T) {
	t.Parallel()
	// A fully-unstaked, fully-claimed pool: every mutable numeric column is
	// zero and must still appear in the update set, or the row keeps its
	// stale totals.
	pool := domain.StakingPool{
		PoolID:       "pool-1",
		InfluencerID: "inf-1",
		CurrentTier:  domain.TierBronze,
		UpdatedAt:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	updates := poolUpdates(pool)

	if got, ok := updates["total_staked"]; !ok || got.(int64) != 0 {
		t.Fatalf("total_staked must be written as 0, got %v (present=%v)", got, ok)
	}
	if got, ok := updates["staker_count"]; !ok || got.(int) != 0 {
		t.Fatalf("staker_count must be written as 0, got %v (present=%v)", got, ok)
	}
	if got, ok := updates["pending_rewards"]; !ok || got.(int64) != 0 {
		t.Fatalf("pending_rewards must be written as 0, got %v (present=%v)", got, ok)
	}
	if got, ok := updates["current_apy_bps"]; !ok || got.(int64) != 0 {
		t.Fatalf("current_apy_bps must be written as 0, got %v (present=%v)", got, ok)
	}
	if got, ok := updates["is_active"]; !ok || got.(bool) {
		t.Fatalf("is_active must be written as false, got %v (present=%v)", got, ok)
	}
	if got, ok := updates["reward_index"]; !ok || got.(string) != "0" {
		t.Fatalf("reward_index must be written as \"0\", got %v (present=%v)", got, ok)
	}

	for _, col := range []string{"pool_id", "influencer_id", "created_at"} {
		if _, ok := updates[col]; ok {
			t.Fatalf("immutable column %s must not be in the update set", col)
		}
	}
}

func TestPoolUpdatesCoversAllMutableColumns(t *testing.T) {
	t.Parallel()
	pool := domain.StakingPool{
		PoolID:                  "pool-1",
		TotalStaked:             1000,
		StakerCount:             2,
		RevenueShareBps:         2000,
		MinStake:                10,
		PendingRewards:          55,
		TotalRewardsDistributed: 200,
		RewardIndex:             big.NewInt(123456789),
		CurrentTier:             domain.TierSilver,
		CurrentApyBps:           371,
		IsActive:                true,
		UpdatedAt:               time.Now().UTC(),
	}
	updates := poolUpdates(pool)

	want := []string{
		"total_staked", "staker_count", "revenue_share_bps", "min_stake",
		"pending_rewards", "total_rewards_distributed", "reward_index",
		"current_tier", "current_apy_bps", "is_active", "updated_at",
	}
	if len(updates) != len(want) {
		t.Fatalf("update set has %d columns, want %d", len(updates), len(want))
	}
	for _, col := range want {
		if _, ok := updates[col]; !ok {
			t.Fatalf("mutable column %s missing from update set", col)
		}
	}
	if updates["reward_index"].(string) != "123456789" {
		t.Fatalf("reward_index mapped to %v", updates["reward_index"])
	}
	if updates["current_tier"].(string) != "SILVER" {
		t.Fatalf("current_tier mapped to %v", updates["current_tier"])
	}
}
