package domain

import (
	"math/big"
	"testing"
)

func TestClassifyTierBoundaries(t *testing.T) {
	t.Parallel()
	cases := []struct {
		staked int64
		want   Tier
	}{
		{0, TierBronze},
		{999_999_999_999, TierBronze},
		{1_000_000_000_000, TierSilver},
		{9_999_999_999_999, TierSilver},
		{10_000_000_000_000, TierGold},
		{49_999_999_999_999, TierGold},
		{50_000_000_000_000, TierPlatinum},
		{123_456_000_000_000, TierPlatinum},
	}
	for _, tc := range cases {
		if got := ClassifyTier(tc.staked); got != tc.want {
			t.Fatalf("ClassifyTier(%d) = %s, want %s", tc.staked, got, tc.want)
		}
	}
}

func TestValidateRevenueShare(t *testing.T) {
	t.Parallel()
	if err := ValidateRevenueShare(0); err != nil {
		t.Fatalf("0 bps should be valid: %v", err)
	}
	if err := ValidateRevenueShare(MaxRevenueShareBps); err != nil {
		t.Fatalf("cap should be valid: %v", err)
	}
	if err := ValidateRevenueShare(-1); err != ErrInvalidRevenueShare {
		t.Fatalf("negative bps: got %v", err)
	}
	if err := ValidateRevenueShare(MaxRevenueShareBps + 1); err != ErrInvalidRevenueShare {
		t.Fatalf("above cap: got %v", err)
	}
}

func TestSplitEarningSumsExactly(t *testing.T) {
	t.Parallel()
	cases := []struct {
		earning        int64
		bps            int
		wantStaker     int64
		wantInfluencer int64
	}{
		{1_000_000_000, 2000, 200_000_000, 800_000_000},
		{1, 2000, 0, 1},
		{999, 3333, 332, 667},
		{0, 5000, 0, 0},
	}
	for _, tc := range cases {
		staker, influencer := SplitEarning(tc.earning, tc.bps)
		if staker != tc.wantStaker || influencer != tc.wantInfluencer {
			t.Fatalf("SplitEarning(%d, %d) = %d/%d, want %d/%d",
				tc.earning, tc.bps, staker, influencer, tc.wantStaker, tc.wantInfluencer)
		}
		if staker+influencer != tc.earning {
			t.Fatalf("shares %d+%d do not sum to %d", staker, influencer, tc.earning)
		}
	}
}

func TestMulDivFloor(t *testing.T) {
	t.Parallel()
	if got := MulDivFloor(100, 3333, 10000); got != 33 {
		t.Fatalf("MulDivFloor(100, 3333, 10000) = %d, want 33", got)
	}
	// Intermediate product overflows int64; big.Int keeps it exact.
	if got := MulDivFloor(9_000_000_000_000_000_000, 2, 3); got != 6_000_000_000_000_000_000 {
		t.Fatalf("large multiply: got %d", got)
	}
}

func TestAccrueRewardIndex(t *testing.T) {
	t.Parallel()
	index := AccrueRewardIndex(nil, 100, 1000)
	want := big.NewInt(100 * RewardIndexScale / 1000)
	if index.Cmp(want) != 0 {
		t.Fatalf("index after first accrual = %s, want %s", index, want)
	}

	index = AccrueRewardIndex(index, 50, 1000)
	want.Add(want, big.NewInt(50*RewardIndexScale/1000))
	if index.Cmp(want) != 0 {
		t.Fatalf("index after second accrual = %s, want %s", index, want)
	}

	// No stakers or no share leaves the index untouched.
	same := AccrueRewardIndex(index, 0, 1000)
	if same.Cmp(index) != 0 {
		t.Fatalf("zero share moved the index: %s -> %s", index, same)
	}
	same = AccrueRewardIndex(index, 100, 0)
	if same.Cmp(index) != 0 {
		t.Fatalf("zero staked moved the index: %s -> %s", index, same)
	}
}

func TestPendingReward(t *testing.T) {
	t.Parallel()
	index := AccrueRewardIndex(nil, 200_000_000, 1000)
	if got := PendingReward(index, nil, 500); got != 100_000_000 {
		t.Fatalf("half the stake should earn half the share: got %d", got)
	}
	if got := PendingReward(index, index, 500); got != 0 {
		t.Fatalf("checkpoint at index should earn nothing: got %d", got)
	}
	if got := PendingReward(nil, nil, 500); got != 0 {
		t.Fatalf("nil index should earn nothing: got %d", got)
	}
}

func TestSettleStakePreservesAccrual(t *testing.T) {
	t.Parallel()
	pool := &StakingPool{TotalStaked: 1000, RewardIndex: AccrueRewardIndex(nil, 300, 1000)}
	stake := &UserStake{Amount: 400}

	SettleStake(stake, pool)
	if stake.PendingSettled != 120 {
		t.Fatalf("settled %d, want 120", stake.PendingSettled)
	}
	if stake.RewardCheckpoint.Cmp(pool.RewardIndex) != 0 {
		t.Fatalf("checkpoint not advanced to pool index")
	}

	// Settling again without new accrual adds nothing.
	SettleStake(stake, pool)
	if stake.PendingSettled != 120 {
		t.Fatalf("double settle changed balance: %d", stake.PendingSettled)
	}

	// New accrual after the amount changes only applies the new delta.
	stake.Amount = 800
	pool.RewardIndex = AccrueRewardIndex(pool.RewardIndex, 300, 1000)
	SettleStake(stake, pool)
	if stake.PendingSettled != 120+240 {
		t.Fatalf("settled %d after second accrual, want 360", stake.PendingSettled)
	}
}

func TestRewardConservationAcrossStakers(t *testing.T) {
	t.Parallel()
	// Two stakers at 60/40, three distributions; the sum of settled rewards
	// never exceeds the distributed staker share.
	pool := &StakingPool{TotalStaked: 1000}
	a := &UserStake{Amount: 600, RewardCheckpoint: new(big.Int)}
	b := &UserStake{Amount: 400, RewardCheckpoint: new(big.Int)}

	var distributed int64
	for _, share := range []int64{1001, 77, 999_983} {
		pool.RewardIndex = AccrueRewardIndex(pool.RewardIndex, share, pool.TotalStaked)
		distributed += share
	}
	SettleStake(a, pool)
	SettleStake(b, pool)

	total := a.PendingSettled + b.PendingSettled
	if total > distributed {
		t.Fatalf("settled %d exceeds distributed %d", total, distributed)
	}
	if distributed-total >= 1000 {
		t.Fatalf("flooring dust %d is more than one unit per staked token", distributed-total)
	}
}
