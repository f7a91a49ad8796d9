package domain

import "testing"

func TestEstimateApyZeroInputs(t *testing.T) {
	t.Parallel()
	cases := []struct {
		rewards, staked int64
		days            int
	}{
		{0, 1000, 30},
		{-5, 1000, 30},
		{1000, 0, 30},
		{1000, -1, 30},
		{1000, 1000, 0},
	}
	for _, tc := range cases {
		if got := EstimateApyBps(tc.rewards, tc.staked, tc.days); got != 0 {
			t.Fatalf("EstimateApyBps(%d, %d, %d) = %d, want 0", tc.rewards, tc.staked, tc.days, got)
		}
	}
}

func TestEstimateApyCompoundsAboveSimpleRate(t *testing.T) {
	t.Parallel()
	// Daily rate of 1bp: simple interest puts the floor at 365 bps; daily
	// compounding keeps it under 400 bps.
	got := EstimateApyBps(3000, 1_000_000, 30)
	if got < 365 || got >= 400 {
		t.Fatalf("apy %d bps out of expected range [365, 400)", got)
	}
}

func TestEstimateApyMonotonicInRewards(t *testing.T) {
	t.Parallel()
	low := EstimateApyBps(1_000, 1_000_000_000, 30)
	high := EstimateApyBps(100_000, 1_000_000_000, 30)
	if high <= low {
		t.Fatalf("higher rewards should raise the estimate: %d vs %d", low, high)
	}
}

func TestEstimateApyClampsAtCap(t *testing.T) {
	t.Parallel()
	if got := EstimateApyBps(1_000_000_000, 1_000, 1); got != MaxApyBps {
		t.Fatalf("runaway yield should clamp at %d, got %d", MaxApyBps, got)
	}
}

func TestEstimateApyTinyRateRoundsToZero(t *testing.T) {
	t.Parallel()
	// A rate below the fixed-point resolution contributes nothing.
	if got := EstimateApyBps(1, 10_000_000_000_000, 30); got != 0 {
		t.Fatalf("sub-resolution rate should yield 0, got %d", got)
	}
}
