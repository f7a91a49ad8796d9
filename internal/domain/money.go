package domain

import "math/big"

// Token amounts are integers in the smallest unit (9 decimals). All money math is
// integer-only; intermediates that can exceed 64 bits go through math/big.

const (
	TokenDecimals = 9

	// BpsDenominator is the basis-point scale used for percentages and
	// revenue-share rates. 10000 bps == 100%.
	BpsDenominator = 10000

	// MaxRevenueShareBps caps the staker-side revenue share at 50%.
	MaxRevenueShareBps = 5000

	// RewardIndexScale is the fixed-point scale of the cumulative
	// reward-per-staked-unit index.
	RewardIndexScale = 1_000_000_000_000
)

// MulDivFloor computes floor(a*b/den) without intermediate overflow.
// den must be positive; a and b must be non-negative.
func MulDivFloor(a, b, den int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	out := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	out.Quo(out, big.NewInt(den))
	return out.Int64()
}
