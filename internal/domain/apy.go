package domain

import "math/big"

const (
	// ApyWindowDays is the default rolling window of distribution history the
	// estimate is derived from.
	ApyWindowDays = 30

	// MaxApyBps clamps the reported APY at 1000.00%.
	MaxApyBps = 100_000

	compoundingPeriods = 365
)

// EstimateApyBps annualizes the yield observed over a window of distribution
// history. The result is in basis points of APY (hundredths of a percent),
// clamped to [0, MaxApyBps]. The daily rate is a fixed-point integer at
// RewardIndexScale; compounding runs entirely in big-integer arithmetic, so no
// floating point touches the result.
//
// apy = ((1 + dailyRate)^365 - 1) * 100, with dailyRate =
// totalStakerRewards / totalStaked / windowDays.
func EstimateApyBps(totalStakerRewards, totalStaked int64, windowDays int) int64 {
	if totalStakerRewards <= 0 || totalStaked <= 0 || windowDays <= 0 {
		return 0
	}

	scale := big.NewInt(RewardIndexScale)
	dailyRate := new(big.Int).Mul(big.NewInt(totalStakerRewards), scale)
	dailyRate.Quo(dailyRate, big.NewInt(totalStaked))
	dailyRate.Quo(dailyRate, big.NewInt(int64(windowDays)))

	// (scale + rate)^365 against scale^365, both exact.
	grown := new(big.Int).Add(scale, dailyRate)
	grown.Exp(grown, big.NewInt(compoundingPeriods), nil)
	base := new(big.Int).Exp(scale, big.NewInt(compoundingPeriods), nil)

	// ((grown/base) - 1) * 10000 in basis points, floored.
	grown.Mul(grown, big.NewInt(BpsDenominator))
	grown.Quo(grown, base)
	grown.Sub(grown, big.NewInt(BpsDenominator))

	if grown.Sign() <= 0 {
		return 0
	}
	if !grown.IsInt64() || grown.Int64() > MaxApyBps {
		return MaxApyBps
	}
	return grown.Int64()
}
