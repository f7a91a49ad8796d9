package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

type AttributionModel string

const (
	ModelLastClick     AttributionModel = "LAST_CLICK"
	ModelFirstClick    AttributionModel = "FIRST_CLICK"
	ModelLinear        AttributionModel = "LINEAR"
	ModelTimeDecay     AttributionModel = "TIME_DECAY"
	ModelPositionBased AttributionModel = "POSITION_BASED"
)

const (
	// AttributionWindow is the trailing span of touchpoints eligible for credit.
	AttributionWindow = 30 * 24 * time.Hour

	// TimeDecayHalfLife halves a touchpoint's weight for every 7 days between
	// the click and the conversion.
	TimeDecayHalfLife = 7 * 24 * time.Hour

	positionEdgeBps   = 4000
	positionMiddleBps = 2000
)

func ParseAttributionModel(raw string) (AttributionModel, error) {
	switch AttributionModel(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModelLastClick:
		return ModelLastClick, nil
	case ModelFirstClick:
		return ModelFirstClick, nil
	case ModelLinear:
		return ModelLinear, nil
	case ModelTimeDecay:
		return ModelTimeDecay, nil
	case ModelPositionBased:
		return ModelPositionBased, nil
	default:
		return "", ErrUnknownAttributionModel
	}
}

type Conversion struct {
	ConversionID string    `json:"conversion_id"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	Amount       int64     `json:"amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Touchpoint struct {
	InfluencerID string    `json:"influencer_id"`
	LinkCode     string    `json:"link_code"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	ClickedAt    time.Time `json:"clicked_at"`
}

// AttributionRecord is the persisted outcome of attributing one conversion to
// one influencer. Created once per (conversion, influencer) pair; recomputing
// the same conversion is a no-op.
type AttributionRecord struct {
	ConversionID    string           `json:"conversion_id"`
	InfluencerID    string           `json:"influencer_id"`
	PercentBps      int64            `json:"percent_bps"`
	EarnedAmount    int64            `json:"earned_amount"`
	Model           AttributionModel `json:"model"`
	TouchpointCount int              `json:"touchpoint_count"`
	FirstTouchAt    time.Time        `json:"first_touch_at"`
	LastTouchAt     time.Time        `json:"last_touch_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// AttributionSplit is one influencer's share of a conversion. PercentBps is a
// fixed-point percentage in basis points; across a conversion the splits sum to
// exactly BpsDenominator and the earned amounts sum to exactly the conversion
// amount.
type AttributionSplit struct {
	InfluencerID    string    `json:"influencer_id"`
	PercentBps      int64     `json:"percent_bps"`
	EarnedAmount    int64     `json:"earned_amount"`
	TouchpointCount int       `json:"touchpoint_count"`
	FirstTouchAt    time.Time `json:"first_touch_at"`
	LastTouchAt     time.Time `json:"last_touch_at"`
}

// WindowTouchpoints keeps touchpoints inside the trailing window ending at the
// conversion timestamp, ordered by click time ascending. Out-of-window clicks
// are dropped silently.
func WindowTouchpoints(points []Touchpoint, conversionAt time.Time, window time.Duration) []Touchpoint {
	cutoff := conversionAt.Add(-window)
	out := make([]Touchpoint, 0, len(points))
	for _, p := range points {
		if p.ClickedAt.After(conversionAt) {
			continue
		}
		if !p.ClickedAt.After(cutoff) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClickedAt.Before(out[j].ClickedAt) })
	return out
}

// CalculateAttribution splits a conversion across the influencers of its
// touchpoint window under the selected model. An empty window yields an empty
// split set: the conversion stays unattributed. A single touchpoint always
// receives full credit regardless of model. Rounding remainders, in both basis
// points and token units, go to the last touchpoint's influencer so the sums
// stay exact.
func CalculateAttribution(conversion Conversion, points []Touchpoint, model AttributionModel) ([]AttributionSplit, error) {
	window := WindowTouchpoints(points, conversion.OccurredAt, AttributionWindow)
	n := len(window)
	if n == 0 {
		return nil, nil
	}

	weights, err := touchpointWeights(conversion, window, model)
	if err != nil {
		return nil, err
	}

	// Aggregate per influencer, preserving first-appearance order so the
	// output is deterministic for a given window.
	order := make([]string, 0, n)
	byInfluencer := make(map[string]*AttributionSplit, n)
	for i, p := range window {
		split, ok := byInfluencer[p.InfluencerID]
		if !ok {
			split = &AttributionSplit{
				InfluencerID: p.InfluencerID,
				FirstTouchAt: p.ClickedAt,
				LastTouchAt:  p.ClickedAt,
			}
			byInfluencer[p.InfluencerID] = split
			order = append(order, p.InfluencerID)
		}
		split.PercentBps += weights[i]
		split.TouchpointCount++
		if p.ClickedAt.Before(split.FirstTouchAt) {
			split.FirstTouchAt = p.ClickedAt
		}
		if p.ClickedAt.After(split.LastTouchAt) {
			split.LastTouchAt = p.ClickedAt
		}
	}

	var distributed int64
	for _, id := range order {
		split := byInfluencer[id]
		split.EarnedAmount = MulDivFloor(conversion.Amount, split.PercentBps, BpsDenominator)
		distributed += split.EarnedAmount
	}
	// Flooring remainder goes to the last touchpoint's influencer.
	byInfluencer[window[n-1].InfluencerID].EarnedAmount += conversion.Amount - distributed

	out := make([]AttributionSplit, 0, len(order))
	for _, id := range order {
		out = append(out, *byInfluencer[id])
	}
	return out, nil
}

// touchpointWeights returns one basis-point weight per touchpoint, summing to
// exactly BpsDenominator. The last touchpoint absorbs integer remainders.
func touchpointWeights(conversion Conversion, window []Touchpoint, model AttributionModel) ([]int64, error) {
	n := len(window)
	weights := make([]int64, n)
	if n == 1 {
		weights[0] = BpsDenominator
		return weights, nil
	}

	switch model {
	case ModelLastClick:
		weights[n-1] = BpsDenominator
	case ModelFirstClick:
		weights[0] = BpsDenominator
	case ModelLinear:
		each := int64(BpsDenominator / n)
		var sum int64
		for i := range weights {
			weights[i] = each
			sum += each
		}
		weights[n-1] += BpsDenominator - sum
	case ModelTimeDecay:
		// Raw decay weights are not money; they only seed an integer
		// normalization into basis points.
		raw := make([]float64, n)
		var total float64
		for i, p := range window {
			age := conversion.OccurredAt.Sub(p.ClickedAt)
			raw[i] = math.Exp2(-age.Hours() / TimeDecayHalfLife.Hours())
			total += raw[i]
		}
		var sum int64
		for i := range raw {
			weights[i] = int64(math.Floor(raw[i] / total * BpsDenominator))
			sum += weights[i]
		}
		weights[n-1] += BpsDenominator - sum
	case ModelPositionBased:
		if n == 2 {
			weights[0] = BpsDenominator / 2
			weights[1] = BpsDenominator - weights[0]
			break
		}
		weights[0] = positionEdgeBps
		weights[n-1] = positionEdgeBps
		middle := n - 2
		each := int64(positionMiddleBps / middle)
		sum := int64(positionEdgeBps * 2)
		for i := 1; i < n-1; i++ {
			weights[i] = each
			sum += each
		}
		weights[n-1] += BpsDenominator - sum
	default:
		return nil, ErrUnknownAttributionModel
	}
	return weights, nil
}
