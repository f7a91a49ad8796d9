package postgres

import (
	"math/big"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

func numericToBig(raw string) *big.Int {
	out := new(big.Int)
	if raw == "" {
		return out
	}
	if _, ok := out.SetString(raw, 10); !ok {
		return new(big.Int)
	}
	return out
}

func bigToNumeric(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func toDomainPool(rec poolModel) domain.StakingPool {
	return domain.StakingPool{
		PoolID:                  rec.PoolID,
		InfluencerID:            rec.InfluencerID,
		TotalStaked:             rec.TotalStaked,
		StakerCount:             rec.StakerCount,
		RevenueShareBps:         rec.RevenueShareBps,
		MinStake:                rec.MinStake,
		PendingRewards:          rec.PendingRewards,
		TotalRewardsDistributed: rec.TotalRewardsDistributed,
		RewardIndex:             numericToBig(rec.RewardIndex),
		CurrentTier:             domain.Tier(rec.CurrentTier),
		CurrentApyBps:           rec.CurrentApyBps,
		IsActive:                rec.IsActive,
		CreatedAt:               rec.CreatedAt,
		UpdatedAt:               rec.UpdatedAt,
	}
}

func fromDomainPool(pool domain.StakingPool) poolModel {
	return poolModel{
		PoolID:                  pool.PoolID,
		InfluencerID:            pool.InfluencerID,
		TotalStaked:             pool.TotalStaked,
		StakerCount:             pool.StakerCount,
		RevenueShareBps:         pool.RevenueShareBps,
		MinStake:                pool.MinStake,
		PendingRewards:          pool.PendingRewards,
		TotalRewardsDistributed: pool.TotalRewardsDistributed,
		RewardIndex:             bigToNumeric(pool.RewardIndex),
		CurrentTier:             string(pool.CurrentTier),
		CurrentApyBps:           pool.CurrentApyBps,
		IsActive:                pool.IsActive,
		CreatedAt:               pool.CreatedAt,
		UpdatedAt:               pool.UpdatedAt,
	}
}

// poolUpdates lists every mutable pool column explicitly. Struct-based Updates
// skip zero-valued fields, which would leave stale totals behind when a pool
// drains to zero.
func poolUpdates(pool domain.StakingPool) map[string]any {
	return map[string]any{
		"total_staked":              pool.TotalStaked,
		"staker_count":              pool.StakerCount,
		"revenue_share_bps":         pool.RevenueShareBps,
		"min_stake":                 pool.MinStake,
		"pending_rewards":           pool.PendingRewards,
		"total_rewards_distributed": pool.TotalRewardsDistributed,
		"reward_index":              bigToNumeric(pool.RewardIndex),
		"current_tier":              string(pool.CurrentTier),
		"current_apy_bps":           pool.CurrentApyBps,
		"is_active":                 pool.IsActive,
		"updated_at":                pool.UpdatedAt,
	}
}

func toDomainStake(rec stakeModel) domain.UserStake {
	return domain.UserStake{
		PoolID:           rec.PoolID,
		UserID:           rec.UserID,
		Amount:           rec.Amount,
		RewardCheckpoint: numericToBig(rec.RewardCheckpoint),
		PendingSettled:   rec.PendingSettled,
		TotalClaimed:     rec.TotalClaimed,
		IsActive:         rec.IsActive,
		StakedAt:         rec.StakedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func fromDomainStake(stake domain.UserStake) stakeModel {
	return stakeModel{
		PoolID:           stake.PoolID,
		UserID:           stake.UserID,
		Amount:           stake.Amount,
		RewardCheckpoint: bigToNumeric(stake.RewardCheckpoint),
		PendingSettled:   stake.PendingSettled,
		TotalClaimed:     stake.TotalClaimed,
		IsActive:         stake.IsActive,
		StakedAt:         stake.StakedAt,
		UpdatedAt:        stake.UpdatedAt,
	}
}

func toDomainDistribution(rec distributionModel) domain.RewardDistributionEvent {
	return domain.RewardDistributionEvent{
		DistributionID:  rec.DistributionID,
		PoolID:          rec.PoolID,
		EarningAmount:   rec.EarningAmount,
		StakerShare:     rec.StakerShare,
		InfluencerShare: rec.InfluencerShare,
		TotalStaked:     rec.TotalStaked,
		DistributedAt:   rec.DistributedAt,
	}
}

func fromDomainDistribution(event domain.RewardDistributionEvent) distributionModel {
	return distributionModel{
		DistributionID:  event.DistributionID,
		PoolID:          event.PoolID,
		EarningAmount:   event.EarningAmount,
		StakerShare:     event.StakerShare,
		InfluencerShare: event.InfluencerShare,
		TotalStaked:     event.TotalStaked,
		DistributedAt:   event.DistributedAt,
	}
}

func toDomainConversion(rec conversionModel) domain.Conversion {
	return domain.Conversion{
		ConversionID: rec.ConversionID,
		UserID:       rec.UserID,
		ProductID:    rec.ProductID,
		Amount:       rec.Amount,
		OccurredAt:   rec.OccurredAt,
	}
}

func toDomainTouchpoint(rec touchpointModel) domain.Touchpoint {
	return domain.Touchpoint{
		InfluencerID: rec.InfluencerID,
		LinkCode:     rec.LinkCode,
		UserID:       rec.UserID,
		ProductID:    rec.ProductID,
		ClickedAt:    rec.ClickedAt,
	}
}

func toDomainAttribution(rec attributionModel) domain.AttributionRecord {
	return domain.AttributionRecord{
		ConversionID:    rec.ConversionID,
		InfluencerID:    rec.InfluencerID,
		PercentBps:      rec.PercentBps,
		EarnedAmount:    rec.EarnedAmount,
		Model:           domain.AttributionModel(rec.Model),
		TouchpointCount: rec.TouchpointCount,
		FirstTouchAt:    rec.FirstTouchAt,
		LastTouchAt:     rec.LastTouchAt,
		CreatedAt:       rec.CreatedAt,
	}
}

func fromDomainAttribution(record domain.AttributionRecord) attributionModel {
	return attributionModel{
		ConversionID:    record.ConversionID,
		InfluencerID:    record.InfluencerID,
		PercentBps:      record.PercentBps,
		EarnedAmount:    record.EarnedAmount,
		Model:           string(record.Model),
		TouchpointCount: record.TouchpointCount,
		FirstTouchAt:    record.FirstTouchAt,
		LastTouchAt:     record.LastTouchAt,
		CreatedAt:       record.CreatedAt,
	}
}
