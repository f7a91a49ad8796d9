package application

import (
	"context"
	"strings"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

// Distribute splits an earned amount between the staker pool and the
// influencer and credits the pool exactly once per distribution id. The index
// bump and the event append happen atomically inside the repository; replaying
// a seen distribution id returns the stored event without touching state.
func (s *Service) Distribute(ctx context.Context, in DistributeInput) (domain.RewardDistributionEvent, error) {
	in.PoolID = strings.TrimSpace(in.PoolID)
	in.DistributionID = strings.TrimSpace(in.DistributionID)
	if in.PoolID == "" || in.DistributionID == "" || in.EarningAmount <= 0 {
		return domain.RewardDistributionEvent{}, domain.ErrInvalidInput
	}

	now := s.nowFn()
	event, applied, err := s.pools.ApplyDistribution(ctx, in.PoolID, in.DistributionID, func(p *domain.StakingPool) (domain.RewardDistributionEvent, error) {
		if p.TotalStaked <= 0 {
			return domain.RewardDistributionEvent{}, domain.ErrNoStakers
		}
		stakerShare, influencerShare := domain.SplitEarning(in.EarningAmount, p.RevenueShareBps)
		p.RewardIndex = domain.AccrueRewardIndex(p.RewardIndex, stakerShare, p.TotalStaked)
		p.PendingRewards += stakerShare
		p.TotalRewardsDistributed += stakerShare
		p.UpdatedAt = now
		return domain.RewardDistributionEvent{
			DistributionID:  in.DistributionID,
			PoolID:          p.PoolID,
			EarningAmount:   in.EarningAmount,
			StakerShare:     stakerShare,
			InfluencerShare: influencerShare,
			TotalStaked:     p.TotalStaked,
			DistributedAt:   now,
		}, nil
	})
	if err != nil {
		return domain.RewardDistributionEvent{}, err
	}
	if applied {
		_ = s.invalidatePool(ctx, in.PoolID)
		_ = s.enqueueRewardsDistributed(ctx, event)
	}
	return event, nil
}

// RefreshApy recomputes a pool's APY from its distribution history inside the
// rolling window. Read-mostly: the pool is only written when the figure moved.
func (s *Service) RefreshApy(ctx context.Context, poolID string) (ApyResult, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return ApyResult{}, domain.ErrInvalidInput
	}
	pool, err := s.pools.Get(ctx, poolID)
	if err != nil {
		return ApyResult{}, err
	}

	now := s.nowFn()
	since := now.AddDate(0, 0, -s.cfg.ApyWindowDays)
	events, err := s.pools.ListDistributionsSince(ctx, poolID, since)
	if err != nil {
		return ApyResult{}, err
	}
	var totalStakerRewards int64
	for _, event := range events {
		totalStakerRewards += event.StakerShare
	}

	apyBps := domain.EstimateApyBps(totalStakerRewards, pool.TotalStaked, s.cfg.ApyWindowDays)
	result := ApyResult{
		PoolID:             poolID,
		ApyBps:             apyBps,
		TotalStakerRewards: totalStakerRewards,
		WindowDays:         s.cfg.ApyWindowDays,
	}
	if apyBps == pool.CurrentApyBps {
		return result, nil
	}

	updated, err := s.pools.Mutate(ctx, poolID, func(p *domain.StakingPool) error {
		p.CurrentApyBps = apyBps
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return ApyResult{}, err
	}
	result.Changed = true
	_ = s.invalidatePool(ctx, poolID)
	_ = s.enqueueApyUpdated(ctx, updated)
	return result, nil
}

func (s *Service) GetDistribution(ctx context.Context, distributionID string) (domain.RewardDistributionEvent, error) {
	distributionID = strings.TrimSpace(distributionID)
	if distributionID == "" {
		return domain.RewardDistributionEvent{}, domain.ErrInvalidInput
	}
	return s.pools.GetDistribution(ctx, distributionID)
}

func (s *Service) ListDistributions(ctx context.Context, poolID string, windowDays int) ([]domain.RewardDistributionEvent, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, domain.ErrInvalidInput
	}
	if windowDays <= 0 {
		windowDays = s.cfg.ApyWindowDays
	}
	since := s.nowFn().AddDate(0, 0, -windowDays)
	return s.pools.ListDistributionsSince(ctx, poolID, since)
}
