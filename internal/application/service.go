package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/twistlabs/influencer-staking/internal/domain"
)

func (s *Service) CreatePool(ctx context.Context, actor Actor, in CreatePoolInput) (domain.StakingPool, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.StakingPool{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" && actor.SubjectID != in.InfluencerID {
		return domain.StakingPool{}, domain.ErrForbidden
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return domain.StakingPool{}, domain.ErrIdempotencyRequired
	}
	in.InfluencerID = strings.TrimSpace(in.InfluencerID)
	if in.InfluencerID == "" || in.MinStake < 0 {
		return domain.StakingPool{}, domain.ErrInvalidInput
	}
	if err := domain.ValidateRevenueShare(in.RevenueShareBps); err != nil {
		return domain.StakingPool{}, err
	}

	requestHash := hashJSON(map[string]any{"op": "create_pool", "influencer": in.InfluencerID, "bps": in.RevenueShareBps, "min_stake": in.MinStake})
	if raw, ok, err := s.getIdempotent(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.StakingPool{}, err
	} else if ok {
		var out domain.StakingPool
		if json.Unmarshal(raw, &out) == nil {
			return out, nil
		}
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.StakingPool{}, err
	}

	now := s.nowFn()
	pool := domain.StakingPool{
		PoolID:          "pool_" + uuid.NewString(),
		InfluencerID:    in.InfluencerID,
		RevenueShareBps: in.RevenueShareBps,
		MinStake:        in.MinStake,
		CurrentTier:     domain.ClassifyTier(0),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.pools.Create(ctx, pool); err != nil {
		return domain.StakingPool{}, err
	}
	_ = s.enqueuePoolCreated(ctx, pool)
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 201, pool)
	return pool, nil
}

func (s *Service) UpdateRevenueShare(ctx context.Context, actor Actor, poolID string, newShareBps int) (domain.StakingPool, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.StakingPool{}, domain.ErrUnauthorized
	}
	if err := domain.ValidateRevenueShare(newShareBps); err != nil {
		return domain.StakingPool{}, err
	}
	var oldShare int
	pool, err := s.pools.Mutate(ctx, strings.TrimSpace(poolID), func(p *domain.StakingPool) error {
		if actor.Role != "admin" && actor.SubjectID != p.InfluencerID {
			return domain.ErrForbidden
		}
		oldShare = p.RevenueShareBps
		p.RevenueShareBps = newShareBps
		p.UpdatedAt = s.nowFn()
		return nil
	})
	if err != nil {
		return domain.StakingPool{}, err
	}
	_ = s.invalidatePool(ctx, pool.PoolID)
	_ = s.enqueuePoolUpdated(ctx, pool, oldShare)
	return pool, nil
}

func (s *Service) Stake(ctx context.Context, actor Actor, in StakeInput) (StakeResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return StakeResult{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" && actor.SubjectID != in.UserID {
		return StakeResult{}, domain.ErrForbidden
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return StakeResult{}, domain.ErrIdempotencyRequired
	}
	return s.stakeWithKey(ctx, in, actor.IdempotencyKey)
}

func (s *Service) Unstake(ctx context.Context, actor Actor, in StakeInput) (StakeResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return StakeResult{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" && actor.SubjectID != in.UserID {
		return StakeResult{}, domain.ErrForbidden
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return StakeResult{}, domain.ErrIdempotencyRequired
	}
	return s.unstakeWithKey(ctx, in, actor.IdempotencyKey)
}

func (s *Service) stakeWithKey(ctx context.Context, in StakeInput, idempotencyKey string) (StakeResult, error) {
	in.PoolID = strings.TrimSpace(in.PoolID)
	in.UserID = strings.TrimSpace(in.UserID)
	if in.PoolID == "" || in.UserID == "" || in.Amount <= 0 {
		return StakeResult{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(map[string]any{"op": "stake", "pool": in.PoolID, "user": in.UserID, "amount": in.Amount})
	if raw, ok, err := s.getIdempotent(ctx, idempotencyKey, requestHash); err != nil {
		return StakeResult{}, err
	} else if ok {
		var out StakeResult
		if json.Unmarshal(raw, &out) == nil {
			return out, nil
		}
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, requestHash); err != nil {
		return StakeResult{}, err
	}

	now := s.nowFn()
	var oldTier domain.Tier
	pool, stake, err := s.pools.MutateWithStake(ctx, in.PoolID, in.UserID, func(p *domain.StakingPool, st *domain.UserStake) error {
		if !p.IsActive {
			return domain.ErrPoolInactive
		}
		if in.Amount < p.MinStake {
			return domain.ErrBelowMinStake
		}
		oldTier = p.CurrentTier
		domain.SettleStake(st, p)
		if st.Amount == 0 {
			st.StakedAt = now
			p.StakerCount++
		}
		st.Amount += in.Amount
		st.IsActive = true
		st.UpdatedAt = now
		p.TotalStaked += in.Amount
		p.CurrentTier = domain.ClassifyTier(p.TotalStaked)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return StakeResult{}, err
	}
	_ = s.invalidatePool(ctx, pool.PoolID)
	result := StakeResult{Pool: pool, Stake: stakePosition(pool, stake)}
	if pool.CurrentTier != oldTier {
		result.TierChanged = true
		result.OldTier = oldTier
		_ = s.enqueueTierChanged(ctx, pool, oldTier)
	}
	_ = s.completeIdempotencyJSON(ctx, idempotencyKey, 200, result)
	return result, nil
}

func (s *Service) unstakeWithKey(ctx context.Context, in StakeInput, idempotencyKey string) (StakeResult, error) {
	in.PoolID = strings.TrimSpace(in.PoolID)
	in.UserID = strings.TrimSpace(in.UserID)
	if in.PoolID == "" || in.UserID == "" || in.Amount <= 0 {
		return StakeResult{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(map[string]any{"op": "unstake", "pool": in.PoolID, "user": in.UserID, "amount": in.Amount})
	if raw, ok, err := s.getIdempotent(ctx, idempotencyKey, requestHash); err != nil {
		return StakeResult{}, err
	} else if ok {
		var out StakeResult
		if json.Unmarshal(raw, &out) == nil {
			return out, nil
		}
	}
	if err := s.reserveIdempotency(ctx, idempotencyKey, requestHash); err != nil {
		return StakeResult{}, err
	}

	now := s.nowFn()
	var oldTier domain.Tier
	pool, stake, err := s.pools.MutateWithStake(ctx, in.PoolID, in.UserID, func(p *domain.StakingPool, st *domain.UserStake) error {
		if in.Amount > st.Amount {
			return domain.ErrInsufficientStake
		}
		oldTier = p.CurrentTier
		domain.SettleStake(st, p)
		st.Amount -= in.Amount
		st.UpdatedAt = now
		p.TotalStaked -= in.Amount
		if st.Amount == 0 {
			st.IsActive = false
			p.StakerCount--
		}
		p.CurrentTier = domain.ClassifyTier(p.TotalStaked)
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return StakeResult{}, err
	}
	_ = s.invalidatePool(ctx, pool.PoolID)
	result := StakeResult{Pool: pool, Stake: stakePosition(pool, stake)}
	if pool.CurrentTier != oldTier {
		result.TierChanged = true
		result.OldTier = oldTier
		_ = s.enqueueTierChanged(ctx, pool, oldTier)
	}
	_ = s.completeIdempotencyJSON(ctx, idempotencyKey, 200, result)
	return result, nil
}

func (s *Service) ClaimRewards(ctx context.Context, actor Actor, poolID, userID string) (ClaimResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return ClaimResult{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" && actor.SubjectID != userID {
		return ClaimResult{}, domain.ErrForbidden
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return ClaimResult{}, domain.ErrIdempotencyRequired
	}
	poolID = strings.TrimSpace(poolID)
	userID = strings.TrimSpace(userID)
	if poolID == "" || userID == "" {
		return ClaimResult{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(map[string]any{"op": "claim", "pool": poolID, "user": userID})
	if raw, ok, err := s.getIdempotent(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return ClaimResult{}, err
	} else if ok {
		var out ClaimResult
		if json.Unmarshal(raw, &out) == nil {
			return out, nil
		}
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return ClaimResult{}, err
	}

	now := s.nowFn()
	var claimed int64
	pool, stake, err := s.pools.MutateWithStake(ctx, poolID, userID, func(p *domain.StakingPool, st *domain.UserStake) error {
		domain.SettleStake(st, p)
		claimed = st.PendingSettled
		if claimed > p.PendingRewards {
			// Flooring keeps per-staker sums at or below the pool balance;
			// this clamp guards against historical drift only. The excess
			// stays settled on the stake for a later claim.
			claimed = p.PendingRewards
		}
		if claimed <= 0 {
			return domain.ErrNoRewardsToClaim
		}
		st.PendingSettled -= claimed
		st.TotalClaimed += claimed
		st.UpdatedAt = now
		p.PendingRewards -= claimed
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return ClaimResult{}, err
	}
	_ = s.invalidatePool(ctx, pool.PoolID)
	result := ClaimResult{PoolID: poolID, UserID: userID, Claimed: claimed, TotalClaimed: stake.TotalClaimed}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, result)
	return result, nil
}

func (s *Service) GetPool(ctx context.Context, poolID string) (domain.StakingPool, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return domain.StakingPool{}, domain.ErrInvalidInput
	}
	if s.cache != nil {
		if pool, ok, err := s.cache.Get(ctx, poolID); err == nil && ok {
			return pool, nil
		}
	}
	pool, err := s.pools.Get(ctx, poolID)
	if err != nil {
		return domain.StakingPool{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, pool, s.cfg.PoolCacheTTL)
	}
	return pool, nil
}

func (s *Service) ListPools(ctx context.Context, limit, offset int) (PoolListOutput, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.pools.List(ctx, limit, offset)
	if err != nil {
		return PoolListOutput{}, err
	}
	return PoolListOutput{Items: items, Total: total}, nil
}

func (s *Service) GetStake(ctx context.Context, poolID, userID string) (StakePosition, error) {
	pool, err := s.pools.Get(ctx, strings.TrimSpace(poolID))
	if err != nil {
		return StakePosition{}, err
	}
	stake, err := s.stakes.Get(ctx, pool.PoolID, strings.TrimSpace(userID))
	if err != nil {
		return StakePosition{}, err
	}
	return stakePosition(pool, stake), nil
}

func (s *Service) ListPoolStakes(ctx context.Context, poolID string, limit, offset int) (StakeListOutput, error) {
	pool, err := s.pools.Get(ctx, strings.TrimSpace(poolID))
	if err != nil {
		return StakeListOutput{}, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.stakes.ListByPool(ctx, pool.PoolID, limit, offset)
	if err != nil {
		return StakeListOutput{}, err
	}
	out := make([]StakePosition, 0, len(items))
	for _, stake := range items {
		out = append(out, stakePosition(pool, stake))
	}
	return StakeListOutput{Items: out, Total: total}, nil
}

func (s *Service) ListUserStakes(ctx context.Context, userID string) ([]StakePosition, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	stakes, err := s.stakes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]StakePosition, 0, len(stakes))
	for _, stake := range stakes {
		pool, err := s.pools.Get(ctx, stake.PoolID)
		if err != nil {
			return nil, err
		}
		out = append(out, stakePosition(pool, stake))
	}
	return out, nil
}

func (s *Service) invalidatePool(ctx context.Context, poolID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, poolID)
}

func (s *Service) getIdempotent(ctx context.Context, key, expectedHash string) ([]byte, bool, error) {
	record, err := s.idempotency.Get(ctx, key, s.nowFn())
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}
	if record.RequestHash != expectedHash {
		return nil, false, domain.ErrIdempotencyConflict
	}
	return record.ResponseBody, len(record.ResponseBody) > 0, nil
}

func (s *Service) reserveIdempotency(ctx context.Context, key, requestHash string) error {
	return s.idempotency.Reserve(ctx, key, requestHash, s.nowFn().Add(s.cfg.IdempotencyTTL))
}

func (s *Service) completeIdempotencyJSON(ctx context.Context, key string, code int, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.idempotency.Complete(ctx, key, code, blob, s.nowFn())
}

func hashJSON(v any) string {
	blob, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
