package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// poolRepository serializes pool mutations with a SELECT ... FOR UPDATE on the
// pool row; stake rows and distribution events ride the same transaction.
type poolRepository struct {
	db *gorm.DB
}

func (r *poolRepository) Create(ctx context.Context, pool domain.StakingPool) error {
	rec := fromDomainPool(pool)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *poolRepository) Get(ctx context.Context, poolID string) (domain.StakingPool, error) {
	var rec poolModel
	if err := r.db.WithContext(ctx).Where("pool_id = ?", strings.TrimSpace(poolID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StakingPool{}, domain.ErrNotFound
		}
		return domain.StakingPool{}, err
	}
	return toDomainPool(rec), nil
}

func (r *poolRepository) GetByInfluencer(ctx context.Context, influencerID string) (domain.StakingPool, error) {
	var rec poolModel
	if err := r.db.WithContext(ctx).Where("influencer_id = ?", strings.TrimSpace(influencerID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StakingPool{}, domain.ErrNotFound
		}
		return domain.StakingPool{}, err
	}
	return toDomainPool(rec), nil
}

func (r *poolRepository) List(ctx context.Context, limit, offset int) ([]domain.StakingPool, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&poolModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []poolModel
	if err := r.db.WithContext(ctx).Order("created_at asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.StakingPool, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPool(row))
	}
	return out, int(total), nil
}

func (r *poolRepository) Mutate(ctx context.Context, poolID string, fn func(pool *domain.StakingPool) error) (domain.StakingPool, error) {
	var out domain.StakingPool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec poolModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pool_id = ?", strings.TrimSpace(poolID)).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		pool := toDomainPool(rec)
		if err := fn(&pool); err != nil {
			return err
		}
		out = pool
		return tx.Model(&poolModel{}).Where("pool_id = ?", pool.PoolID).Updates(poolUpdates(pool)).Error
	})
	if err != nil {
		return domain.StakingPool{}, err
	}
	return out, nil
}

func (r *poolRepository) MutateWithStake(ctx context.Context, poolID, userID string, fn func(pool *domain.StakingPool, stake *domain.UserStake) error) (domain.StakingPool, domain.UserStake, error) {
	poolID = strings.TrimSpace(poolID)
	userID = strings.TrimSpace(userID)
	var outPool domain.StakingPool
	var outStake domain.UserStake
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var poolRec poolModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pool_id = ?", poolID).Take(&poolRec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		var stakeRec stakeModel
		stakeExists := true
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pool_id = ? AND user_id = ?", poolID, userID).Take(&stakeRec).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			stakeExists = false
			stakeRec = stakeModel{PoolID: poolID, UserID: userID, RewardCheckpoint: "0"}
		}

		pool := toDomainPool(poolRec)
		stake := toDomainStake(stakeRec)
		if err := fn(&pool, &stake); err != nil {
			return err
		}
		outPool = pool
		outStake = stake

		if err := tx.Model(&poolModel{}).Where("pool_id = ?", pool.PoolID).Updates(poolUpdates(pool)).Error; err != nil {
			return err
		}
		updatedStake := fromDomainStake(stake)
		if stakeExists {
			return tx.Model(&stakeModel{}).
				Where("pool_id = ? AND user_id = ?", poolID, userID).
				Select("amount", "reward_checkpoint", "pending_settled", "total_claimed", "is_active", "staked_at", "updated_at").
				Updates(&updatedStake).Error
		}
		return tx.Create(&updatedStake).Error
	})
	if err != nil {
		return domain.StakingPool{}, domain.UserStake{}, err
	}
	return outPool, outStake, nil
}

func (r *poolRepository) ApplyDistribution(ctx context.Context, poolID, distributionID string, fn func(pool *domain.StakingPool) (domain.RewardDistributionEvent, error)) (domain.RewardDistributionEvent, bool, error) {
	poolID = strings.TrimSpace(poolID)
	distributionID = strings.TrimSpace(distributionID)
	var out domain.RewardDistributionEvent
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing distributionModel
		err := tx.Where("distribution_id = ?", distributionID).Take(&existing).Error
		if err == nil {
			out = toDomainDistribution(existing)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var poolRec poolModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pool_id = ?", poolID).Take(&poolRec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		pool := toDomainPool(poolRec)
		event, err := fn(&pool)
		if err != nil {
			return err
		}

		if err := tx.Model(&poolModel{}).Where("pool_id = ?", pool.PoolID).Updates(poolUpdates(pool)).Error; err != nil {
			return err
		}
		rec := fromDomainDistribution(event)
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race against a concurrent replay of the same id. The
				// transaction rolls back and the caller sees the stored event.
				return domain.ErrConflict
			}
			return err
		}
		out = event
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			stored, getErr := r.GetDistribution(ctx, distributionID)
			if getErr != nil {
				return domain.RewardDistributionEvent{}, false, getErr
			}
			return stored, false, nil
		}
		return domain.RewardDistributionEvent{}, false, err
	}
	return out, applied, nil
}

func (r *poolRepository) GetDistribution(ctx context.Context, distributionID string) (domain.RewardDistributionEvent, error) {
	var rec distributionModel
	if err := r.db.WithContext(ctx).Where("distribution_id = ?", strings.TrimSpace(distributionID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RewardDistributionEvent{}, domain.ErrNotFound
		}
		return domain.RewardDistributionEvent{}, err
	}
	return toDomainDistribution(rec), nil
}

func (r *poolRepository) ListDistributionsSince(ctx context.Context, poolID string, since time.Time) ([]domain.RewardDistributionEvent, error) {
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("pool_id = ? AND distributed_at > ?", strings.TrimSpace(poolID), since).
		Order("distributed_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RewardDistributionEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainDistribution(row))
	}
	return out, nil
}
