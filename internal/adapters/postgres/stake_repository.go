package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/twistlabs/influencer-staking/internal/domain"
	"gorm.io/gorm"
)

type stakeRepository struct {
	db *gorm.DB
}

func (r *stakeRepository) Get(ctx context.Context, poolID, userID string) (domain.UserStake, error) {
	var rec stakeModel
	err := r.db.WithContext(ctx).
		Where("pool_id = ? AND user_id = ?", strings.TrimSpace(poolID), strings.TrimSpace(userID)).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserStake{}, domain.ErrNotFound
		}
		return domain.UserStake{}, err
	}
	return toDomainStake(rec), nil
}

func (r *stakeRepository) ListByPool(ctx context.Context, poolID string, limit, offset int) ([]domain.UserStake, int, error) {
	poolID = strings.TrimSpace(poolID)
	var total int64
	if err := r.db.WithContext(ctx).Model(&stakeModel{}).Where("pool_id = ?", poolID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []stakeModel
	if err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("user_id asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.UserStake, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainStake(row))
	}
	return out, int(total), nil
}

func (r *stakeRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserStake, error) {
	var rows []stakeModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("pool_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.UserStake, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainStake(row))
	}
	return out, nil
}
