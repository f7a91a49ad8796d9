package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
	"github.com/twistlabs/influencer-staking/internal/ports"
	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", key, now).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := &ports.IdempotencyRecord{
		Key: rec.IdempotencyKey, RequestHash: rec.RequestHash,
		ResponseCode: rec.ResponseCode, ExpiresAt: rec.ExpiresAt,
	}
	if rec.ResponseBody != nil {
		out.ResponseBody = []byte(*rec.ResponseBody)
	}
	return out, nil
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	rec := idempotencyModel{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		Status:         "reserved",
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := r.db.WithContext(ctx).Create(&rec).Error
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	var existing idempotencyModel
	if takeErr := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&existing).Error; takeErr != nil {
		return takeErr
	}
	if existing.RequestHash != requestHash {
		return domain.ErrIdempotencyConflict
	}
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	payload := string(responseBody)
	return r.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"status":        "completed",
			"response_code": responseCode,
			"response_body": payload,
			"updated_at":    at,
		}).Error
}
