package postgres

import (
	"context"
	"time"

	"github.com/twistlabs/influencer-staking/internal/ports"
	"gorm.io/gorm"
)

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	rec := outboxModel{
		OutboxID:     record.OutboxID,
		EventType:    record.EventType,
		PartitionKey: record.PartitionKey,
		Payload:      string(record.Payload),
		TraceID:      record.TraceID,
		CreatedAt:    record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *outboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at asc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.OutboxRecord{
			OutboxID: row.OutboxID, EventType: row.EventType, PartitionKey: row.PartitionKey,
			Payload: []byte(row.Payload), TraceID: row.TraceID, CreatedAt: row.CreatedAt,
			PublishedAt: row.PublishedAt, RetryCount: row.RetryCount,
		})
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, outboxID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).Update("published_at", at).Error
}

func (r *outboxRepository) MarkFailed(ctx context.Context, outboxID string, reason string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).Updates(map[string]any{
		"retry_count":   gorm.Expr("retry_count + 1"),
		"last_error":    reason,
		"last_error_at": at,
	}).Error
}
