package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
	"gorm.io/gorm"
)

type conversionRepository struct {
	db *gorm.DB
}

func (r *conversionRepository) Save(ctx context.Context, conversion domain.Conversion) error {
	rec := conversionModel{
		ConversionID: conversion.ConversionID,
		UserID:       conversion.UserID,
		ProductID:    conversion.ProductID,
		Amount:       conversion.Amount,
		OccurredAt:   conversion.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *conversionRepository) Get(ctx context.Context, conversionID string) (domain.Conversion, error) {
	var rec conversionModel
	if err := r.db.WithContext(ctx).Where("conversion_id = ?", strings.TrimSpace(conversionID)).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Conversion{}, domain.ErrNotFound
		}
		return domain.Conversion{}, err
	}
	return toDomainConversion(rec), nil
}

type touchpointRepository struct {
	db *gorm.DB
}

func (r *touchpointRepository) Append(ctx context.Context, point domain.Touchpoint) error {
	rec := touchpointModel{
		InfluencerID: point.InfluencerID,
		LinkCode:     point.LinkCode,
		UserID:       point.UserID,
		ProductID:    point.ProductID,
		ClickedAt:    point.ClickedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *touchpointRepository) ListWindow(ctx context.Context, userID, productID string, until time.Time, window time.Duration) ([]domain.Touchpoint, error) {
	cutoff := until.Add(-window)
	var rows []touchpointModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND clicked_at > ? AND clicked_at <= ?",
			strings.TrimSpace(userID), strings.TrimSpace(productID), cutoff, until).
		Order("clicked_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Touchpoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainTouchpoint(row))
	}
	return out, nil
}

type attributionRepository struct {
	db *gorm.DB
}

func (r *attributionRepository) ExistsForConversion(ctx context.Context, conversionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&attributionModel{}).
		Where("conversion_id = ?", strings.TrimSpace(conversionID)).Count(&count).Error
	return count > 0, err
}

func (r *attributionRepository) SaveRecords(ctx context.Context, records []domain.AttributionRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]attributionModel, 0, len(records))
	for _, record := range records {
		rows = append(rows, fromDomainAttribution(record))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *attributionRepository) ListByConversion(ctx context.Context, conversionID string) ([]domain.AttributionRecord, error) {
	var rows []attributionModel
	if err := r.db.WithContext(ctx).
		Where("conversion_id = ?", strings.TrimSpace(conversionID)).
		Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AttributionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAttribution(row))
	}
	return out, nil
}

func (r *attributionRepository) ListByInfluencer(ctx context.Context, influencerID string, limit, offset int) ([]domain.AttributionRecord, int, error) {
	influencerID = strings.TrimSpace(influencerID)
	var total int64
	if err := r.db.WithContext(ctx).Model(&attributionModel{}).
		Where("influencer_id = ?", influencerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []attributionModel
	if err := r.db.WithContext(ctx).
		Where("influencer_id = ?", influencerID).
		Order("created_at asc, id asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.AttributionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAttribution(row))
	}
	return out, int(total), nil
}
