package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

// ProcessConversion attributes a completed conversion to the influencers in its
// touchpoint window and persists one record per influencer. Reprocessing a
// conversion that already has records is a no-op returning the stored set, so
// at-least-once redelivery never double-credits.
func (s *Service) ProcessConversion(ctx context.Context, in ProcessConversionInput) (AttributionResult, error) {
	in.ConversionID = strings.TrimSpace(in.ConversionID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.ConversionID == "" || in.UserID == "" || in.ProductID == "" || in.Amount <= 0 {
		return AttributionResult{}, domain.ErrInvalidInput
	}
	now := s.nowFn()
	if in.OccurredAt.IsZero() {
		in.OccurredAt = now
	}

	exists, err := s.attributions.ExistsForConversion(ctx, in.ConversionID)
	if err != nil {
		return AttributionResult{}, err
	}
	if exists {
		records, listErr := s.attributions.ListByConversion(ctx, in.ConversionID)
		if listErr != nil {
			return AttributionResult{}, listErr
		}
		model := s.cfg.DefaultModel
		if len(records) > 0 {
			model = records[0].Model
		}
		return AttributionResult{ConversionID: in.ConversionID, Model: model, Records: records, Replayed: true}, nil
	}

	conversion := domain.Conversion{
		ConversionID: in.ConversionID,
		UserID:       in.UserID,
		ProductID:    in.ProductID,
		Amount:       in.Amount,
		OccurredAt:   in.OccurredAt,
	}
	if err := s.conversions.Save(ctx, conversion); err != nil && !errors.Is(err, domain.ErrConflict) {
		// A conflicting save with no records means a previous attempt died
		// between the two writes; carry on and finish the attribution.
		return AttributionResult{}, fmt.Errorf("save conversion: %w", err)
	}

	model, err := s.resolveModel(ctx, in.Model, in.ProductID)
	if err != nil {
		return AttributionResult{}, err
	}

	points, err := s.touchpoints.ListWindow(ctx, in.UserID, in.ProductID, in.OccurredAt, s.cfg.AttributionWindow)
	if err != nil {
		return AttributionResult{}, fmt.Errorf("load touchpoint window: %w", err)
	}

	splits, err := domain.CalculateAttribution(conversion, points, model)
	if err != nil {
		return AttributionResult{}, err
	}
	if len(splits) == 0 {
		// No eligible touchpoints: the conversion stays unattributed.
		return AttributionResult{ConversionID: in.ConversionID, Model: model}, nil
	}

	records := make([]domain.AttributionRecord, 0, len(splits))
	for _, split := range splits {
		records = append(records, domain.AttributionRecord{
			ConversionID:    in.ConversionID,
			InfluencerID:    split.InfluencerID,
			PercentBps:      split.PercentBps,
			EarnedAmount:    split.EarnedAmount,
			Model:           model,
			TouchpointCount: split.TouchpointCount,
			FirstTouchAt:    split.FirstTouchAt,
			LastTouchAt:     split.LastTouchAt,
			CreatedAt:       now,
		})
	}
	if err := s.attributions.SaveRecords(ctx, records); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			stored, listErr := s.attributions.ListByConversion(ctx, in.ConversionID)
			if listErr != nil {
				return AttributionResult{}, listErr
			}
			return AttributionResult{ConversionID: in.ConversionID, Model: model, Records: stored, Replayed: true}, nil
		}
		return AttributionResult{}, fmt.Errorf("save attribution records: %w", err)
	}

	_ = s.enqueueAttributionCalculated(ctx, conversion, model, records)
	if s.cfg.EnableAutoDistribution {
		s.enqueueEarningDistributions(ctx, in.ConversionID, records)
	}
	return AttributionResult{ConversionID: in.ConversionID, Model: model, Records: records}, nil
}

// enqueueEarningDistributions feeds each influencer's earned amount into the
// distribution queue. Delivery is at-least-once; the distribution id derived
// from (conversion, influencer) makes redelivery safe.
func (s *Service) enqueueEarningDistributions(ctx context.Context, conversionID string, records []domain.AttributionRecord) {
	for _, record := range records {
		if record.EarnedAmount <= 0 {
			continue
		}
		pool, err := s.pools.GetByInfluencer(ctx, record.InfluencerID)
		if err != nil {
			continue
		}
		_ = s.enqueueRevenueEarned(ctx, pool.PoolID, record.EarnedAmount, conversionID+":"+record.InfluencerID)
	}
}

func (s *Service) RecordTouchpoint(ctx context.Context, in RecordTouchpointInput) (domain.Touchpoint, error) {
	in.InfluencerID = strings.TrimSpace(in.InfluencerID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.InfluencerID == "" || in.UserID == "" || in.ProductID == "" {
		return domain.Touchpoint{}, domain.ErrInvalidInput
	}
	if in.ClickedAt.IsZero() {
		in.ClickedAt = s.nowFn()
	}
	point := domain.Touchpoint{
		InfluencerID: in.InfluencerID,
		LinkCode:     strings.TrimSpace(in.LinkCode),
		UserID:       in.UserID,
		ProductID:    in.ProductID,
		ClickedAt:    in.ClickedAt,
	}
	if err := s.touchpoints.Append(ctx, point); err != nil {
		return domain.Touchpoint{}, err
	}
	return point, nil
}

func (s *Service) GetAttribution(ctx context.Context, conversionID string) ([]domain.AttributionRecord, error) {
	conversionID = strings.TrimSpace(conversionID)
	if conversionID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.attributions.ListByConversion(ctx, conversionID)
}

func (s *Service) ListInfluencerAttributions(ctx context.Context, influencerID string, limit, offset int) ([]domain.AttributionRecord, int, error) {
	influencerID = strings.TrimSpace(influencerID)
	if influencerID == "" {
		return nil, 0, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.attributions.ListByInfluencer(ctx, influencerID, limit, offset)
}

// resolveModel picks the attribution model: explicit request, then per-product
// configuration, then the service default.
func (s *Service) resolveModel(ctx context.Context, explicit, productID string) (domain.AttributionModel, error) {
	if strings.TrimSpace(explicit) != "" {
		return domain.ParseAttributionModel(explicit)
	}
	if s.modelConfig != nil {
		model, err := s.modelConfig.GetModel(ctx, productID)
		if err == nil && model != "" {
			return model, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("model config lookup: %w", err)
		}
	}
	return s.cfg.DefaultModel, nil
}
