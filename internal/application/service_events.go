package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/twistlabs/influencer-staking/internal/contracts"
	"github.com/twistlabs/influencer-staking/internal/domain"
	"github.com/twistlabs/influencer-staking/internal/ports"
)

// HandleDomainEvent consumes one envelope from the at-least-once queue.
// Duplicate event ids are dropped; the per-operation idempotency keys guard
// against redelivery that arrives under a fresh event id.
func (s *Service) HandleDomainEvent(ctx context.Context, event contracts.EventEnvelope) error {
	if !isSupportedEventType(event.EventType) {
		return domain.ErrUnsupportedEventType
	}
	if event.EventClass != "" && event.EventClass != domain.CanonicalEventClassDomain {
		return domain.ErrUnsupportedEventType
	}
	if err := validateEnvelope(event, partitionPathsFor(event.EventType)...); err != nil {
		return err
	}

	now := s.nowFn()
	dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}

	switch event.EventType {
	case domain.EventConversionRecorded:
		var payload contracts.ConversionRecordedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode conversion.recorded payload: %w", err)
		}
		occurredAt := now
		if parsed, parseErr := time.Parse(time.RFC3339, payload.OccurredAt); parseErr == nil {
			occurredAt = parsed
		}
		_, err = s.ProcessConversion(ctx, ProcessConversionInput{
			ConversionID: payload.ConversionID,
			UserID:       payload.UserID,
			ProductID:    payload.ProductID,
			Amount:       payload.Amount,
			OccurredAt:   occurredAt,
		})
	case domain.EventTouchpointRecorded:
		var payload contracts.TouchpointRecordedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode touchpoint.recorded payload: %w", err)
		}
		clickedAt := now
		if parsed, parseErr := time.Parse(time.RFC3339, payload.ClickedAt); parseErr == nil {
			clickedAt = parsed
		}
		_, err = s.RecordTouchpoint(ctx, RecordTouchpointInput{
			InfluencerID: payload.InfluencerID,
			LinkCode:     payload.LinkCode,
			UserID:       payload.UserID,
			ProductID:    payload.ProductID,
			ClickedAt:    clickedAt,
		})
	case domain.EventStakeChanged:
		var payload contracts.StakeChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode stake.changed payload: %w", err)
		}
		in := StakeInput{PoolID: payload.PoolID, UserID: payload.UserID, Amount: payload.Amount}
		switch strings.ToLower(strings.TrimSpace(payload.Direction)) {
		case "stake":
			_, err = s.stakeWithKey(ctx, in, "event:"+event.EventID)
		case "unstake":
			_, err = s.unstakeWithKey(ctx, in, "event:"+event.EventID)
		default:
			err = domain.ErrInvalidInput
		}
	case domain.EventRevenueEarned:
		var payload contracts.RevenueEarnedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("decode revenue.earned payload: %w", err)
		}
		_, err = s.Distribute(ctx, DistributeInput{
			PoolID:         payload.PoolID,
			EarningAmount:  payload.EarningAmount,
			DistributionID: payload.DistributionID,
		})
	default:
		err = domain.ErrUnsupportedEventType
	}
	if err != nil {
		return err
	}

	return s.eventDedup.MarkProcessed(ctx, event.EventID, event.EventType, now.Add(s.cfg.EventDedupTTL))
}

func isSupportedEventType(eventType string) bool {
	switch eventType {
	case domain.EventConversionRecorded,
		domain.EventTouchpointRecorded,
		domain.EventStakeChanged,
		domain.EventRevenueEarned:
		return true
	default:
		return false
	}
}

func partitionPathsFor(eventType string) []string {
	switch eventType {
	case domain.EventConversionRecorded:
		return []string{"data.conversion_id", "conversion_id"}
	case domain.EventTouchpointRecorded:
		return []string{"data.user_id", "user_id"}
	default:
		return []string{"data.pool_id", "pool_id"}
	}
}

func validateEnvelope(event contracts.EventEnvelope, allowedPartitionPaths ...string) error {
	if strings.TrimSpace(event.EventID) == "" {
		return fmt.Errorf("%w: missing event_id", domain.ErrInvalidEnvelope)
	}
	if event.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing occurred_at", domain.ErrInvalidEnvelope)
	}
	if strings.TrimSpace(event.SourceService) == "" {
		return fmt.Errorf("%w: missing source_service", domain.ErrInvalidEnvelope)
	}
	if strings.TrimSpace(event.SchemaVersion) == "" {
		return fmt.Errorf("%w: missing schema_version", domain.ErrInvalidEnvelope)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("%w: missing data payload", domain.ErrInvalidEnvelope)
	}

	allowed := false
	for _, path := range allowedPartitionPaths {
		if event.PartitionKeyPath == path {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: expected partition_key_path %s", domain.ErrInvalidEnvelope, allowedPartitionPaths[0])
	}
	field := strings.TrimPrefix(event.PartitionKeyPath, "data.")
	var payload map[string]any
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("%w: invalid data payload", domain.ErrInvalidEnvelope)
	}
	value, ok := payload[field]
	if !ok {
		return fmt.Errorf("%w: partition key field %s missing from payload", domain.ErrInvalidEnvelope, field)
	}
	if fmt.Sprint(value) != event.PartitionKey {
		return fmt.Errorf("%w: partition key invariant failed", domain.ErrInvalidEnvelope)
	}
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKeyPath, partitionKey string, data any, occurredAt time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       occurredAt,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          uuid.NewString(),
		SchemaVersion:    "v1",
		Data:             payload,
	}
	blob, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		OutboxID:     uuid.NewString(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      blob,
		TraceID:      envelope.TraceID,
		CreatedAt:    s.nowFn(),
	})
}

func (s *Service) enqueueAttributionCalculated(ctx context.Context, conversion domain.Conversion, model domain.AttributionModel, records []domain.AttributionRecord) error {
	out := make([]contracts.AttributionRecordPayload, 0, len(records))
	for _, record := range records {
		out = append(out, contracts.AttributionRecordPayload{
			InfluencerID:    record.InfluencerID,
			Percent:         float64(record.PercentBps) / 100,
			PercentBps:      record.PercentBps,
			EarnedAmount:    record.EarnedAmount,
			TouchpointCount: record.TouchpointCount,
		})
	}
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventAttributionCalculated, "data.conversion_id", conversion.ConversionID, contracts.AttributionCalculatedPayload{
		ConversionID: conversion.ConversionID,
		Model:        string(model),
		Amount:       conversion.Amount,
		Records:      out,
		CalculatedAt: now.Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueueRewardsDistributed(ctx context.Context, event domain.RewardDistributionEvent) error {
	return s.enqueueEvent(ctx, domain.EventRewardsDistributed, "data.pool_id", event.PoolID, contracts.RewardsDistributedPayload{
		PoolID:          event.PoolID,
		DistributionID:  event.DistributionID,
		EarningAmount:   event.EarningAmount,
		StakerShare:     event.StakerShare,
		InfluencerShare: event.InfluencerShare,
		TotalStaked:     event.TotalStaked,
		DistributedAt:   event.DistributedAt.Format(time.RFC3339),
	}, event.DistributedAt)
}

func (s *Service) enqueueRevenueEarned(ctx context.Context, poolID string, earningAmount int64, distributionID string) error {
	return s.enqueueEvent(ctx, domain.EventRevenueEarned, "data.pool_id", poolID, contracts.RevenueEarnedPayload{
		PoolID:         poolID,
		EarningAmount:  earningAmount,
		DistributionID: distributionID,
	}, s.nowFn())
}

func (s *Service) enqueueTierChanged(ctx context.Context, pool domain.StakingPool, oldTier domain.Tier) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventTierChanged, "data.pool_id", pool.PoolID, contracts.TierChangedPayload{
		PoolID:      pool.PoolID,
		OldTier:     string(oldTier),
		NewTier:     string(pool.CurrentTier),
		TotalStaked: pool.TotalStaked,
		ChangedAt:   now.Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueueApyUpdated(ctx context.Context, pool domain.StakingPool) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventApyUpdated, "data.pool_id", pool.PoolID, contracts.ApyUpdatedPayload{
		PoolID:    pool.PoolID,
		Apy:       float64(pool.CurrentApyBps) / 100,
		ApyBps:    pool.CurrentApyBps,
		UpdatedAt: now.Format(time.RFC3339),
	}, now)
}

func (s *Service) enqueuePoolCreated(ctx context.Context, pool domain.StakingPool) error {
	return s.enqueueEvent(ctx, domain.EventPoolCreated, "data.pool_id", pool.PoolID, contracts.PoolCreatedPayload{
		PoolID:          pool.PoolID,
		InfluencerID:    pool.InfluencerID,
		RevenueShareBps: pool.RevenueShareBps,
		MinStake:        pool.MinStake,
		CreatedAt:       pool.CreatedAt.Format(time.RFC3339),
	}, pool.CreatedAt)
}

func (s *Service) enqueuePoolUpdated(ctx context.Context, pool domain.StakingPool, oldShareBps int) error {
	now := s.nowFn()
	return s.enqueueEvent(ctx, domain.EventPoolUpdated, "data.pool_id", pool.PoolID, contracts.PoolUpdatedPayload{
		PoolID:      pool.PoolID,
		OldShareBps: oldShareBps,
		NewShareBps: pool.RevenueShareBps,
		UpdatedAt:   now.Format(time.RFC3339),
	}, now)
}
