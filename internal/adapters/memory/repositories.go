// Package memory provides map-backed implementations of the persistence ports.
// The API and worker fall back to it when no database is configured; the unit
// tests run against it directly.
package memory

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
	"github.com/twistlabs/influencer-staking/internal/ports"
)

type Repositories struct {
	Pools        *PoolRepository
	Stakes       *StakeRepository
	Conversions  *ConversionRepository
	Touchpoints  *TouchpointRepository
	Attributions *AttributionRepository
	Outbox       *OutboxRepository
	EventDedup   *EventDedupRepository
	Idempotency  *IdempotencyRepository
}

func NewRepositories() *Repositories {
	pools := &PoolRepository{
		byID:          map[string]domain.StakingPool{},
		byInfluencer:  map[string]string{},
		stakes:        map[string]map[string]domain.UserStake{},
		distributions: map[string]domain.RewardDistributionEvent{},
		distOrder:     map[string][]string{},
	}
	return &Repositories{
		Pools:        pools,
		Stakes:       &StakeRepository{pools: pools},
		Conversions:  &ConversionRepository{rows: map[string]domain.Conversion{}},
		Touchpoints:  &TouchpointRepository{rows: map[string][]domain.Touchpoint{}},
		Attributions: &AttributionRepository{byConversion: map[string][]domain.AttributionRecord{}, byInfluencer: map[string][]string{}},
		Outbox:       &OutboxRepository{rows: map[string]ports.OutboxRecord{}, order: []string{}},
		EventDedup:   &EventDedupRepository{rows: map[string]time.Time{}},
		Idempotency:  &IdempotencyRepository{rows: map[string]ports.IdempotencyRecord{}},
	}
}

// PoolRepository keeps a pool, its stakes, and its distribution events under a
// single mutex so the Mutate* closures see a consistent snapshot.
type PoolRepository struct {
	mu            sync.Mutex
	byID          map[string]domain.StakingPool
	byInfluencer  map[string]string
	stakes        map[string]map[string]domain.UserStake
	distributions map[string]domain.RewardDistributionEvent
	distOrder     map[string][]string
}

func clonePool(pool domain.StakingPool) domain.StakingPool {
	if pool.RewardIndex != nil {
		pool.RewardIndex = new(big.Int).Set(pool.RewardIndex)
	}
	return pool
}

func cloneStake(stake domain.UserStake) domain.UserStake {
	if stake.RewardCheckpoint != nil {
		stake.RewardCheckpoint = new(big.Int).Set(stake.RewardCheckpoint)
	}
	return stake
}

func (r *PoolRepository) Create(_ context.Context, pool domain.StakingPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[pool.PoolID]; ok {
		return domain.ErrConflict
	}
	if _, ok := r.byInfluencer[pool.InfluencerID]; ok {
		return domain.ErrConflict
	}
	r.byID[pool.PoolID] = clonePool(pool)
	r.byInfluencer[pool.InfluencerID] = pool.PoolID
	r.stakes[pool.PoolID] = map[string]domain.UserStake{}
	return nil
}

func (r *PoolRepository) Get(_ context.Context, poolID string) (domain.StakingPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.byID[strings.TrimSpace(poolID)]
	if !ok {
		return domain.StakingPool{}, domain.ErrNotFound
	}
	return clonePool(pool), nil
}

func (r *PoolRepository) GetByInfluencer(_ context.Context, influencerID string) (domain.StakingPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byInfluencer[strings.TrimSpace(influencerID)]
	if !ok {
		return domain.StakingPool{}, domain.ErrNotFound
	}
	return clonePool(r.byID[id]), nil
}

func (r *PoolRepository) List(_ context.Context, limit, offset int) ([]domain.StakingPool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.byID[ids[i]].CreatedAt.Before(r.byID[ids[j]].CreatedAt)
	})
	total := len(ids)
	if offset >= total {
		return []domain.StakingPool{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]domain.StakingPool, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, clonePool(r.byID[id]))
	}
	return out, total, nil
}

func (r *PoolRepository) Mutate(_ context.Context, poolID string, fn func(pool *domain.StakingPool) error) (domain.StakingPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[strings.TrimSpace(poolID)]
	if !ok {
		return domain.StakingPool{}, domain.ErrNotFound
	}
	pool := clonePool(stored)
	if err := fn(&pool); err != nil {
		return domain.StakingPool{}, err
	}
	r.byID[pool.PoolID] = clonePool(pool)
	return pool, nil
}

func (r *PoolRepository) MutateWithStake(_ context.Context, poolID, userID string, fn func(pool *domain.StakingPool, stake *domain.UserStake) error) (domain.StakingPool, domain.UserStake, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poolID = strings.TrimSpace(poolID)
	userID = strings.TrimSpace(userID)
	stored, ok := r.byID[poolID]
	if !ok {
		return domain.StakingPool{}, domain.UserStake{}, domain.ErrNotFound
	}
	pool := clonePool(stored)
	stake, ok := r.stakes[poolID][userID]
	if !ok {
		stake = domain.UserStake{PoolID: poolID, UserID: userID, RewardCheckpoint: new(big.Int)}
	}
	stake = cloneStake(stake)
	if err := fn(&pool, &stake); err != nil {
		return domain.StakingPool{}, domain.UserStake{}, err
	}
	r.byID[pool.PoolID] = clonePool(pool)
	r.stakes[poolID][userID] = cloneStake(stake)
	return pool, stake, nil
}

func (r *PoolRepository) ApplyDistribution(_ context.Context, poolID, distributionID string, fn func(pool *domain.StakingPool) (domain.RewardDistributionEvent, error)) (domain.RewardDistributionEvent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event, ok := r.distributions[distributionID]; ok {
		return event, false, nil
	}
	stored, ok := r.byID[strings.TrimSpace(poolID)]
	if !ok {
		return domain.RewardDistributionEvent{}, false, domain.ErrNotFound
	}
	pool := clonePool(stored)
	event, err := fn(&pool)
	if err != nil {
		return domain.RewardDistributionEvent{}, false, err
	}
	r.byID[pool.PoolID] = clonePool(pool)
	r.distributions[distributionID] = event
	r.distOrder[pool.PoolID] = append(r.distOrder[pool.PoolID], distributionID)
	return event, true, nil
}

func (r *PoolRepository) GetDistribution(_ context.Context, distributionID string) (domain.RewardDistributionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.distributions[strings.TrimSpace(distributionID)]
	if !ok {
		return domain.RewardDistributionEvent{}, domain.ErrNotFound
	}
	return event, nil
}

func (r *PoolRepository) ListDistributionsSince(_ context.Context, poolID string, since time.Time) ([]domain.RewardDistributionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RewardDistributionEvent{}
	for _, id := range r.distOrder[strings.TrimSpace(poolID)] {
		event := r.distributions[id]
		if event.DistributedAt.After(since) {
			out = append(out, event)
		}
	}
	return out, nil
}

// StakeRepository is a read-only view over the pool repository's stake rows.
// All writes go through PoolRepository.MutateWithStake.
type StakeRepository struct {
	pools *PoolRepository
}

func (r *StakeRepository) Get(_ context.Context, poolID, userID string) (domain.UserStake, error) {
	r.pools.mu.Lock()
	defer r.pools.mu.Unlock()
	stake, ok := r.pools.stakes[strings.TrimSpace(poolID)][strings.TrimSpace(userID)]
	if !ok {
		return domain.UserStake{}, domain.ErrNotFound
	}
	return cloneStake(stake), nil
}

func (r *StakeRepository) ListByPool(_ context.Context, poolID string, limit, offset int) ([]domain.UserStake, int, error) {
	r.pools.mu.Lock()
	defer r.pools.mu.Unlock()
	rows := r.pools.stakes[strings.TrimSpace(poolID)]
	users := make([]string, 0, len(rows))
	for user := range rows {
		users = append(users, user)
	}
	sort.Strings(users)
	total := len(users)
	if offset >= total {
		return []domain.UserStake{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]domain.UserStake, 0, end-offset)
	for _, user := range users[offset:end] {
		out = append(out, cloneStake(rows[user]))
	}
	return out, total, nil
}

func (r *StakeRepository) ListByUser(_ context.Context, userID string) ([]domain.UserStake, error) {
	r.pools.mu.Lock()
	defer r.pools.mu.Unlock()
	userID = strings.TrimSpace(userID)
	poolIDs := make([]string, 0, len(r.pools.stakes))
	for poolID := range r.pools.stakes {
		poolIDs = append(poolIDs, poolID)
	}
	sort.Strings(poolIDs)
	out := []domain.UserStake{}
	for _, poolID := range poolIDs {
		if stake, ok := r.pools.stakes[poolID][userID]; ok {
			out = append(out, cloneStake(stake))
		}
	}
	return out, nil
}

type ConversionRepository struct {
	mu   sync.Mutex
	rows map[string]domain.Conversion
}

func (r *ConversionRepository) Save(_ context.Context, conversion domain.Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[conversion.ConversionID]; ok {
		return domain.ErrConflict
	}
	r.rows[conversion.ConversionID] = conversion
	return nil
}

func (r *ConversionRepository) Get(_ context.Context, conversionID string) (domain.Conversion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[strings.TrimSpace(conversionID)]
	if !ok {
		return domain.Conversion{}, domain.ErrNotFound
	}
	return row, nil
}

type TouchpointRepository struct {
	mu   sync.Mutex
	rows map[string][]domain.Touchpoint
}

func touchpointKey(userID, productID string) string {
	return userID + "|" + productID
}

func (r *TouchpointRepository) Append(_ context.Context, point domain.Touchpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := touchpointKey(point.UserID, point.ProductID)
	r.rows[key] = append(r.rows[key], point)
	return nil
}

func (r *TouchpointRepository) ListWindow(_ context.Context, userID, productID string, until time.Time, window time.Duration) ([]domain.Touchpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := until.Add(-window)
	out := []domain.Touchpoint{}
	for _, point := range r.rows[touchpointKey(strings.TrimSpace(userID), strings.TrimSpace(productID))] {
		if point.ClickedAt.After(cutoff) && !point.ClickedAt.After(until) {
			out = append(out, point)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClickedAt.Before(out[j].ClickedAt) })
	return out, nil
}

type AttributionRepository struct {
	mu           sync.Mutex
	byConversion map[string][]domain.AttributionRecord
	byInfluencer map[string][]string
}

func (r *AttributionRepository) ExistsForConversion(_ context.Context, conversionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byConversion[strings.TrimSpace(conversionID)]
	return ok, nil
}

func (r *AttributionRepository) SaveRecords(_ context.Context, records []domain.AttributionRecord) error {
	if len(records) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conversionID := records[0].ConversionID
	if _, ok := r.byConversion[conversionID]; ok {
		return domain.ErrConflict
	}
	stored := make([]domain.AttributionRecord, len(records))
	copy(stored, records)
	r.byConversion[conversionID] = stored
	for _, record := range stored {
		r.byInfluencer[record.InfluencerID] = append(r.byInfluencer[record.InfluencerID], conversionID)
	}
	return nil
}

func (r *AttributionRepository) ListByConversion(_ context.Context, conversionID string) ([]domain.AttributionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, ok := r.byConversion[strings.TrimSpace(conversionID)]
	if !ok {
		return []domain.AttributionRecord{}, nil
	}
	out := make([]domain.AttributionRecord, len(records))
	copy(out, records)
	return out, nil
}

func (r *AttributionRepository) ListByInfluencer(_ context.Context, influencerID string, limit, offset int) ([]domain.AttributionRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	influencerID = strings.TrimSpace(influencerID)
	matches := []domain.AttributionRecord{}
	for _, conversionID := range r.byInfluencer[influencerID] {
		for _, record := range r.byConversion[conversionID] {
			if record.InfluencerID == influencerID {
				matches = append(matches, record)
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	total := len(matches)
	if offset >= total {
		return []domain.AttributionRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

type OutboxRepository struct {
	mu    sync.Mutex
	rows  map[string]ports.OutboxRecord
	order []string
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[record.OutboxID]; ok {
		return domain.ErrConflict
	}
	r.rows[record.OutboxID] = record
	r.order = append(r.order, record.OutboxID)
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []ports.OutboxRecord{}
	for _, id := range r.order {
		record := r.rows[id]
		if record.PublishedAt != nil {
			continue
		}
		out = append(out, record)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.rows[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	record.PublishedAt = &at
	r.rows[outboxID] = record
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID string, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.rows[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	record.RetryCount++
	r.rows[outboxID] = record
	return nil
}

type EventDedupRepository struct {
	mu   sync.Mutex
	rows map[string]time.Time
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.rows[eventID]
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		delete(r.rows, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[eventID] = expiresAt
	return nil
}

type IdempotencyRepository struct {
	mu   sync.Mutex
	rows map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	if now.After(record.ExpiresAt) {
		delete(r.rows, key)
		return nil, nil
	}
	out := record
	return &out, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[key]; ok {
		if existing.RequestHash != requestHash {
			return domain.ErrIdempotencyConflict
		}
		return nil
	}
	r.rows[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.rows[key]
	if !ok {
		return domain.ErrNotFound
	}
	record.ResponseCode = responseCode
	record.ResponseBody = responseBody
	r.rows[key] = record
	return nil
}
