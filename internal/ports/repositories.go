package ports

import (
	"context"
	"time"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

// PoolRepository owns staking pools, user stakes, and distribution events.
// StakingPool.TotalStaked / StakerCount and the UserStake rows of a pool form
// one consistency unit: the Mutate* methods run their closure with the pool
// serialized (row lock or equivalent) and persist the result atomically.
type PoolRepository interface {
	Create(ctx context.Context, pool domain.StakingPool) error
	Get(ctx context.Context, poolID string) (domain.StakingPool, error)
	GetByInfluencer(ctx context.Context, influencerID string) (domain.StakingPool, error)
	List(ctx context.Context, limit, offset int) ([]domain.StakingPool, int, error)

	// Mutate loads the pool under lock, applies fn, and persists the pool.
	Mutate(ctx context.Context, poolID string, fn func(pool *domain.StakingPool) error) (domain.StakingPool, error)

	// MutateWithStake additionally loads (or initializes) the caller's stake
	// row inside the same critical section. A stake that has never existed is
	// passed zero-valued with identifiers filled in.
	MutateWithStake(ctx context.Context, poolID, userID string, fn func(pool *domain.StakingPool, stake *domain.UserStake) error) (domain.StakingPool, domain.UserStake, error)

	// ApplyDistribution runs fn under the pool lock and appends the returned
	// event in the same transaction. If distributionID was already applied the
	// stored event is returned with applied=false and fn never runs.
	ApplyDistribution(ctx context.Context, poolID, distributionID string, fn func(pool *domain.StakingPool) (domain.RewardDistributionEvent, error)) (event domain.RewardDistributionEvent, applied bool, err error)

	GetDistribution(ctx context.Context, distributionID string) (domain.RewardDistributionEvent, error)
	ListDistributionsSince(ctx context.Context, poolID string, since time.Time) ([]domain.RewardDistributionEvent, error)
}

type StakeRepository interface {
	Get(ctx context.Context, poolID, userID string) (domain.UserStake, error)
	ListByPool(ctx context.Context, poolID string, limit, offset int) ([]domain.UserStake, int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.UserStake, error)
}

type ConversionRepository interface {
	// Save persists a conversion once; a second save of the same conversion
	// id returns domain.ErrConflict.
	Save(ctx context.Context, conversion domain.Conversion) error
	Get(ctx context.Context, conversionID string) (domain.Conversion, error)
}

type TouchpointRepository interface {
	Append(ctx context.Context, point domain.Touchpoint) error
	// ListWindow returns touchpoints for a (user, product) pair inside
	// (until-window, until], ordered by click time ascending.
	ListWindow(ctx context.Context, userID, productID string, until time.Time, window time.Duration) ([]domain.Touchpoint, error)
}

type AttributionRepository interface {
	ExistsForConversion(ctx context.Context, conversionID string) (bool, error)
	// SaveRecords persists the full record set for a conversion atomically.
	SaveRecords(ctx context.Context, records []domain.AttributionRecord) error
	ListByConversion(ctx context.Context, conversionID string) ([]domain.AttributionRecord, error)
	ListByInfluencer(ctx context.Context, influencerID string, limit, offset int) ([]domain.AttributionRecord, int, error)
}

type OutboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	TraceID      string
	CreatedAt    time.Time
	PublishedAt  *time.Time
	RetryCount   int
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID string, reason string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
