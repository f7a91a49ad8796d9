package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/twistlabs/influencer-staking/internal/adapters/memory"
	"github.com/twistlabs/influencer-staking/internal/application"
	"github.com/twistlabs/influencer-staking/internal/contracts"
	"github.com/twistlabs/influencer-staking/internal/domain"
)

type fixture struct {
	svc   *application.Service
	repos *memory.Repositories
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultModel:      domain.ModelLastClick,
			AttributionWindow: 30 * 24 * time.Hour,
			ApyWindowDays:     30,
		},
		Pools: repos.Pools, Stakes: repos.Stakes, Conversions: repos.Conversions,
		Touchpoints: repos.Touchpoints, Attributions: repos.Attributions,
		Outbox: repos.Outbox, EventDedup: repos.EventDedup, Idempotency: repos.Idempotency,
	})
	return fixture{svc: svc, repos: repos}
}

func admin(key string) application.Actor {
	return application.Actor{SubjectID: "ops-1", Role: "admin", IdempotencyKey: key}
}

func user(id, key string) application.Actor {
	return application.Actor{SubjectID: id, Role: "user", IdempotencyKey: key}
}

func (f fixture) createPool(t *testing.T, influencerID string, shareBps int, minStake int64) domain.StakingPool {
	t.Helper()
	pool, err := f.svc.CreatePool(context.Background(), admin("create-"+influencerID), application.CreatePoolInput{
		InfluencerID:    influencerID,
		RevenueShareBps: shareBps,
		MinStake:        minStake,
	})
	if err != nil {
		t.Fatalf("create pool for %s: %v", influencerID, err)
	}
	return pool
}

func (f fixture) stake(t *testing.T, poolID, userID string, amount int64, key string) application.StakeResult {
	t.Helper()
	res, err := f.svc.Stake(context.Background(), user(userID, key), application.StakeInput{
		PoolID: poolID, UserID: userID, Amount: amount,
	})
	if err != nil {
		t.Fatalf("stake %d for %s: %v", amount, userID, err)
	}
	return res
}

func (f fixture) countOutbox(t *testing.T, eventType string) int {
	t.Helper()
	records, err := f.repos.Outbox.FetchUnpublished(context.Background(), 1000)
	if err != nil {
		t.Fatalf("fetch outbox: %v", err)
	}
	n := 0
	for _, r := range records {
		if r.EventType == eventType {
			n++
		}
	}
	return n
}

func TestCreatePoolRequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreatePool(context.Background(), application.Actor{SubjectID: "inf-1", Role: "user"}, application.CreatePoolInput{
		InfluencerID: "inf-1", RevenueShareBps: 2000,
	})
	if !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected ErrIdempotencyRequired, got %v", err)
	}
}

func TestCreatePoolForbiddenForOtherUsers(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreatePool(context.Background(), user("someone-else", "k1"), application.CreatePoolInput{
		InfluencerID: "inf-1", RevenueShareBps: 2000,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreatePoolRejectsExcessiveRevenueShare(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreatePool(context.Background(), admin("k1"), application.CreatePoolInput{
		InfluencerID: "inf-1", RevenueShareBps: domain.MaxRevenueShareBps + 1,
	})
	if !errors.Is(err, domain.ErrInvalidRevenueShare) {
		t.Fatalf("expected ErrInvalidRevenueShare, got %v", err)
	}
}

func TestCreatePoolReplayReturnsSamePool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := application.CreatePoolInput{InfluencerID: "inf-1", RevenueShareBps: 2000, MinStake: 10}

	first, err := f.svc.CreatePool(ctx, admin("same-key"), in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.svc.CreatePool(ctx, admin("same-key"), in)
	if err != nil {
		t.Fatalf("replayed create: %v", err)
	}
	if first.PoolID != second.PoolID {
		t.Fatalf("replay minted a new pool: %s vs %s", first.PoolID, second.PoolID)
	}
	pools, err := f.svc.ListPools(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list pools: %v", err)
	}
	if pools.Total != 1 {
		t.Fatalf("expected 1 pool after replay, got %d", pools.Total)
	}
}

func TestCreatePoolRejectsDuplicateInfluencer(t *testing.T) {
	f := newFixture(t)
	f.createPool(t, "inf-1", 2000, 0)
	_, err := f.svc.CreatePool(context.Background(), admin("another-key"), application.CreatePoolInput{
		InfluencerID: "inf-1", RevenueShareBps: 1000,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestStakeBelowMinimumRejected(t *testing.T) {
	f := newFixture(t)
	pool := f.createPool(t, "inf-1", 2000, 1_000_000_000)
	_, err := f.svc.Stake(context.Background(), user("u1", "k1"), application.StakeInput{
		PoolID: pool.PoolID, UserID: "u1", Amount: 999_999_999,
	})
	if !errors.Is(err, domain.ErrBelowMinStake) {
		t.Fatalf("expected ErrBelowMinStake, got %v", err)
	}
}

func TestStakeTierTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)

	res := f.stake(t, pool.PoolID, "u1", 999_999_999_999, "k1")
	if res.TierChanged || res.Pool.CurrentTier != domain.TierBronze {
		t.Fatalf("below threshold should stay BRONZE, got %+v", res)
	}

	res = f.stake(t, pool.PoolID, "u1", 1, "k2")
	if !res.TierChanged || res.OldTier != domain.TierBronze || res.Pool.CurrentTier != domain.TierSilver {
		t.Fatalf("crossing the threshold should promote to SILVER once, got %+v", res)
	}

	out, err := f.svc.Unstake(ctx, user("u1", "k3"), application.StakeInput{
		PoolID: pool.PoolID, UserID: "u1", Amount: 1,
	})
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if !out.TierChanged || out.OldTier != domain.TierSilver || out.Pool.CurrentTier != domain.TierBronze {
		t.Fatalf("dropping below the threshold should demote to BRONZE, got %+v", out)
	}

	if n := f.countOutbox(t, domain.EventTierChanged); n != 2 {
		t.Fatalf("expected exactly 2 tier.changed events, got %d", n)
	}
}

func TestStakeReplaySameKeyDoesNotDouble(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)

	first := f.stake(t, pool.PoolID, "u1", 500, "same-key")
	second := f.stake(t, pool.PoolID, "u1", 500, "same-key")
	if first.Stake.Amount != second.Stake.Amount {
		t.Fatalf("replay changed the stake: %d vs %d", first.Stake.Amount, second.Stake.Amount)
	}
	stored, err := f.svc.GetPool(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if stored.TotalStaked != 500 {
		t.Fatalf("replay doubled the pool total: %d", stored.TotalStaked)
	}
}

func TestStakeSameKeyDifferentRequestConflicts(t *testing.T) {
	f := newFixture(t)
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 500, "same-key")
	_, err := f.svc.Stake(context.Background(), user("u1", "same-key"), application.StakeInput{
		PoolID: pool.PoolID, UserID: "u1", Amount: 501,
	})
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestUnstakeMoreThanStaked(t *testing.T) {
	f := newFixture(t)
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 100, "k1")
	_, err := f.svc.Unstake(context.Background(), user("u1", "k2"), application.StakeInput{
		PoolID: pool.PoolID, UserID: "u1", Amount: 101,
	})
	if !errors.Is(err, domain.ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
}

func TestDistributeSplitsAndReplaysExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 600, "k1")
	f.stake(t, pool.PoolID, "u2", 400, "k2")

	event, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "dist-1",
	})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if event.StakerShare != 200_000_000 || event.InfluencerShare != 800_000_000 {
		t.Fatalf("unexpected split: %d/%d", event.StakerShare, event.InfluencerShare)
	}
	if event.StakerShare+event.InfluencerShare != event.EarningAmount {
		t.Fatalf("shares do not sum to the earning")
	}

	replay, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "dist-1",
	})
	if err != nil {
		t.Fatalf("replayed distribute: %v", err)
	}
	if replay.DistributedAt != event.DistributedAt || replay.StakerShare != event.StakerShare {
		t.Fatalf("replay returned a different event: %+v vs %+v", replay, event)
	}

	stored, err := f.svc.GetPool(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if stored.PendingRewards != 200_000_000 || stored.TotalRewardsDistributed != 200_000_000 {
		t.Fatalf("replay credited the pool twice: pending=%d total=%d", stored.PendingRewards, stored.TotalRewardsDistributed)
	}
	if n := f.countOutbox(t, domain.EventRewardsDistributed); n != 1 {
		t.Fatalf("expected exactly 1 rewards.distributed event, got %d", n)
	}
}

func TestDistributeWithoutStakers(t *testing.T) {
	f := newFixture(t)
	pool := f.createPool(t, "inf-1", 2000, 1)
	_, err := f.svc.Distribute(context.Background(), application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1000, DistributionID: "dist-1",
	})
	if !errors.Is(err, domain.ErrNoStakers) {
		t.Fatalf("expected ErrNoStakers, got %v", err)
	}
}

func TestClaimRewardsProportionalToStake(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 600, "k1")
	f.stake(t, pool.PoolID, "u2", 400, "k2")

	if _, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "dist-1",
	}); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	claim1, err := f.svc.ClaimRewards(ctx, user("u1", "c1"), pool.PoolID, "u1")
	if err != nil {
		t.Fatalf("claim u1: %v", err)
	}
	if claim1.Claimed != 120_000_000 {
		t.Fatalf("u1 should claim 60%% of the staker share, got %d", claim1.Claimed)
	}
	claim2, err := f.svc.ClaimRewards(ctx, user("u2", "c2"), pool.PoolID, "u2")
	if err != nil {
		t.Fatalf("claim u2: %v", err)
	}
	if claim2.Claimed != 80_000_000 {
		t.Fatalf("u2 should claim 40%% of the staker share, got %d", claim2.Claimed)
	}

	if _, err := f.svc.ClaimRewards(ctx, user("u1", "c3"), pool.PoolID, "u1"); !errors.Is(err, domain.ErrNoRewardsToClaim) {
		t.Fatalf("second claim should find nothing, got %v", err)
	}

	stored, err := f.svc.GetPool(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if stored.PendingRewards != 0 {
		t.Fatalf("pool should be drained after both claims, got %d", stored.PendingRewards)
	}
}

func TestClaimClampedToPoolBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 1000, "k1")

	if _, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "dist-1",
	}); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// Force the drift the clamp guards against: the pool balance drops below
	// the staker's settled entitlement.
	if _, err := f.repos.Pools.Mutate(ctx, pool.PoolID, func(p *domain.StakingPool) error {
		p.PendingRewards = 100_000_000
		return nil
	}); err != nil {
		t.Fatalf("mutate pool: %v", err)
	}

	claim, err := f.svc.ClaimRewards(ctx, user("u1", "c1"), pool.PoolID, "u1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.Claimed != 100_000_000 || claim.TotalClaimed != 100_000_000 {
		t.Fatalf("claim must not exceed what the pool is debited: %+v", claim)
	}

	position, err := f.svc.GetStake(ctx, pool.PoolID, "u1")
	if err != nil {
		t.Fatalf("get stake: %v", err)
	}
	if position.PendingRewards != 100_000_000 {
		t.Fatalf("clamped excess should stay pending on the stake, got %d", position.PendingRewards)
	}

	if _, err := f.svc.ClaimRewards(ctx, user("u1", "c2"), pool.PoolID, "u1"); !errors.Is(err, domain.ErrNoRewardsToClaim) {
		t.Fatalf("drained pool should reject the claim, got %v", err)
	}
}

func TestLateStakerEarnsOnlyNewDistributions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 1000, "k1")

	if _, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "dist-1",
	}); err != nil {
		t.Fatalf("first distribute: %v", err)
	}

	f.stake(t, pool.PoolID, "u2", 1000, "k2")
	late, err := f.svc.GetStake(ctx, pool.PoolID, "u2")
	if err != nil {
		t.Fatalf("get stake u2: %v", err)
	}
	if late.PendingRewards != 0 {
		t.Fatalf("late staker should not earn past distributions, got %d", late.PendingRewards)
	}

	if _, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "dist-2",
	}); err != nil {
		t.Fatalf("second distribute: %v", err)
	}

	early, err := f.svc.GetStake(ctx, pool.PoolID, "u1")
	if err != nil {
		t.Fatalf("get stake u1: %v", err)
	}
	late, err = f.svc.GetStake(ctx, pool.PoolID, "u2")
	if err != nil {
		t.Fatalf("get stake u2: %v", err)
	}
	if early.PendingRewards != 300_000_000 || late.PendingRewards != 100_000_000 {
		t.Fatalf("expected 300m/100m pending, got %d/%d", early.PendingRewards, late.PendingRewards)
	}
}

func TestProcessConversionIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, influencerID := range []string{"inf-a", "inf-b"} {
		if _, err := f.svc.RecordTouchpoint(ctx, application.RecordTouchpointInput{
			InfluencerID: influencerID, UserID: "u1", ProductID: "prod-1",
			ClickedAt: now.Add(time.Duration(i-3) * time.Hour),
		}); err != nil {
			t.Fatalf("record touchpoint: %v", err)
		}
	}

	in := application.ProcessConversionInput{
		ConversionID: "conv-1", UserID: "u1", ProductID: "prod-1",
		Amount: 1000, OccurredAt: now, Model: "LINEAR",
	}
	first, err := f.svc.ProcessConversion(ctx, in)
	if err != nil {
		t.Fatalf("process conversion: %v", err)
	}
	if first.Replayed || len(first.Records) != 2 {
		t.Fatalf("expected 2 fresh records, got %+v", first)
	}
	if first.Records[0].EarnedAmount+first.Records[1].EarnedAmount != 1000 {
		t.Fatalf("earnings do not sum to the conversion amount")
	}

	second, err := f.svc.ProcessConversion(ctx, in)
	if err != nil {
		t.Fatalf("replayed conversion: %v", err)
	}
	if !second.Replayed || len(second.Records) != 2 {
		t.Fatalf("replay should return the stored records, got %+v", second)
	}

	records, err := f.svc.GetAttribution(ctx, "conv-1")
	if err != nil {
		t.Fatalf("get attribution: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("replay duplicated records: %d", len(records))
	}
}

func TestProcessConversionDefaultsToLastClick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, influencerID := range []string{"inf-a", "inf-b"} {
		if _, err := f.svc.RecordTouchpoint(ctx, application.RecordTouchpointInput{
			InfluencerID: influencerID, UserID: "u1", ProductID: "prod-1",
			ClickedAt: now.Add(time.Duration(i-3) * time.Hour),
		}); err != nil {
			t.Fatalf("record touchpoint: %v", err)
		}
	}

	out, err := f.svc.ProcessConversion(ctx, application.ProcessConversionInput{
		ConversionID: "conv-1", UserID: "u1", ProductID: "prod-1", Amount: 1000, OccurredAt: now,
	})
	if err != nil {
		t.Fatalf("process conversion: %v", err)
	}
	if out.Model != domain.ModelLastClick {
		t.Fatalf("expected the default model, got %s", out.Model)
	}
	var winner *domain.AttributionRecord
	for i := range out.Records {
		if out.Records[i].EarnedAmount == 1000 {
			winner = &out.Records[i]
		}
	}
	if winner == nil || winner.InfluencerID != "inf-b" {
		t.Fatalf("last click should credit inf-b fully, got %+v", out.Records)
	}
}

func TestProcessConversionWithoutTouchpoints(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.ProcessConversion(context.Background(), application.ProcessConversionInput{
		ConversionID: "conv-1", UserID: "u1", ProductID: "prod-1", Amount: 1000,
	})
	if err != nil {
		t.Fatalf("process conversion: %v", err)
	}
	if len(out.Records) != 0 {
		t.Fatalf("no touchpoints should mean no records, got %d", len(out.Records))
	}
}

func TestProcessConversionQueuesRevenueForPools(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	f.createPool(t, "inf-a", 2000, 1)

	if _, err := f.svc.RecordTouchpoint(ctx, application.RecordTouchpointInput{
		InfluencerID: "inf-a", UserID: "u1", ProductID: "prod-1", ClickedAt: now.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("record touchpoint: %v", err)
	}
	if _, err := f.svc.ProcessConversion(ctx, application.ProcessConversionInput{
		ConversionID: "conv-1", UserID: "u1", ProductID: "prod-1", Amount: 1000, OccurredAt: now,
	}); err != nil {
		t.Fatalf("process conversion: %v", err)
	}

	if n := f.countOutbox(t, domain.EventRevenueEarned); n != 1 {
		t.Fatalf("expected 1 revenue.earned event, got %d", n)
	}
	if n := f.countOutbox(t, domain.EventAttributionCalculated); n != 1 {
		t.Fatalf("expected 1 attribution.calculated event, got %d", n)
	}
}

func TestRefreshApyAfterDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 1_000_000_000, "k1")

	if _, err := f.svc.Distribute(ctx, application.DistributeInput{
		PoolID: pool.PoolID, EarningAmount: 500_000_000, DistributionID: "dist-1",
	}); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	first, err := f.svc.RefreshApy(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("refresh apy: %v", err)
	}
	if !first.Changed || first.ApyBps <= 0 {
		t.Fatalf("first refresh should move the figure, got %+v", first)
	}
	if first.TotalStakerRewards != 100_000_000 {
		t.Fatalf("window should hold the staker share, got %d", first.TotalStakerRewards)
	}

	second, err := f.svc.RefreshApy(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if second.Changed || second.ApyBps != first.ApyBps {
		t.Fatalf("unchanged history should not rewrite the pool, got %+v", second)
	}
}

func TestUpdateRevenueShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)

	if _, err := f.svc.UpdateRevenueShare(ctx, user("someone-else", ""), pool.PoolID, 1000); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	updated, err := f.svc.UpdateRevenueShare(ctx, user("inf-1", ""), pool.PoolID, 1000)
	if err != nil {
		t.Fatalf("update revenue share: %v", err)
	}
	if updated.RevenueShareBps != 1000 {
		t.Fatalf("share not updated: %d", updated.RevenueShareBps)
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	blob, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return blob
}

func envelope(eventID, eventType, path, key string, data json.RawMessage) contracts.EventEnvelope {
	return contracts.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       time.Now().UTC(),
		PartitionKeyPath: path,
		PartitionKey:     key,
		SourceService:    "commerce-core",
		TraceID:          "trace-1",
		SchemaVersion:    "v1",
		Data:             data,
	}
}

func TestHandleDomainEventStakeChangedDeduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)

	data := mustJSON(t, contracts.StakeChangedPayload{
		PoolID: pool.PoolID, UserID: "u1", Amount: 750, Direction: "stake",
	})
	evt := envelope("evt-1", domain.EventStakeChanged, "data.pool_id", pool.PoolID, data)

	if err := f.svc.HandleDomainEvent(ctx, evt); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if err := f.svc.HandleDomainEvent(ctx, evt); err != nil {
		t.Fatalf("redelivered event: %v", err)
	}

	stored, err := f.svc.GetPool(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if stored.TotalStaked != 750 {
		t.Fatalf("redelivery double-applied the stake: %d", stored.TotalStaked)
	}
}

func TestHandleDomainEventRevenueEarned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pool := f.createPool(t, "inf-1", 2000, 1)
	f.stake(t, pool.PoolID, "u1", 1000, "k1")

	data := mustJSON(t, contracts.RevenueEarnedPayload{
		PoolID: pool.PoolID, EarningAmount: 1_000_000_000, DistributionID: "conv-9:inf-1",
	})
	evt := envelope("evt-2", domain.EventRevenueEarned, "data.pool_id", pool.PoolID, data)

	if err := f.svc.HandleDomainEvent(ctx, evt); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	stored, err := f.svc.GetPool(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if stored.PendingRewards != 200_000_000 {
		t.Fatalf("distribution not applied: %d", stored.PendingRewards)
	}
}

func TestHandleDomainEventRejectsPartitionKeyMismatch(t *testing.T) {
	f := newFixture(t)
	pool := f.createPool(t, "inf-1", 2000, 1)

	data := mustJSON(t, contracts.StakeChangedPayload{
		PoolID: pool.PoolID, UserID: "u1", Amount: 100, Direction: "stake",
	})
	evt := envelope("evt-3", domain.EventStakeChanged, "data.pool_id", "some-other-pool", data)

	if err := f.svc.HandleDomainEvent(context.Background(), evt); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestHandleDomainEventUnsupportedType(t *testing.T) {
	f := newFixture(t)
	evt := envelope("evt-4", "order.created", "data.pool_id", "pool-1", mustJSON(t, map[string]string{"pool_id": "pool-1"}))
	if err := f.svc.HandleDomainEvent(context.Background(), evt); !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("expected ErrUnsupportedEventType, got %v", err)
	}
}
