package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

// Consumed event types.
const (
	EventConversionRecorded = "conversion.recorded"
	EventTouchpointRecorded = "touchpoint.recorded"
	EventStakeChanged       = "stake.changed"
	EventRevenueEarned      = "revenue.earned"
)

// Emitted event types.
const (
	EventAttributionCalculated = "attribution.calculated"
	EventRewardsDistributed    = "rewards.distributed"
	EventTierChanged           = "tier.changed"
	EventApyUpdated            = "apy.updated"
	EventPoolCreated           = "pool.created"
	EventPoolUpdated           = "pool.updated"
)
