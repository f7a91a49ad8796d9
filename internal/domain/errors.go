package domain

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrNotFound                = errors.New("not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrConflict                = errors.New("conflict")
	ErrIdempotencyRequired     = errors.New("idempotency key required")
	ErrIdempotencyConflict     = errors.New("idempotency key reused with different payload")
	ErrUnsupportedEventType    = errors.New("unsupported event type")
	ErrInvalidEnvelope         = errors.New("invalid event envelope")
	ErrPoolInactive            = errors.New("staking pool is not active")
	ErrBelowMinStake           = errors.New("stake amount below pool minimum")
	ErrInsufficientStake       = errors.New("insufficient stake balance")
	ErrNoStakers               = errors.New("no stakers in pool")
	ErrNoRewardsToClaim        = errors.New("no rewards to claim")
	ErrInvalidRevenueShare     = errors.New("revenue share cannot exceed 50%")
	ErrUnknownAttributionModel = errors.New("unknown attribution model")
)
