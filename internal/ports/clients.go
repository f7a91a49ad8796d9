package ports

import (
	"context"

	"github.com/twistlabs/influencer-staking/internal/domain"
)

// ModelConfigReader resolves the attribution model configured for a product.
// Returns domain.ErrNotFound when no per-product override exists; the caller
// falls back to the global default.
type ModelConfigReader interface {
	GetModel(ctx context.Context, productID string) (domain.AttributionModel, error)
}
