package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// PriceService defines the interface for quote retrieval with caching.
//
// GetQuotes goes upstream only for the ids missing from the cache, in batched
// calls. A feed id absent from the result means "no price available" for that
// asset, not an error; a failed batch call fails the whole enrichment step.
type PriceService interface {
	GetQuotes(ctx context.Context, feedIDs []string) (map[string]entity.PriceQuote, error)
}
