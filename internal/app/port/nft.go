package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// NftResolver defines the interface for best-effort NFT metadata resolution.
// The result always has one record per input holding; failures are reported
// through the record's status, never as an error from ResolveAll.
type NftResolver interface {
	ResolveAll(ctx context.Context, chain entity.ChainDefinition, holdings map[string]entity.RawHolding) ([]entity.NftRecord, error)
}
