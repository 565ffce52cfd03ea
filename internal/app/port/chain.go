package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// HoldingFetcher defines the interface for reading a wallet's raw token
// holdings from one chain. Implementations are specific to chain kinds
// (Solana-style JSON-RPC, EVM batch calls).
//
// The returned map is keyed by account address. Holdings with a raw amount
// below 1 are excluded. The call is all-or-nothing: either the complete set is
// returned or an error is, never a partial result.
type HoldingFetcher interface {
	GetHoldings(ctx context.Context, walletAddress string) (map[string]entity.RawHolding, error)

	// Definition returns the chain definition associated with this fetcher.
	Definition() entity.ChainDefinition
}

// ChainDefinitionProvider defines the interface for providing chain definitions.
type ChainDefinitionProvider interface {
	// GetAllChainDefinitions returns all configured chain definitions as a slice.
	GetAllChainDefinitions() []entity.ChainDefinition

	// GetChainDefinitionByIdentifier returns a specific chain definition.
	// Returns the definition and true when found, otherwise false.
	GetChainDefinitionByIdentifier(identifier string) (entity.ChainDefinition, bool)
}

// HoldingFetcherProvider defines the interface for providing holding fetchers.
type HoldingFetcherProvider interface {
	GetFetcher(chainDefinition entity.ChainDefinition) (HoldingFetcher, error)
}
