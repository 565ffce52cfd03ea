package port

import "portfolio_aggregator/internal/domain/entity"

// AssetRegistry defines the interface for looking up asset display metadata.
type AssetRegistry interface {
	// GetAssetsByChain returns a map of chain identifier to the asset
	// metadata registered for that chain, keyed by asset id.
	GetAssetsByChain(activeChainDefs []entity.ChainDefinition) (map[string]map[string]entity.AssetMetadata, error)
}
