package tokenloader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// AssetFileRegistry implements port.AssetRegistry by reading per-chain JSON
// files from a directory. A file named "<chain identifier>.json" holds the
// asset list for that chain.
type AssetFileRegistry struct {
	registryDir string
	logger      port.Logger
}

// NewAssetFileRegistry creates a new AssetFileRegistry.
func NewAssetFileRegistry(registryDir string, logger port.Logger) port.AssetRegistry {
	return &AssetFileRegistry{
		registryDir: registryDir,
		logger:      logger,
	}
}

// GetAssetsByChain scans the registry directory, reads the JSON file of every
// active chain and indexes its assets by asset id. A missing file means the
// chain has no registered assets; its holdings will render as unknown. A file
// that exists but cannot be parsed is skipped with a warning rather than
// failing the whole registry load.
func (r *AssetFileRegistry) GetAssetsByChain(activeChainDefs []entity.ChainDefinition) (map[string]map[string]entity.AssetMetadata, error) {
	assetsByChain := make(map[string]map[string]entity.AssetMetadata, len(activeChainDefs))

	files, err := os.ReadDir(r.registryDir)
	if err != nil {
		r.logger.Warn("Failed to read registry directory, no assets will be loaded", "path", r.registryDir, "error", err)
		return nil, fmt.Errorf("failed to read registry directory %s: %w", r.registryDir, err)
	}

	activeChains := make(map[string]entity.ChainDefinition, len(activeChainDefs))
	for _, chainDef := range activeChainDefs {
		activeChains[chainDef.Identifier] = chainDef
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".json") {
			continue
		}

		chainIdentifier := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		if _, isActive := activeChains[chainIdentifier]; !isActive {
			r.logger.Info("Registry file found for a non-active chain, skipping.",
				"file", file.Name(), "chain_identifier", chainIdentifier)
			continue
		}

		filePath := filepath.Join(r.registryDir, file.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			r.logger.Warn("Failed to read registry file, skipping file.", "path", filePath, "error", err)
			continue
		}

		var assetsInFile []entity.AssetMetadata
		if err := json.Unmarshal(data, &assetsInFile); err != nil {
			r.logger.Warn("Failed to unmarshal assets from file, skipping file.", "path", filePath, "error", err)
			continue
		}

		assets := make(map[string]entity.AssetMetadata, len(assetsInFile))
		for _, asset := range assetsInFile {
			if asset.AssetID == "" {
				r.logger.Warn("Asset with empty id in registry file, skipping asset.",
					"file", filePath, "symbol", asset.Symbol)
				continue
			}
			if asset.DecimalPlaces < 0 {
				r.logger.Warn("Asset has negative decimalPlaces, clamping to zero.",
					"file", filePath, "asset_id", asset.AssetID, "decimal_places", asset.DecimalPlaces)
				asset.DecimalPlaces = 0
			}
			assets[asset.AssetID] = asset
		}

		if len(assets) > 0 {
			assetsByChain[chainIdentifier] = assets
			r.logger.Info("Successfully loaded asset registry for chain",
				"chain_identifier", chainIdentifier, "file", file.Name(), "count", len(assets))
		}
	}

	if len(assetsByChain) == 0 && len(activeChainDefs) > 0 {
		r.logger.Info("No assets were loaded for any active chain.", "registry_directory", r.registryDir)
	}

	return assetsByChain, nil
}
