package client

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/configloader"
)

// fetcherProvider implements the port.HoldingFetcherProvider interface,
// creating kind-specific fetchers lazily and caching them per chain.
type fetcherProvider struct {
	fetchers map[string]port.HoldingFetcher
	mu       sync.Mutex

	cfg *configloader.RPCClientConfig
	// EVM chains need the registered asset ids up front: there is no
	// owner-scan read, only per-contract balance probes.
	evmAssetIDs map[string][]string // chain identifier -> asset ids
	logger      *zap.Logger
}

// NewFetcherProvider creates a new HoldingFetcherProvider.
func NewFetcherProvider(
	cfg *configloader.RPCClientConfig,
	evmAssetIDs map[string][]string,
	logger *zap.Logger,
) port.HoldingFetcherProvider {
	return &fetcherProvider{
		fetchers:    make(map[string]port.HoldingFetcher),
		cfg:         cfg,
		evmAssetIDs: evmAssetIDs,
		logger:      logger.Named("FetcherProvider"),
	}
}

// GetFetcher retrieves a holding fetcher for the given chain definition.
// Fetchers are cached to avoid reconnecting repeatedly.
func (p *fetcherProvider) GetFetcher(chainDef entity.ChainDefinition) (port.HoldingFetcher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fetcher, exists := p.fetchers[chainDef.Identifier]; exists {
		return fetcher, nil
	}

	p.logger.Info("Creating new holding fetcher",
		zap.String("chain", chainDef.Identifier),
		zap.String("kind", string(chainDef.Kind)),
		zap.String("rpc_primary", chainDef.PrimaryRPCURL))

	callTimeout := time.Duration(p.cfg.CallTimeoutSeconds) * time.Second

	var fetcher port.HoldingFetcher
	switch chainDef.Kind {
	case entity.ChainKindSolana:
		fetcher = NewSolanaClient(chainDef, callTimeout,
			p.cfg.RateLimit, p.cfg.BurstLimit, p.cfg.MaxAccountsPerBatch, p.logger)
	case entity.ChainKindEVM:
		connectTimeout := time.Duration(p.cfg.ConnectTimeoutSeconds) * time.Second
		evmFetcher, err := NewEVMClient(chainDef, p.evmAssetIDs[chainDef.Identifier], connectTimeout, callTimeout)
		if err != nil {
			p.logger.Error("Failed to create EVM client", zap.String("chain", chainDef.Identifier), zap.Error(err))
			return nil, fmt.Errorf("failed to create EVM client for %s: %w", chainDef.Identifier, err)
		}
		fetcher = evmFetcher
	default:
		return nil, fmt.Errorf("unsupported chain kind %q for chain %s", chainDef.Kind, chainDef.Identifier)
	}

	p.fetchers[chainDef.Identifier] = fetcher
	return fetcher, nil
}
