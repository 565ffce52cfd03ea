package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/aggregate"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/pkg/metrics"
)

// PortfolioServiceImpl implements port.PortfolioService. Loading is strictly
// separated from computation: LoadSnapshot does all the I/O and everything
// downstream is a pure function of the snapshot.
type PortfolioServiceImpl struct {
	walletProvider        port.WalletProvider
	chainProvider         port.ChainDefinitionProvider
	registry              port.AssetRegistry
	fetcherProvider       port.HoldingFetcherProvider
	priceSvc              port.PriceService
	nftResolvers          map[string]port.NftResolver // keyed by chain identifier
	logger                port.Logger
	maxConcurrentRoutines int

	mu            sync.Mutex
	failedWallets map[string]bool
}

// NewPortfolioService creates a new instance of PortfolioServiceImpl.
func NewPortfolioService(
	wp port.WalletProvider,
	cp port.ChainDefinitionProvider,
	registry port.AssetRegistry,
	fp port.HoldingFetcherProvider,
	ps port.PriceService,
	nftResolvers map[string]port.NftResolver,
	l port.Logger,
	maxRoutines int,
) *PortfolioServiceImpl {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	return &PortfolioServiceImpl{
		walletProvider:        wp,
		chainProvider:         cp,
		registry:              registry,
		fetcherProvider:       fp,
		priceSvc:              ps,
		nftResolvers:          nftResolvers,
		logger:                l,
		maxConcurrentRoutines: maxRoutines,
		failedWallets:         make(map[string]bool),
	}
}

// LoadSnapshot fetches the wallet's holdings on every configured chain
// concurrently, then issues one batched quote lookup for the feed ids of all
// held assets. Any fetch or price failure fails the whole load; there is no
// partial snapshot.
func (s *PortfolioServiceImpl) LoadSnapshot(ctx context.Context, walletAddress string) (*entity.Snapshot, error) {
	chains := s.chainProvider.GetAllChainDefinitions()
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains configured")
	}

	assetsByChain, err := s.registry.GetAssetsByChain(chains)
	if err != nil {
		s.logger.Error("Failed to load asset registry", "error", err)
		return nil, fmt.Errorf("failed to load asset registry: %w", err)
	}

	loadID := uuid.NewString()
	start := time.Now()
	s.logger.Debug("Starting snapshot load",
		"wallet", walletAddress, "load_id", loadID, "chains", len(chains))

	chainSnapshots := make([]entity.ChainSnapshot, len(chains))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxConcurrentRoutines)

	for i, chainDef := range chains {
		group.Go(func() error {
			fetcher, err := s.fetcherProvider.GetFetcher(chainDef)
			if err != nil {
				return fmt.Errorf("no fetcher for chain %s: %w", chainDef.Identifier, err)
			}
			holdings, err := fetcher.GetHoldings(groupCtx, walletAddress)
			if err != nil {
				metrics.HoldingFetches.WithLabelValues(chainDef.Identifier, metrics.ResultError).Inc()
				return fmt.Errorf("holdings fetch failed on chain %s: %w", chainDef.Identifier, err)
			}
			metrics.HoldingFetches.WithLabelValues(chainDef.Identifier, metrics.ResultOK).Inc()
			chainSnapshots[i] = entity.ChainSnapshot{
				Chain:    chainDef,
				Holdings: holdings,
				Assets:   assetsByChain[chainDef.Identifier],
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		metrics.SnapshotLoads.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Snapshot load failed", "wallet", walletAddress, "load_id", loadID, "error", err)
		return nil, err
	}

	quotes, err := s.priceSvc.GetQuotes(ctx, collectFeedIDs(chainSnapshots))
	if err != nil {
		metrics.SnapshotLoads.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Quote lookup failed", "wallet", walletAddress, "load_id", loadID, "error", err)
		return nil, fmt.Errorf("quote lookup failed: %w", err)
	}

	snapshot := &entity.Snapshot{
		WalletAddress: walletAddress,
		LoadID:        loadID,
		Chains:        chainSnapshots,
		Quotes:        quotes,
	}
	metrics.SnapshotLoads.WithLabelValues(metrics.ResultOK).Inc()
	metrics.SnapshotLoadDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("Snapshot loaded",
		"wallet", walletAddress, "load_id", loadID, "quotes", len(quotes))
	return snapshot, nil
}

// collectFeedIDs gathers the price feed ids of every held, registered asset.
// Held assets without a feed id stay unpriced and are never sent upstream.
func collectFeedIDs(chainSnapshots []entity.ChainSnapshot) []string {
	seen := make(map[string]struct{})
	var feedIDs []string
	for _, cs := range chainSnapshots {
		for _, holding := range cs.Holdings {
			asset, registered := cs.Assets[holding.AssetID]
			if !registered || asset.PriceFeedID == "" {
				continue
			}
			if _, dup := seen[asset.PriceFeedID]; dup {
				continue
			}
			seen[asset.PriceFeedID] = struct{}{}
			feedIDs = append(feedIDs, asset.PriceFeedID)
		}
	}
	return feedIDs
}

// FetchWalletPortfolio loads a snapshot for the wallet and computes the
// derived portfolio view from it.
func (s *PortfolioServiceImpl) FetchWalletPortfolio(ctx context.Context, walletAddress string) (*entity.WalletPortfolio, error) {
	snapshot, err := s.LoadSnapshot(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	portfolio := aggregate.BuildPortfolio(*snapshot)
	return &portfolio, nil
}

// FetchAllWalletsPortfolio fetches portfolios for all tracked wallets with
// bounded concurrency. Per-wallet failures are collected as structured errors
// and do not abort the other wallets.
func (s *PortfolioServiceImpl) FetchAllWalletsPortfolio(ctx context.Context) ([]entity.WalletPortfolio, []entity.PortfolioError) {
	wallets, err := s.walletProvider.GetWallets()
	if err != nil {
		s.logger.Error("Failed to load tracked wallets", "error", err)
		return nil, []entity.PortfolioError{{Message: fmt.Sprintf("failed to load wallets: %v", err)}}
	}

	portfolios := make([]entity.WalletPortfolio, 0, len(wallets))
	var portfolioErrors []entity.PortfolioError
	var mu sync.Mutex

	semaphore := make(chan struct{}, s.maxConcurrentRoutines)
	var wg sync.WaitGroup

	for _, wallet := range wallets {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(w entity.Wallet) {
			defer wg.Done()
			defer func() { <-semaphore }()

			portfolio, err := s.FetchWalletPortfolio(ctx, w.Address)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				portfolioErrors = append(portfolioErrors, entity.PortfolioError{
					WalletAddress: w.Address,
					Message:       err.Error(),
				})
				s.markFailed(w.Address)
				return
			}
			portfolios = append(portfolios, *portfolio)
		}(wallet)
	}
	wg.Wait()

	s.logger.Info("Fetched portfolios for tracked wallets",
		"wallets", len(wallets), "loaded", len(portfolios), "failed", len(portfolioErrors))
	return portfolios, portfolioErrors
}

// FetchWalletNfts loads the wallet's holdings on every chain that has an NFT
// resolver configured and resolves their metadata. Resolution is best-effort
// per record; only holding fetches can fail the call.
func (s *PortfolioServiceImpl) FetchWalletNfts(ctx context.Context, walletAddress string) ([]entity.NftRecord, error) {
	records := make([]entity.NftRecord, 0)

	for _, chainDef := range s.chainProvider.GetAllChainDefinitions() {
		resolver, supported := s.nftResolvers[chainDef.Identifier]
		if !supported {
			continue
		}

		fetcher, err := s.fetcherProvider.GetFetcher(chainDef)
		if err != nil {
			return nil, fmt.Errorf("no fetcher for chain %s: %w", chainDef.Identifier, err)
		}
		holdings, err := fetcher.GetHoldings(ctx, walletAddress)
		if err != nil {
			return nil, fmt.Errorf("holdings fetch failed on chain %s: %w", chainDef.Identifier, err)
		}

		chainRecords, err := resolver.ResolveAll(ctx, chainDef, holdings)
		if err != nil {
			return nil, fmt.Errorf("nft resolution failed on chain %s: %w", chainDef.Identifier, err)
		}
		records = append(records, chainRecords...)
	}

	return records, nil
}

// GetFailedWallets returns the wallet addresses whose last bootstrap fetch
// failed.
func (s *PortfolioServiceImpl) GetFailedWallets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := make([]string, 0, len(s.failedWallets))
	for address, failedStatus := range s.failedWallets {
		if failedStatus {
			failed = append(failed, address)
		}
	}
	return failed
}

func (s *PortfolioServiceImpl) markFailed(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedWallets[address] = true
}
