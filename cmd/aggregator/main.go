package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/app/service"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/configloader"
	"portfolio_aggregator/internal/infrastructure/httpclient"
	"portfolio_aggregator/internal/infrastructure/network/client"
	networkdefinition "portfolio_aggregator/internal/infrastructure/network/definition"
	"portfolio_aggregator/internal/infrastructure/nft"
	"portfolio_aggregator/internal/infrastructure/restapi"
	"portfolio_aggregator/internal/infrastructure/tokenloader"
	"portfolio_aggregator/internal/infrastructure/walletloader"
	"portfolio_aggregator/internal/pkg/logger"
	"portfolio_aggregator/internal/pkg/utils"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	logger.InitSlogWithZap(cfg.Logging.Level, zapLogger)
	appLogger := logger.NewSlogAdapter()
	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	chainProvider := networkdefinition.NewChainDefinitionProvider(cfg.Chains, appLogger)
	chains := chainProvider.GetAllChainDefinitions()

	registry := tokenloader.NewAssetFileRegistry(cfg.RegistryDir, appLogger)
	assetsByChain, err := registry.GetAssetsByChain(chains)
	if err != nil {
		zapLogger.Fatal("Failed to load asset registry", zap.String("dir", cfg.RegistryDir), zap.Error(err))
	}

	fetcherProvider := client.NewFetcherProvider(&cfg.RPCClient, evmAssetIDs(chains, assetsByChain), zapLogger)

	feedTimeout := time.Duration(cfg.PriceFeed.RequestTimeoutMillis) * time.Millisecond
	feedClient := httpclient.NewCoinGeckoClient(
		cfg.PriceFeed.BaseURL, cfg.PriceFeed.APIKey, cfg.PriceFeed.VsCurrency, feedTimeout, zapLogger)
	priceSvc := service.NewPriceService(feedClient, cfg.PriceSvc, appLogger)

	nftResolvers, err := buildNftResolvers(chains, fetcherProvider, cfg.Nft, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to set up NFT resolvers", zap.Error(err))
	}

	walletProvider := walletloader.NewWalletFileLoader(cfg.WalletsFile, appLogger)

	portfolioSvc := service.NewPortfolioService(
		walletProvider,
		chainProvider,
		registry,
		fetcherProvider,
		priceSvc,
		nftResolvers,
		appLogger,
		cfg.Performance.MaxConcurrentRoutines,
	)
	zapLogger.Info("Portfolio service initialized",
		zap.Int("chains", len(chains)), zap.Int("nft_capable_chains", len(nftResolvers)))

	portfolioHandler := restapi.NewPortfolioHandler(portfolioSvc, appLogger)
	router := restapi.SetupRouter(portfolioHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

// evmAssetIDs maps each EVM chain to the contract addresses its client probes.
// The native asset is fetched through eth_getBalance, never through a
// balanceOf probe.
func evmAssetIDs(
	chains []entity.ChainDefinition,
	assetsByChain map[string]map[string]entity.AssetMetadata,
) map[string][]string {
	ids := make(map[string][]string)
	for _, chainDef := range chains {
		if chainDef.Kind != entity.ChainKindEVM {
			continue
		}
		for assetID := range assetsByChain[chainDef.Identifier] {
			if assetID == chainDef.NativeAssetID {
				continue
			}
			ids[chainDef.Identifier] = append(ids[chainDef.Identifier], assetID)
		}
	}
	return ids
}

// buildNftResolvers creates one resolver per chain whose client supports the
// batched account reads metadata resolution needs.
func buildNftResolvers(
	chains []entity.ChainDefinition,
	fetcherProvider port.HoldingFetcherProvider,
	cfg configloader.NftResolverConfig,
	zapLogger *zap.Logger,
) (map[string]port.NftResolver, error) {
	resolvers := make(map[string]port.NftResolver)
	for _, chainDef := range chains {
		if chainDef.MetadataProgramID == "" {
			continue
		}
		fetcher, err := fetcherProvider.GetFetcher(chainDef)
		if err != nil {
			return nil, fmt.Errorf("no fetcher for chain %s: %w", chainDef.Identifier, err)
		}
		reader, ok := fetcher.(nft.AccountReader)
		if !ok {
			return nil, fmt.Errorf("chain %s has a metadata program but its client cannot read accounts", chainDef.Identifier)
		}
		resolvers[chainDef.Identifier] = nft.NewResolver(reader, cfg, zapLogger)
	}
	return resolvers, nil
}
