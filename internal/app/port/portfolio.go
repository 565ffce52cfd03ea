package port

import (
	"context"

	"portfolio_aggregator/internal/domain/entity"
)

// PortfolioService defines the interface for loading and computing wallet
// portfolio views.
type PortfolioService interface {
	// LoadSnapshot performs the load phase: every configured chain's holdings
	// plus one batched price call, joined before returning. Any fetch failure
	// fails the whole load.
	LoadSnapshot(ctx context.Context, walletAddress string) (*entity.Snapshot, error)

	// FetchWalletPortfolio loads a snapshot for the wallet and computes the
	// derived portfolio view from it.
	FetchWalletPortfolio(ctx context.Context, walletAddress string) (*entity.WalletPortfolio, error)

	// FetchAllWalletsPortfolio runs the bootstrap: portfolios for every
	// tracked wallet. Per-wallet failures are reported as structured errors
	// alongside the portfolios that did load.
	FetchAllWalletsPortfolio(ctx context.Context) ([]entity.WalletPortfolio, []entity.PortfolioError)

	// FetchWalletNfts loads the wallet's holdings on every metadata-capable
	// chain and resolves their NFT metadata best-effort.
	FetchWalletNfts(ctx context.Context, walletAddress string) ([]entity.NftRecord, error)
}
