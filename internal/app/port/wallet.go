package port

import "portfolio_aggregator/internal/domain/entity"

// WalletProvider defines the interface for fetching tracked wallet addresses.
type WalletProvider interface {
	GetWallets() ([]entity.Wallet, error)
	GetWalletByAddress(address string) (*entity.Wallet, error)
}
