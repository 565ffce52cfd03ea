package entity

// PortfolioError represents an error that occurred while fetching
type PortfolioError struct {
	WalletAddress   string `json:"walletAddress,omitempty"`
	ChainIdentifier string `json:"chainIdentifier,omitempty"`
	AssetID         string `json:"assetId,omitempty"`
	Message         string `json:"message"`
}
