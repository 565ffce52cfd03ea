package entity

import "github.com/shopspring/decimal"

// DisplayRecord is a derived, UI-ready combination of a holding with its
// registry metadata and price enrichment. Recomputed from a snapshot on every
// load, never cached.
//
// RecentUsdChange is null in two situations: the asset has no price quote, or
// the 24h-ago balance reconstructs to exactly zero from a nonzero current
// balance (a -100% feed value), where the change fraction is undefined.
type DisplayRecord struct {
	AccountAddress  string              `json:"accountAddress"`
	AssetID         string              `json:"assetId"`
	Name            string              `json:"name"`
	Symbol          string              `json:"symbol"`
	LogoURI         string              `json:"logoUri,omitempty"`
	NativeBalance   decimal.Decimal     `json:"nativeBalance"`
	UsdBalance      decimal.Decimal     `json:"usdBalance"`
	RecentUsdChange decimal.NullDecimal `json:"recentUsdChangeFraction"`

	// UsdChangeAmount is the absolute USD move over 24h (current minus
	// reconstructed old balance). Null exactly when RecentUsdChange is null.
	UsdChangeAmount decimal.NullDecimal `json:"-"`
}

// ChainTotal sums the priced records of one chain. PercentChange is null when
// the 24h-ago total (TotalUsdBalance - TotalUsdChange) is zero.
type ChainTotal struct {
	ChainIdentifier string              `json:"chainIdentifier,omitempty"`
	TotalUsdBalance decimal.Decimal     `json:"totalUsdBalance"`
	TotalUsdChange  decimal.Decimal     `json:"totalUsdChange"`
	PercentChange   decimal.NullDecimal `json:"percentChange"`
}

// ChainPortfolio is the full derived view for one chain.
type ChainPortfolio struct {
	Chain   ChainDefinition `json:"chain"`
	Records []DisplayRecord `json:"records"`
	Total   ChainTotal      `json:"total"`
}

// WalletPortfolio is the cross-chain view for one wallet: per-chain portfolios
// plus the elementwise grand total.
type WalletPortfolio struct {
	WalletAddress string           `json:"walletAddress"`
	LoadID        string           `json:"loadId"`
	Chains        []ChainPortfolio `json:"chains"`
	GrandTotal    ChainTotal       `json:"grandTotal"`
}
