package entity

// PriceQuote is a single market-data snapshot for one price feed identifier.
// Usd24hChangeFraction is a fraction, not a percentage: +5% over 24h is 0.05.
type PriceQuote struct {
	FeedID               string  `json:"feedId"`
	UsdPrice             float64 `json:"usdPrice"`
	Usd24hChangeFraction float64 `json:"usd24hChangeFraction"`
	UsdMarketCap         float64 `json:"usdMarketCap,omitempty"`
	Usd24hVolume         float64 `json:"usd24hVolume,omitempty"`
	LastUpdatedAt        int64   `json:"lastUpdatedAt,omitempty"`
}
