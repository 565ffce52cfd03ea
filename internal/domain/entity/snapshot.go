package entity

// ChainSnapshot is the load-phase output for one chain: the fetched holdings
// plus the registry slice that applies to them.
type ChainSnapshot struct {
	Chain    ChainDefinition          `json:"chain"`
	Holdings map[string]RawHolding    `json:"holdings"` // keyed by account address
	Assets   map[string]AssetMetadata `json:"assets"`   // keyed by asset id
}

// Snapshot is the complete, immutable input set for one portfolio
// computation. All I/O happens before a Snapshot exists; everything derived
// from it is a pure function of its contents.
type Snapshot struct {
	WalletAddress string                `json:"walletAddress"`
	LoadID        string                `json:"loadId"`
	Chains        []ChainSnapshot       `json:"chains"`
	Quotes        map[string]PriceQuote `json:"quotes"` // keyed by price feed id
}
