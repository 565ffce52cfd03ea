package entity

// ChainKind discriminates which fetcher implementation serves a chain.
type ChainKind string

const (
	// ChainKindSolana marks chains read through the Solana-style JSON-RPC surface.
	ChainKindSolana ChainKind = "solana"
	// ChainKindEVM marks chains read through batched eth_call / eth_getBalance.
	ChainKindEVM ChainKind = "evm"
)

// ChainDefinition holds the configuration for one tracked blockchain.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type ChainDefinition struct {
	Name            string    `json:"name" yaml:"name"`
	Identifier      string    `json:"identifier" yaml:"identifier"` // unique key, e.g. "solana", "ethereum"
	Kind            ChainKind `json:"kind" yaml:"kind"`
	ChainID         uint64    `json:"chainId,omitempty" yaml:"chainId,omitempty"` // EVM only
	PrimaryRPCURL   string    `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs []string  `json:"fallbackRpcUrls,omitempty" yaml:"fallbackRpcUrls,omitempty"`

	// NativeAssetID, when set, makes the fetcher report the wallet's native
	// balance as one more holding under this asset id. The registry prices it
	// like any other asset.
	NativeAssetID  string `json:"nativeAssetId,omitempty" yaml:"nativeAssetId,omitempty"`
	NativeSymbol   string `json:"nativeSymbol,omitempty" yaml:"nativeSymbol,omitempty"`
	NativeDecimals int32  `json:"nativeDecimals,omitempty" yaml:"nativeDecimals,omitempty"`

	// Solana only: program that owns token accounts and the metadata program
	// used for NFT resolution.
	TokenProgramID    string `json:"tokenProgramId,omitempty" yaml:"tokenProgramId,omitempty"`
	MetadataProgramID string `json:"metadataProgramId,omitempty" yaml:"metadataProgramId,omitempty"`
}
