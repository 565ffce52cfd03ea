package entity

// NftResolveStatus classifies the outcome of resolving one holding's metadata.
// Holdings that cannot be resolved stay in the result set with a non-resolved
// status instead of being silently dropped.
type NftResolveStatus string

const (
	// NftResolved means on-chain metadata was found and, if an off-chain URI
	// was present, the pointed-to document was fetched and parsed.
	NftResolved NftResolveStatus = "resolved"
	// NftNoMetadata means no metadata account exists for the holding's mint.
	NftNoMetadata NftResolveStatus = "no_metadata"
	// NftFetchFailed means the metadata account or off-chain document could
	// not be fetched or decoded.
	NftFetchFailed NftResolveStatus = "fetch_failed"
)

// OnChainNftMetadata is the decoded metadata account for one mint.
type OnChainNftMetadata struct {
	Mint            string `json:"mint"`
	MetadataAddress string `json:"metadataAddress"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri,omitempty"`
}

// OffChainNftMetadata is the subset of the off-chain JSON document the UI
// consumes. Unknown fields are ignored.
type OffChainNftMetadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// NftRecord is the per-holding resolver output.
type NftRecord struct {
	ChainIdentifier string               `json:"chainIdentifier,omitempty"`
	AccountAddress  string               `json:"accountAddress"`
	Mint            string               `json:"mint"`
	Status          NftResolveStatus     `json:"status"`
	OnChain         *OnChainNftMetadata  `json:"onChain,omitempty"`
	OffChain        *OffChainNftMetadata `json:"offChain,omitempty"`
}
