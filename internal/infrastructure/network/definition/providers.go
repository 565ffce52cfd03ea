package networkdefinition

import (
	"strings"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
)

// Well-known program ids used to fill in solana chain definitions that omit
// them in config.
const (
	DefaultTokenProgramID    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	DefaultMetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

// Predefined chain definitions
var ( //nolint:gochecknoglobals // Global for definitions
	SolanaMainnet = entity.ChainDefinition{
		Name:              "Solana Mainnet",
		Identifier:        "solana",
		Kind:              entity.ChainKindSolana,
		PrimaryRPCURL:     "https://api.mainnet-beta.solana.com",
		FallbackRPCURLs:   []string{"https://solana-rpc.publicnode.com"},
		NativeAssetID:     "So11111111111111111111111111111111111111112",
		NativeSymbol:      "SOL",
		NativeDecimals:    9,
		TokenProgramID:    DefaultTokenProgramID,
		MetadataProgramID: DefaultMetadataProgramID,
	}
	Ethereum = entity.ChainDefinition{
		Name:            "Ethereum Mainnet",
		Identifier:      "ethereum",
		Kind:            entity.ChainKindEVM,
		ChainID:         1,
		PrimaryRPCURL:   "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs: []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		NativeAssetID:   "0x0000000000000000000000000000000000000000",
		NativeSymbol:    "ETH",
		NativeDecimals:  18,
	}
)

// ChainDefinitionProvider provides chain definitions merged from config and
// the predefined defaults above.
type ChainDefinitionProvider struct {
	logger    port.Logger
	allChains map[string]entity.ChainDefinition
	ordered   []entity.ChainDefinition
}

// NewChainDefinitionProvider builds a provider from configured chains.
// Solana chains missing program ids inherit the well-known defaults.
func NewChainDefinitionProvider(configured []entity.ChainDefinition, logger port.Logger) *ChainDefinitionProvider {
	provider := &ChainDefinitionProvider{
		logger:    logger,
		allChains: make(map[string]entity.ChainDefinition, len(configured)),
		ordered:   make([]entity.ChainDefinition, 0, len(configured)),
	}

	for _, chainDef := range configured {
		if chainDef.Kind == entity.ChainKindSolana {
			if chainDef.TokenProgramID == "" {
				chainDef.TokenProgramID = DefaultTokenProgramID
			}
			if chainDef.MetadataProgramID == "" {
				chainDef.MetadataProgramID = DefaultMetadataProgramID
			}
		}
		provider.allChains[strings.ToLower(chainDef.Identifier)] = chainDef
		provider.ordered = append(provider.ordered, chainDef)
		logger.Debug("Registered chain definition", "identifier", chainDef.Identifier, "kind", string(chainDef.Kind))
	}

	return provider
}

// GetAllChainDefinitions returns all configured chain definitions in config
// order.
func (p *ChainDefinitionProvider) GetAllChainDefinitions() []entity.ChainDefinition {
	out := make([]entity.ChainDefinition, len(p.ordered))
	copy(out, p.ordered)
	return out
}

// GetChainDefinitionByIdentifier returns a specific chain definition.
// Returns the definition and true when found, otherwise false.
func (p *ChainDefinitionProvider) GetChainDefinitionByIdentifier(identifier string) (entity.ChainDefinition, bool) {
	chainDef, ok := p.allChains[strings.ToLower(identifier)]
	return chainDef, ok
}
