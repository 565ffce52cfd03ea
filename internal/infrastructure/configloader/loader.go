package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"portfolio_aggregator/internal/domain/entity"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PriceFeedConfig holds market-data API specific configurations.
type PriceFeedConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	VsCurrency           string `yaml:"vsCurrency"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// PriceServiceConfig holds configuration for the quote cache layer.
type PriceServiceConfig struct {
	CacheTTLMinutes     int `yaml:"cacheTTLMinutes"`
	CleanupIntervalMins int `yaml:"cleanupIntervalMinutes"`
	MaxIDsPerBatchCall  int `yaml:"maxIdsPerBatchCall"`
}

// NftResolverConfig holds configuration for NFT metadata resolution.
type NftResolverConfig struct {
	OffchainTimeoutMillis int64 `yaml:"offchainTimeoutMillis"`
	MaxConcurrentFetches  int   `yaml:"maxConcurrentFetches"`
	MaxAccountsPerBatch   int   `yaml:"maxAccountsPerBatch"`
	CacheTTLMinutes       int   `yaml:"cacheTTLMinutes"`
}

// RPCClientConfig holds configuration for chain RPC clients.
type RPCClientConfig struct {
	ConnectTimeoutSeconds int64 `yaml:"connectTimeoutSeconds"`
	CallTimeoutSeconds    int64 `yaml:"callTimeoutSeconds"`
	RateLimit             int   `yaml:"rateLimit"`
	BurstLimit            int   `yaml:"burstLimit"`
	MaxAccountsPerBatch   int   `yaml:"maxAccountsPerBatch"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines int `yaml:"maxConcurrentRoutines"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig             `yaml:"server"`
	Logging     LoggingConfig            `yaml:"logging"`
	PriceFeed   PriceFeedConfig          `yaml:"priceFeed"`
	PriceSvc    PriceServiceConfig       `yaml:"priceService"`
	Nft         NftResolverConfig        `yaml:"nftResolver"`
	RPCClient   RPCClientConfig          `yaml:"rpcClient"`
	Performance PerformanceConfig        `yaml:"performance"`
	Chains      []entity.ChainDefinition `yaml:"chains"`
	RegistryDir string                   `yaml:"registryDir"`
	WalletsFile string                   `yaml:"walletsFile"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("PriceFeed.BaseURL not set, defaulting to %s", cfg.PriceFeed.BaseURL)
	}
	if cfg.PriceFeed.VsCurrency == "" {
		cfg.PriceFeed.VsCurrency = "usd"
	}
	if cfg.PriceFeed.RequestTimeoutMillis <= 0 {
		cfg.PriceFeed.RequestTimeoutMillis = 10000
	}

	if cfg.PriceSvc.CacheTTLMinutes <= 0 {
		cfg.PriceSvc.CacheTTLMinutes = 1
		logrus.Infof("PriceService.CacheTTLMinutes not set, defaulting to %d", cfg.PriceSvc.CacheTTLMinutes)
	}
	if cfg.PriceSvc.CleanupIntervalMins <= 0 {
		cfg.PriceSvc.CleanupIntervalMins = 5
	}
	if cfg.PriceSvc.MaxIDsPerBatchCall <= 0 {
		cfg.PriceSvc.MaxIDsPerBatchCall = 250
	}

	if cfg.Nft.OffchainTimeoutMillis <= 0 {
		cfg.Nft.OffchainTimeoutMillis = 10000
	}
	if cfg.Nft.MaxConcurrentFetches <= 0 {
		cfg.Nft.MaxConcurrentFetches = 8
	}
	if cfg.Nft.MaxAccountsPerBatch <= 0 {
		cfg.Nft.MaxAccountsPerBatch = 100
	}
	if cfg.Nft.CacheTTLMinutes <= 0 {
		cfg.Nft.CacheTTLMinutes = 60
	}

	if cfg.RPCClient.ConnectTimeoutSeconds <= 0 {
		cfg.RPCClient.ConnectTimeoutSeconds = 10
	}
	if cfg.RPCClient.CallTimeoutSeconds <= 0 {
		cfg.RPCClient.CallTimeoutSeconds = 15
	}
	if cfg.RPCClient.RateLimit <= 0 {
		cfg.RPCClient.RateLimit = 10
	}
	if cfg.RPCClient.BurstLimit <= 0 {
		cfg.RPCClient.BurstLimit = 20
	}
	if cfg.RPCClient.MaxAccountsPerBatch <= 0 {
		cfg.RPCClient.MaxAccountsPerBatch = 100
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}

	if cfg.RegistryDir == "" {
		cfg.RegistryDir = "data/registry"
	}
	if cfg.WalletsFile == "" {
		cfg.WalletsFile = "data/wallets.txt"
	}
}

func validate(cfg *Config) error {
	if len(cfg.Chains) == 0 {
		return fmt.Errorf("config has no chains defined")
	}
	seen := make(map[string]struct{}, len(cfg.Chains))
	for i, chain := range cfg.Chains {
		if chain.Identifier == "" {
			return fmt.Errorf("chains[%d] is missing an identifier", i)
		}
		if _, dup := seen[chain.Identifier]; dup {
			return fmt.Errorf("duplicate chain identifier %q", chain.Identifier)
		}
		seen[chain.Identifier] = struct{}{}

		if chain.PrimaryRPCURL == "" {
			return fmt.Errorf("chain %q is missing primaryRpcUrl", chain.Identifier)
		}
		switch chain.Kind {
		case entity.ChainKindSolana:
			if chain.TokenProgramID == "" {
				logrus.Debugf("solana chain %q has no tokenProgramId, the default program will be used", chain.Identifier)
			}
		case entity.ChainKindEVM:
			if chain.ChainID == 0 {
				logrus.Warnf("EVM chain %q has no chainId configured", chain.Identifier)
			}
		default:
			return fmt.Errorf("chain %q has unsupported kind %q", chain.Identifier, chain.Kind)
		}
	}
	return nil
}
