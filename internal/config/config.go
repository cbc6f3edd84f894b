// Package config loads CLI and SDK settings from a config file, the
// environment, and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings for the launchpad client.
type Config struct {
	Chain   ChainConfig
	Backend BackendConfig
	Trade   TradeConfig
	Cache   CacheConfig
	Logging LoggingConfig
}

// ChainConfig holds RPC and contract settings.
type ChainConfig struct {
	RPCURL          string
	ChainID         int64
	ManagerAddress  string
	PrivateKey      string // hex, no 0x prefix
	TrackerAttempts int
	TrackerInterval time.Duration
}

// BackendConfig holds platform API endpoints.
type BackendConfig struct {
	APIURL      string
	ExplorerURL string
	WSURL       string
}

// TradeConfig holds trading and launch parameters.
type TradeConfig struct {
	QuoteDebounce   time.Duration
	TargetLiquidity string // whole units of the reserve currency
	CreationFee     string // decimal reserve-currency amount, e.g. "0.002"
}

// CacheConfig holds token metadata cache settings.
type CacheConfig struct {
	RedisEnabled  bool
	RedisAddress  string
	RedisUsername string
	RedisPassword string
	RedisDB       int
	RedisUseTLS   bool
	TTL           time.Duration
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads configuration from .env, environment variables, and an optional
// config.yaml, in increasing precedence of env over file.
func Load() (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.manager_address", "")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.tracker_attempts", 30)
	v.SetDefault("chain.tracker_interval", "3s")

	v.SetDefault("backend.api_url", "")
	v.SetDefault("backend.explorer_url", "")
	v.SetDefault("backend.ws_url", "")

	v.SetDefault("trade.quote_debounce", "300ms")
	v.SetDefault("trade.target_liquidity", "2500")
	v.SetDefault("trade.creation_fee", "0.002")

	v.SetDefault("cache.redis_enabled", false)
	v.SetDefault("cache.redis_address", "localhost:6379")
	v.SetDefault("cache.redis_username", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_use_tls", false)
	v.SetDefault("cache.ttl", "1m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("CURVELAUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.curvelaunch")
	_ = v.ReadInConfig()

	trackerInterval, err := time.ParseDuration(v.GetString("chain.tracker_interval"))
	if err != nil {
		return nil, fmt.Errorf("config: chain.tracker_interval: %w", err)
	}
	quoteDebounce, err := time.ParseDuration(v.GetString("trade.quote_debounce"))
	if err != nil {
		return nil, fmt.Errorf("config: trade.quote_debounce: %w", err)
	}
	cacheTTL, err := time.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return nil, fmt.Errorf("config: cache.ttl: %w", err)
	}

	cfg := &Config{
		Chain: ChainConfig{
			RPCURL:          v.GetString("chain.rpc_url"),
			ChainID:         v.GetInt64("chain.chain_id"),
			ManagerAddress:  v.GetString("chain.manager_address"),
			PrivateKey:      strings.TrimPrefix(v.GetString("chain.private_key"), "0x"),
			TrackerAttempts: v.GetInt("chain.tracker_attempts"),
			TrackerInterval: trackerInterval,
		},
		Backend: BackendConfig{
			APIURL:      v.GetString("backend.api_url"),
			ExplorerURL: v.GetString("backend.explorer_url"),
			WSURL:       v.GetString("backend.ws_url"),
		},
		Trade: TradeConfig{
			QuoteDebounce:   quoteDebounce,
			TargetLiquidity: v.GetString("trade.target_liquidity"),
			CreationFee:     v.GetString("trade.creation_fee"),
		},
		Cache: CacheConfig{
			RedisEnabled:  v.GetBool("cache.redis_enabled"),
			RedisAddress:  v.GetString("cache.redis_address"),
			RedisUsername: v.GetString("cache.redis_username"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
			RedisUseTLS:   v.GetBool("cache.redis_use_tls"),
			TTL:           cacheTTL,
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	return cfg, nil
}

// ValidateChain checks the fields required for on-chain operations.
func (c *Config) ValidateChain() error {
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("config: chain.rpc_url is required (CURVELAUNCH_CHAIN_RPC_URL)")
	}
	if c.Chain.ManagerAddress == "" {
		return fmt.Errorf("config: chain.manager_address is required (CURVELAUNCH_CHAIN_MANAGER_ADDRESS)")
	}
	if c.Chain.PrivateKey == "" {
		return fmt.Errorf("config: chain.private_key is required (CURVELAUNCH_CHAIN_PRIVATE_KEY)")
	}
	return nil
}

// ValidateBackend checks the fields required for catalog and launch flows.
func (c *Config) ValidateBackend() error {
	if c.Backend.APIURL == "" {
		return fmt.Errorf("config: backend.api_url is required (CURVELAUNCH_BACKEND_API_URL)")
	}
	return nil
}
