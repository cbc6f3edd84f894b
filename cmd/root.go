// Package cmd implements the curvelaunch CLI.
package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/internal/config"
	"github.com/curvelaunch/launchpad-go/internal/logging"
	"github.com/curvelaunch/launchpad-go/pkg/api"
	"github.com/curvelaunch/launchpad-go/pkg/cache"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
	"github.com/curvelaunch/launchpad-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "curvelaunch",
	Short: "A CLI for launching and trading tokens on the Curvelaunch bonding curve",
	Long: `curvelaunch is a command-line client for the Curvelaunch platform: create
tokens, buy and sell against the bonding curve, browse the catalog, and watch
the live event feed.

Examples:
  curvelaunch list-tokens --search wave
  curvelaunch token 0x1234...abcd
  curvelaunch buy 0x1234...abcd 0.5
  curvelaunch sell 0x1234...abcd 1000
  curvelaunch create --name "Wave" --symbol WAVE --image ./wave.png
  curvelaunch watch`,
	Version: version.Full(),
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", color.GreenString(message))
}

// loadConfig loads config and builds the root logger, honoring --verbose.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, logging.New(cfg.Logging), nil
}

// chainClient dials the RPC endpoint with the configured key.
func chainClient(cfg *config.Config, log zerolog.Logger) (*chain.Client, error) {
	if err := cfg.ValidateChain(); err != nil {
		return nil, err
	}
	signer, err := chain.NewPrivateKeySigner(cfg.Chain.PrivateKey)
	if err != nil {
		return nil, err
	}
	return chain.Dial(cfg.Chain.RPCURL, cfg.Chain.ManagerAddress, big.NewInt(cfg.Chain.ChainID), signer, log)
}

// backendClient builds the platform API client.
func backendClient(cfg *config.Config) (*api.Client, error) {
	if err := cfg.ValidateBackend(); err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Backend.APIURL, cfg.Backend.ExplorerURL), nil
}

// tokenCache picks Redis when enabled, falling back to in-process memory.
func tokenCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.TokenCache {
	if cfg.Cache.RedisEnabled {
		rc, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
			Address:  cfg.Cache.RedisAddress,
			Username: cfg.Cache.RedisUsername,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			UseTLS:   cfg.Cache.RedisUseTLS,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
			return cache.NewMemoryCache(cfg.Cache.TTL)
		}
		return rc
	}
	return cache.NewMemoryCache(cfg.Cache.TTL)
}

func exitOnErr(err error) {
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}
