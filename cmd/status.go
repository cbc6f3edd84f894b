package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/pkg/chain"
)

var statusWait bool

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check a transaction's confirmation status",
	Long: `Check whether a submitted transaction has confirmed, reverted, or is
still pending.

Examples:
  curvelaunch status 0xabcd...1234
  curvelaunch status 0xabcd...1234 --wait`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "Poll until the transaction resolves")
}

func runStatus(cmd *cobra.Command, args []string) {
	hash := common.HexToHash(args[0])
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, log, err := loadConfig(cmd)
	exitOnErr(err)
	client, err := chainClient(cfg, log)
	exitOnErr(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	attempts := cfg.Chain.TrackerAttempts
	if !statusWait {
		attempts = 1
	}
	tracker := chain.NewTracker(client, attempts, cfg.Chain.TrackerInterval, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction..."
		s.Start()
	}
	receipt, err := tracker.Track(ctx, hash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		var failure *chain.Failure
		if errors.As(err, &failure) {
			switch failure.Kind {
			case chain.FailureReverted:
				if jsonOutput {
					printStatusJSON(hash, "reverted", receipt)
				} else {
					color.Red("\nTransaction reverted: %s\n", hash.Hex())
				}
				return
			case chain.FailureTimeout:
				if jsonOutput {
					printStatusJSON(hash, "pending", nil)
				} else {
					color.Yellow("\nTransaction still pending: %s\n", hash.Hex())
				}
				return
			}
		}
		exitOnErr(err)
	}

	if jsonOutput {
		printStatusJSON(hash, "confirmed", receipt)
		return
	}
	color.Green("\nTransaction confirmed: %s", hash.Hex())
	if receipt != nil {
		fmt.Printf("Block:    %s\n", receipt.BlockNumber)
		fmt.Printf("Gas used: %d\n\n", receipt.GasUsed)
	}
}

func printStatusJSON(hash common.Hash, state string, receipt *types.Receipt) {
	out := map[string]interface{}{"tx": hash.Hex(), "status": state}
	if receipt != nil {
		out["receipt"] = receipt
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}
