package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/internal/config"
	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
	"github.com/curvelaunch/launchpad-go/pkg/trade"
)

var buyCmd = &cobra.Command{
	Use:   "buy <token-address> <eth-amount>",
	Short: "Buy tokens on the bonding curve",
	Long: `Buy tokens by spending the given amount of the reserve currency.

Examples:
  curvelaunch buy 0x1234...abcd 0.5
  curvelaunch buy 0x1234...abcd 0.05 --yes`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runTrade(cmd, trade.Buy, args[0], args[1])
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <token-address> <token-amount>",
	Short: "Sell tokens back to the bonding curve",
	Long: `Sell the given amount of tokens back to the curve. A first-time sell
needs a one-off spending approval; the command submits it and asks you to
re-run once it confirms.

Examples:
  curvelaunch sell 0x1234...abcd 1000
  curvelaunch sell 0x1234...abcd 250.5 --yes`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runTrade(cmd, trade.Sell, args[0], args[1])
	},
}

var tradeNoConfirm bool

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)

	for _, c := range []*cobra.Command{buyCmd, sellCmd} {
		c.Flags().BoolVarP(&tradeNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	}
}

func runTrade(cmd *cobra.Command, direction trade.Direction, tokenArg, amountArg string) {
	if !common.IsHexAddress(tokenArg) {
		exitOnErr(fmt.Errorf("invalid token address: %s", tokenArg))
	}
	token := common.HexToAddress(tokenArg)
	if !amount.IsValidDecimal(amountArg) {
		exitOnErr(fmt.Errorf("invalid amount: %s", amountArg))
	}

	cfg, log, err := loadConfig(cmd)
	exitOnErr(err)
	client, err := chainClient(cfg, log)
	exitOnErr(err)
	defer client.Close()

	tracker := chain.NewTracker(client, cfg.Chain.TrackerAttempts, cfg.Chain.TrackerInterval, log)
	orch := trade.New(client, client, tracker, client.Signer().Address(), token, log,
		trade.WithDebounce(cfg.Trade.QuoteDebounce))
	defer orch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching balances and quote..."
	s.Start()

	orch.SetDirection(direction)
	if err := orch.CheckApproval(ctx); err != nil {
		s.Stop()
		exitOnErr(err)
	}
	if err := orch.Refresh(ctx); err != nil {
		s.Stop()
		exitOnErr(err)
	}
	orch.SetFromAmount(amountArg)

	snap, err := waitForQuote(ctx, orch)
	s.Stop()
	exitOnErr(err)

	displayQuote(cfg, direction, snap)

	if direction == trade.Sell && snap.Approval != trade.ApprovalApproved {
		if !tradeNoConfirm && !confirm("Submit the one-off spending approval?") {
			fmt.Println("Aborted.")
			return
		}
		runApproval(ctx, orch)
		return
	}

	if !tradeNoConfirm && !confirm("Submit this trade?") {
		fmt.Println("Aborted.")
		return
	}

	hash, err := orch.Submit(ctx)
	exitOnErr(err)

	s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Waiting for confirmation of %s...", hash.Hex())
	s.Start()
	orch.Wait()
	s.Stop()

	final := orch.Snapshot()
	if final.TxStatus == trade.TxFailed && final.LastFailure != nil {
		exitOnErr(final.LastFailure)
	}
	printSuccess(fmt.Sprintf("Trade confirmed: %s", hash.Hex()))
}

// waitForQuote polls until the debounced quote resolves.
func waitForQuote(ctx context.Context, orch *trade.Orchestrator) (trade.Snapshot, error) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := orch.Snapshot()
		if snap.QuotedToAmount != nil && !snap.IsQuoting {
			return snap, nil
		}
		if !snap.IsQuoting {
			if snap.FromAmount == nil || snap.FromAmount.Sign() == 0 {
				return snap, errors.New("amount rejected")
			}
			return snap, errors.New("quote request failed")
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}

func displayQuote(cfg *config.Config, direction trade.Direction, snap trade.Snapshot) {
	fmt.Println()
	if direction == trade.Buy {
		color.Cyan("  BUY")
		fmt.Printf("  Spend:    %s ETH\n", amount.Format(snap.FromAmount))
		fmt.Printf("  Receive:  %s tokens (estimated)\n", amount.Format(snap.QuotedToAmount))
	} else {
		color.Cyan("  SELL")
		fmt.Printf("  Sell:     %s tokens\n", amount.Format(snap.FromAmount))
		fmt.Printf("  Receive:  %s ETH (estimated)\n", amount.Format(snap.QuotedToAmount))
	}
	if snap.NativeBalance != nil {
		fmt.Printf("  Balance:  %s ETH / %s tokens\n",
			amount.Format(snap.NativeBalance), amount.Format(snap.TokenBalance))
	}
	if direction == trade.Sell && snap.Approval != trade.ApprovalApproved {
		color.Yellow("  Spending approval required before selling.")
	}
	fmt.Println()
}

func runApproval(ctx context.Context, orch *trade.Orchestrator) {
	hash, err := orch.Submit(ctx)
	exitOnErr(err)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Waiting for approval %s...", hash.Hex())
	s.Start()
	orch.Wait()
	s.Stop()

	final := orch.Snapshot()
	if final.TxStatus == trade.TxFailed && final.LastFailure != nil {
		exitOnErr(final.LastFailure)
	}
	printSuccess("Approval confirmed. Re-run the sell command to submit the trade.")
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var answer string
	fmt.Scanln(&answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
