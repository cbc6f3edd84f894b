package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/api"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Sign in with the configured wallet and show the account",
	Long: `Authenticate against the platform with the configured private key and
display the account profile and recent transactions.`,
	Run: runAccount,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func runAccount(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, _, err := loadConfig(cmd)
	exitOnErr(err)
	exitOnErr(cfg.ValidateChain())
	backend, err := backendClient(cfg)
	exitOnErr(err)

	signer, err := chain.NewPrivateKeySigner(cfg.Chain.PrivateKey)
	exitOnErr(err)
	address := signer.Address().Hex()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Signing in..."
		s.Start()
	}

	session, err := backend.Authenticate(ctx, address, signer)
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		exitOnErr(err)
	}
	user, err := backend.CurrentUser(ctx)
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		exitOnErr(err)
	}
	txs, txErr := backend.GetAccountTransactions(ctx, address)
	if !jsonOutput {
		s.Stop()
	}

	expiry, _ := api.SessionExpiry(session)

	if jsonOutput {
		out := map[string]interface{}{
			"user":            user,
			"session_expires": expiry,
		}
		if txErr == nil {
			out["transactions"] = txs
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println()
	color.Green("  Signed in as %s", address)
	if !expiry.IsZero() {
		fmt.Printf("  Session expires %s\n", expiry.Format(time.RFC1123))
	}
	if txErr == nil && len(txs) > 0 {
		fmt.Println("\n  Recent transactions")
		max := len(txs)
		if max > 10 {
			max = 10
		}
		for _, tx := range txs[:max] {
			fmt.Printf("    %-4s %-12s %s\n", tx.Kind,
				formatWeiString(tx.EthAmount)+" ETH",
				color.HiBlackString(tx.Hash))
		}
	}
	fmt.Println()
}

func formatWeiString(s string) string {
	wei, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return "?"
	}
	return amount.Format(wei)
}
