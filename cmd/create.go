package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
	"github.com/curvelaunch/launchpad-go/pkg/launch"
)

var (
	createName        string
	createSymbol      string
	createDescription string
	createTwitter     string
	createTelegram    string
	createWebsite     string
	createImagePath   string
	createInitialBuy  string
	createNoConfirm   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a new token on the bonding curve",
	Long: `Create a token: upload its image, submit the creation transaction, and
attach the description and social links once the chain settles.

Examples:
  curvelaunch create --name "Wave" --symbol WAVE --image ./wave.png
  curvelaunch create --name "Wave" --symbol WAVE --initial-buy 0.1 --yes`,
	Run: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createName, "name", "", "Token name (required)")
	createCmd.Flags().StringVar(&createSymbol, "symbol", "", "Token symbol (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Token description")
	createCmd.Flags().StringVar(&createTwitter, "twitter", "", "Twitter/X link")
	createCmd.Flags().StringVar(&createTelegram, "telegram", "", "Telegram link")
	createCmd.Flags().StringVar(&createWebsite, "website", "", "Website link")
	createCmd.Flags().StringVar(&createImagePath, "image", "", "Path to the token image (max 1MB)")
	createCmd.Flags().StringVar(&createInitialBuy, "initial-buy", "", "Optional ETH amount to buy at launch")
	createCmd.Flags().BoolVarP(&createNoConfirm, "yes", "y", false, "Skip confirmation prompt")

	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("symbol")
}

func runCreate(cmd *cobra.Command, args []string) {
	cfg, log, err := loadConfig(cmd)
	exitOnErr(err)

	fee, err := amount.ParseDecimal(cfg.Trade.CreationFee)
	exitOnErr(err)

	var initialBuy *big.Int
	if createInitialBuy != "" {
		initialBuy, err = amount.ParseDecimal(createInitialBuy)
		if err != nil {
			exitOnErr(fmt.Errorf("invalid --initial-buy: %w", err))
		}
	}

	req := launch.Request{
		Name:        createName,
		Symbol:      createSymbol,
		Description: createDescription,
		Twitter:     createTwitter,
		Telegram:    createTelegram,
		Website:     createWebsite,
		InitialBuy:  initialBuy,
	}
	if createImagePath != "" {
		img, err := os.ReadFile(createImagePath)
		exitOnErr(err)
		req.Image = img
		req.ImageName = filepath.Base(createImagePath)
	}

	total := new(big.Int).Set(fee)
	if initialBuy != nil {
		total.Add(total, initialBuy)
	}
	fmt.Println()
	color.Cyan("  LAUNCH %s (%s)", req.Name, req.Symbol)
	fmt.Printf("  Creation fee: %s ETH\n", amount.FormatFixed(fee, 4))
	if initialBuy != nil {
		fmt.Printf("  Initial buy:  %s ETH\n", amount.Format(initialBuy))
	}
	fmt.Printf("  Total cost:   %s ETH plus gas\n\n", amount.FormatFixed(total, 4))

	if !createNoConfirm && !confirm("Launch this token?") {
		fmt.Println("Aborted.")
		return
	}

	client, err := chainClient(cfg, log)
	exitOnErr(err)
	defer client.Close()
	backend, err := backendClient(cfg)
	exitOnErr(err)

	tracker := chain.NewTracker(client, cfg.Chain.TrackerAttempts, cfg.Chain.TrackerInterval, log)
	creator := launch.NewCreator(client, tracker, backend, fee, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Launching token..."
	s.Start()
	result, err := creator.Create(ctx, req)
	s.Stop()

	if err != nil {
		var lf *launch.Failure
		if errors.As(err, &lf) {
			printError(errors.New(lf.Message()))
			if (lf.Token != common.Address{}) {
				fmt.Printf("Token address: %s\n", lf.Token.Hex())
			}
			if (lf.Tx != common.Hash{}) {
				fmt.Printf("Transaction:   %s\n", lf.Tx.Hex())
			}
			os.Exit(1)
		}
		exitOnErr(err)
	}

	printSuccess("Token launched!")
	fmt.Printf("  Address:     %s\n", result.Token.Hex())
	fmt.Printf("  Transaction: %s\n", result.Tx.Hex())
	if result.ImageURL != "" {
		fmt.Printf("  Image:       %s\n", result.ImageURL)
	}
	fmt.Println()
}
