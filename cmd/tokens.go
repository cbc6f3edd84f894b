package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/internal/config"
	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/api"
	"github.com/curvelaunch/launchpad-go/pkg/cache"
	"github.com/curvelaunch/launchpad-go/pkg/curve"
)

var (
	listPage   int
	listLimit  int
	listSort   string
	listOrder  string
	listSearch string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "Browse the token catalog",
	Long: `List tokens on the platform, newest first by default.

Examples:
  curvelaunch list-tokens
  curvelaunch list-tokens --search wave
  curvelaunch list-tokens --sort market_cap --order desc --page 2`,
	Run: runListTokens,
}

var tokenCmd = &cobra.Command{
	Use:   "token <address>",
	Short: "Show one token's detail, curve progress and holders",
	Args:  cobra.ExactArgs(1),
	Run:   runTokenDetail,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(tokenCmd)

	tokensCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	tokensCmd.Flags().IntVar(&listLimit, "limit", 20, "Tokens per page")
	tokensCmd.Flags().StringVar(&listSort, "sort", "created_at", "Sort field")
	tokensCmd.Flags().StringVar(&listOrder, "order", "desc", "Sort order (asc or desc)")
	tokensCmd.Flags().StringVar(&listSearch, "search", "", "Filter by name or symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, _, err := loadConfig(cmd)
	exitOnErr(err)
	client, err := backendClient(cfg)
	exitOnErr(err)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching tokens..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	page, err := client.ListTokens(ctx, api.ListParams{
		Page:   listPage,
		Limit:  listLimit,
		Sort:   listSort,
		Order:  listOrder,
		Search: listSearch,
	})
	if !jsonOutput {
		s.Stop()
	}
	exitOnErr(err)

	if jsonOutput {
		data, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(data))
		return
	}
	displayTokenPage(page)
}

func displayTokenPage(page *api.TokenPage) {
	if len(page.Tokens) == 0 {
		fmt.Println("\nNo tokens found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                                 TOKEN CATALOG")
	fmt.Println(strings.Repeat("=", 90))

	for _, tok := range page.Tokens {
		status := color.YellowString("curve")
		if tok.IsListed {
			status = color.GreenString("listed")
		}
		fmt.Printf("  %-10s  %-28s  %s  %s\n",
			color.YellowString(tok.Symbol),
			truncate(tok.Name, 28),
			status,
			color.HiBlackString(tok.Address))
		fmt.Printf("  %-10s  created %s by %s\n",
			"",
			amount.Relative(tok.CreatedAt),
			color.HiBlackString(truncate(tok.Creator, 14)))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nPage %d of %d (%d tokens total)\n\n", page.Page, page.TotalPages, page.Total)
}

func runTokenDetail(cmd *cobra.Command, args []string) {
	address := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, log, err := loadConfig(cmd)
	exitOnErr(err)
	client, err := backendClient(cfg)
	exitOnErr(err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := tokenCache(ctx, cfg, log)
	defer store.Close()

	tok, err := store.Get(ctx, address)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Debug().Err(err).Msg("cache get failed")
		}
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Fetching token..."
			s.Start()
		}
		tok, err = client.GetToken(ctx, address)
		if !jsonOutput {
			s.Stop()
		}
		exitOnErr(err)
		if cerr := store.Set(ctx, tok); cerr != nil {
			log.Debug().Err(cerr).Msg("cache set failed")
		}
	}

	events, err := client.GetLiquidityEvents(ctx, address)
	if err != nil {
		log.Debug().Err(err).Msg("liquidity events unavailable")
	}
	holders, err := client.GetHolders(ctx, address)
	if err != nil {
		log.Debug().Err(err).Msg("holders unavailable")
	}

	if jsonOutput {
		out := map[string]interface{}{
			"token":            tok,
			"holders":          holders,
			"liquidity_events": events,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	displayTokenDetail(cfg, tok, events, holders)
}

func displayTokenDetail(cfg *config.Config, tok *api.Token, events []api.LiquidityEvent, holders []api.Holder) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("  %s (%s)", tok.Name, tok.Symbol)
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("  Address:  %s\n", tok.Address)
	fmt.Printf("  Creator:  %s\n", tok.Creator)
	fmt.Printf("  Created:  %s\n", amount.Relative(tok.CreatedAt))
	if tok.Description != "" {
		fmt.Printf("  About:    %s\n", tok.Description)
	}
	socials := []struct{ label, value string }{
		{"Twitter", tok.Twitter},
		{"Telegram", tok.Telegram},
		{"Website", tok.Website},
	}
	for _, s := range socials {
		if s.value != "" {
			fmt.Printf("  %-9s %s\n", s.label+":", s.value)
		}
	}

	reserve, ok := new(big.Int).SetString(tok.EthReserve, 10)
	if !ok {
		reserve = big.NewInt(0)
	}
	var targetUnits int64
	if t, ok := new(big.Int).SetString(cfg.Trade.TargetLiquidity, 10); ok {
		targetUnits = t.Int64()
	}
	progress := curve.NewModel(targetUnits).Compute(reserve, len(events) > 0 || tok.IsListed)

	fmt.Println("\n  Curve progress")
	fmt.Printf("  %s %.1f%%\n", progressBar(progress.Percent, 40), progress.Percent)
	if progress.IsComplete {
		color.Green("  Curve complete: token is listed on the open market.")
	} else {
		fmt.Printf("  Reserve: %s / %s\n", amount.Format(reserve), cfg.Trade.TargetLiquidity)
	}

	if len(holders) > 0 {
		fmt.Println("\n  Top holders")
		max := len(holders)
		if max > 10 {
			max = 10
		}
		for _, h := range holders[:max] {
			bal, ok := new(big.Int).SetString(h.Balance, 10)
			if !ok {
				continue
			}
			fmt.Printf("    %-44s %s\n", color.HiBlackString(h.Address), amount.Format(bal))
		}
	}
	fmt.Println()
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + color.GreenString(strings.Repeat("#", filled)) + strings.Repeat("-", width-filled) + "]"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
