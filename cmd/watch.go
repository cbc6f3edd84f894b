package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/feed"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live platform events",
	Long: `Watch token launches, buys and sells as they happen. Press Ctrl-C to stop.

Examples:
  curvelaunch watch
  curvelaunch watch --json`,
	Run: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, log, err := loadConfig(cmd)
	exitOnErr(err)
	if cfg.Backend.WSURL == "" {
		exitOnErr(fmt.Errorf("config: backend.ws_url is required (CURVELAUNCH_BACKEND_WS_URL)"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	f := feed.New(feed.Config{Endpoint: cfg.Backend.WSURL}, feed.GorillaDialer{}, log)
	go f.Run(ctx)

	if !jsonOutput {
		fmt.Println("Watching platform events (Ctrl-C to stop)...")
	}

	for ev := range f.Events() {
		if jsonOutput {
			data, _ := json.Marshal(ev)
			fmt.Println(string(data))
			continue
		}
		printEvent(ev)
	}
}

func printEvent(ev feed.Event) {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := color.HiBlackString(ts.Format("15:04:05"))

	switch ev.Type {
	case feed.EventTokenCreated:
		fmt.Printf("%s %s %s (%s) %s\n", stamp,
			color.GreenString("LAUNCH"), ev.TokenName, ev.TokenSymbol,
			color.HiBlackString(ev.TokenAddress))
	case feed.EventTokensBought:
		fmt.Printf("%s %s %s spent %s ETH on %s\n", stamp,
			color.CyanString("BUY   "), truncate(ev.Account, 12),
			amount.Format(ev.EthWei()), symbolOrAddress(ev))
	case feed.EventTokensSold:
		fmt.Printf("%s %s %s sold %s tokens of %s\n", stamp,
			color.YellowString("SELL  "), truncate(ev.Account, 12),
			amount.Format(ev.TokenWei()), symbolOrAddress(ev))
	}
}

func symbolOrAddress(ev feed.Event) string {
	if ev.TokenSymbol != "" {
		return ev.TokenSymbol
	}
	return truncate(ev.TokenAddress, 12)
}
