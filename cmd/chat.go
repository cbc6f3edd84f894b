package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/curvelaunch/launchpad-go/pkg/amount"
	"github.com/curvelaunch/launchpad-go/pkg/chain"
)

var chatCmd = &cobra.Command{
	Use:   "chat <token-address> [message]",
	Short: "Read or post to a token's chat",
	Long: `Show a token's chat, or post a message to it. Posting signs you in with
the configured wallet first.

Examples:
  curvelaunch chat 0x1234...abcd
  curvelaunch chat 0x1234...abcd "to the moon"`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) {
	address := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, _, err := loadConfig(cmd)
	exitOnErr(err)
	backend, err := backendClient(cfg)
	exitOnErr(err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(args) == 2 {
		exitOnErr(cfg.ValidateChain())
		signer, err := chain.NewPrivateKeySigner(cfg.Chain.PrivateKey)
		exitOnErr(err)
		_, err = backend.Authenticate(ctx, signer.Address().Hex(), signer)
		exitOnErr(err)

		msg, err := backend.PostChatMessage(ctx, address, args[1])
		exitOnErr(err)
		printSuccess(fmt.Sprintf("Posted as %s", truncate(msg.Sender, 12)))
		return
	}

	messages, err := backend.GetChatMessages(ctx, address)
	exitOnErr(err)

	if jsonOutput {
		data, _ := json.MarshalIndent(messages, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(messages) == 0 {
		fmt.Println("\nNo messages yet.")
		return
	}
	fmt.Println()
	for _, msg := range messages {
		fmt.Printf("%s %s  %s\n",
			color.HiBlackString(amount.Relative(msg.Timestamp)),
			color.CyanString(truncate(msg.Sender, 12)),
			strings.TrimSpace(msg.Text))
	}
	fmt.Println()
}
