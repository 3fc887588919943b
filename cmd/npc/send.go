package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sendOpts struct {
	avatar string
	quiet  bool
}

var sendCmd = &cobra.Command{
	Use:   "send [flags] MESSAGE...",
	Short: "Show a message on the overlay",
	Long: `Queue a message for the overlay. All arguments are joined with spaces.

The avatar is downloaded by npcd when the message reaches the front of the
queue; if it cannot be fetched the message is skipped.

Example:
  npc send --avatar https://example.com/me.png "Build finished."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.avatar, "avatar", "a", "",
		"Avatar image URL")
	sendCmd.Flags().BoolVarP(&sendOpts.quiet, "quiet", "q", false,
		"Do not print the event ID")
}

func runSend(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext(cmd.Context())
	defer cancel()

	id, err := client.Notify(ctx, sendOpts.avatar, message)
	if err != nil {
		return fmt.Errorf("is npcd running? %w", err)
	}
	logger.Debug("notification queued", "event_id", id)

	if !sendOpts.quiet {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
