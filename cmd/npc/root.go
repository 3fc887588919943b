package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/npc/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		verbose bool
		timeout time.Duration
	}
	logger *slog.Logger
)

// daemonClient is the subset of dbus.Client the commands use.
type daemonClient interface {
	Notify(ctx context.Context, avatarURL, message string) (string, error)
	Status(ctx context.Context) (dbus.Status, error)
}

// newClient connects to npcd; replaced in tests.
var newClient = func() (daemonClient, error) {
	return dbus.NewClient()
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "npc",
	Short: "Send notifications to the npc overlay",
	Long: `npc talks to a running npcd over the session bus.

It can push a message with an avatar onto the overlay queue and report
what the overlay is currently showing.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&globalOpts.timeout, "timeout", 5*time.Second,
		"Timeout for calls to npcd")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// callContext returns a context bounded by --timeout.
func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, globalOpts.timeout)
}
