// Package main is the entry point for the npcd overlay daemon.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmylchreest/npc/internal/config"
	"github.com/jmylchreest/npc/internal/daemon"
)

const (
	appID   = "io.github.jmylchreest.npcd"
	appName = "npcd"
)

var (
	// Build-time variables
	version = "dev"
)

type options struct {
	configPath string
	envFile    string
	headless   bool
	noBot      bool
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to the config file (default $XDG_CONFIG_HOME/npc/npc.toml)")
	flag.StringVar(&opts.envFile, "env-file", ".env", "Load NPC_* secrets from this dotenv file if it exists")
	flag.BoolVar(&opts.headless, "headless", false, "Run without a window, logging each overlay frame instead")
	flag.BoolVar(&opts.noBot, "no-bot", false, "Do not start the Telegram bot")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("npcd failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	logger.Info("starting npcd", "version", version, "headless", opts.headless)

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secrets, err := config.LoadSecrets(opts.envFile)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	lock := daemon.NewInstanceLock(daemon.LockPath())
	if err := lock.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock %s)", err, lock.Path())
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release instance lock", "error", err)
		}
	}()

	app := newApp(opts, cfg, secrets, logger)
	if opts.headless {
		return runHeadless(app)
	}
	return runGTK(app)
}
