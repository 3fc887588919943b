package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/npc/internal/config"
)

var configOpts struct {
	path  string
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the npcd config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write a config file with every setting at its default value.

A running npcd picks up edits to the file without a restart.

Examples:
  # Create $XDG_CONFIG_HOME/npc/npc.toml
  npc config init

  # Overwrite an existing file
  npc config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configPathCmd)

	configInitCmd.Flags().StringVar(&configOpts.path, "path", "",
		"Write to this file instead of the default location")
	configInitCmd.Flags().BoolVarP(&configOpts.force, "force", "f", false,
		"Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configOpts.path
	if path == "" {
		path = config.ConfigPath()
	}
	if path == "" {
		return errors.New("cannot determine config path, use --path")
	}

	if !configOpts.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	logger.Debug("config written", "path", path)

	_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
