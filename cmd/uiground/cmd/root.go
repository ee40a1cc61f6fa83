// Package cmd provides the CLI commands for uiground.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/uiground/internal/config"
	"github.com/Aman-CERP/uiground/internal/logging"
	"github.com/Aman-CERP/uiground/pkg/version"
)

var (
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the uiground CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uiground",
		Short: "Snapshot index and query engine for UI automation agents",
		Long: `uiground indexes a snapshot of UI element records and answers
structured queries over it: role, state, fuzzy text, context, attribute
and proximity filters, with optional semantic re-ranking by meaning.

Run 'uiground serve' to expose the engine to MCP clients over stdio, or
'uiground query' for one-shot queries against a records file.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("uiground version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.uiground/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.uiground/logs/")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}()
	return NewRootCmd().Execute()
}

// loadConfig loads configuration honoring the global flags and sets up
// logging. Safe to call from any subcommand's RunE.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Logging
	if debugMode {
		logCfg.Level = "debug"
	}
	if _, cleanup, err := logging.Setup(logCfg); err == nil {
		loggingCleanup = cleanup
	}
	return cfg, nil
}
