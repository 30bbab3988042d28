package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumen-ml/lumen/internal/config"
	"github.com/lumen-ml/lumen/internal/fetch"
	"github.com/lumen-ml/lumen/internal/load"
	"github.com/lumen-ml/lumen/internal/logging"
)

var rootFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

var rootCmd = &cobra.Command{
	Use:           "lumen",
	Short:         "Extension-dispatched resource loading with a content cache",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to TOML config file")
	pf.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.BoolVar(&rootFlags.logJSON, "log-json", false, "Emit JSON logs")

	rootCmd.AddCommand(versionCmd)
}

// env bundles the pieces every subcommand needs.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	client *fetch.Client
	loader *load.Loader
}

func newEnv() (*env, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}

	format := ""
	if rootFlags.logJSON {
		format = "json"
	}
	logger := logging.New(logging.Options{
		Level:  rootFlags.logLevel,
		Format: format,
		Output: os.Stderr,
	})

	client, err := fetch.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		client: client,
		loader: load.New(load.DefaultRegistry(logger), client, logger),
	}, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lumen %s\n", config.Version)
	},
}
