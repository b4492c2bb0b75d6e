package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opscart/zap-lighthouse/pkg/config"
	"github.com/opscart/zap-lighthouse/pkg/logging"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
	"github.com/opscart/zap-lighthouse/pkg/storage"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Global flags
	configPath   string
	outputFormat string
	verbose      bool

	// Global config
	cfg      *config.Config
	logger   zerolog.Logger
	provider pricing.Provider
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	rootCmd := &cobra.Command{
		Use:   "lighthouse",
		Short: "Zapier export efficiency auditor",
		Long: `Audit a Zapier account export for wasted tasks: zombie zaps, late filters,
polling triggers, error loops and bloated step chains, priced against your plan tier.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .lighthouse.yml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json, yaml, csv")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, applies global flags and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Output.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err = logging.New(cfg.Output.LogLevel, cfg.Output.LogFormat)
	if err != nil {
		return err
	}
	provider, err = pricing.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return err
	}
	logger.Debug().Str("provider", provider.Name()).Msg("Pricing tiers loaded")
	return nil
}

func openStore() (storage.Store, error) {
	store, err := storage.New(storage.Config{
		Type: cfg.Storage.Type,
		Path: cfg.Storage.Path,
		URL:  cfg.Storage.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lighthouse %s\n", version)
		},
	}
}
