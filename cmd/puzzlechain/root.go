package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzlechain/contract"
	"puzzlechain/sdk"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	hostCfg contract.HostConfig
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "puzzlechain",
	Short: "Local host for the puzzle economy programs",
	Long: `puzzlechain runs the puzzle economy programs (token, nft, dao, lottery,
marketplace and the rest) on an in-memory ledger. Sessions are YAML scripts
that deploy programs and call their exported methods by name.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := contract.DefaultHostConfig()
		if cfgFile != "" {
			loaded, err := contract.LoadHostConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("log-level") || cfg.Log.Level == "" {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") || cfg.Log.Format == "" {
			cfg.Log.Format = logFormat
		}
		l, err := sdk.NewLogger(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		hostCfg, logger = cfg, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "host config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")

	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(runCmd)
}
