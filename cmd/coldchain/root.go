package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/coldchain/internal/config"
	"github.com/aretw0/coldchain/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coldchain",
	Short: "Coldchain tracks items through a fixed sequence of cold-chain stations",
	Long: `Coldchain ingests station readings, validates each movement against the
lifecycle order, raises alerts on invalid transitions and streams live state
to dashboards over WebSocket and SSE.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "coldchain.yaml", "Configuration file (optional)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs")
}

// loadConfig reads the file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// newLogger builds the process logger on Stderr.
func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if asJSON, _ := cmd.Flags().GetBool("log-json"); asJSON {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}
