package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	Long:  `Loads the configuration file and environment overrides, checks the station sequence and policy values, and prints the resulting lifecycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Lifecycle: %s -> completed\n", strings.Join(cfg.StationIDs(), " -> "))
		fmt.Fprintf(out, "Staleness: offline after %s, checked every %s\n", cfg.Staleness.Threshold, cfg.Staleness.Interval)
		fmt.Fprintf(out, "Windows: events %d, notifications %d, alerts %d\n", cfg.Logs.Events, cfg.Logs.Notifications, cfg.Logs.Alerts)
		fmt.Fprintln(out, "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
