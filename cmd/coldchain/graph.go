package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/coldchain/internal/presentation/graph"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the station lifecycle as a Mermaid diagram",
	Long: `Prints the configured station sequence as a Mermaid flowchart.
With --url the live state of a running server is drawn on top: item counts per
station, stale stations and rejected transitions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lc, err := domain.NewLifecycle(cfg.StationIDs())
		if err != nil {
			return err
		}
		names := make(map[string]string, len(cfg.Stations))
		for _, st := range cfg.Stations {
			names[st.ID] = st.Name
		}

		var overlay *graph.Overlay
		if url, _ := cmd.Flags().GetString("url"); url != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			snap, _, err := fetchSnapshot(ctx, url)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromSnapshot(snap)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(lc, names, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("url", "", "Base URL of a running server to overlay live state")
}
