package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/coldchain/internal/presentation/tui"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the live state of a running server",
	Long:  `Fetches the snapshot from a running coldchain server and prints a status report (rendered with glamour on a terminal, plain markdown otherwise).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		snap, raw, err := fetchSnapshot(ctx, url)
		if err != nil {
			return err
		}
		if asJSON {
			_, err := os.Stdout.Write(raw)
			return err
		}

		render := tui.NewRenderer(os.Stdout)
		out, err := render(tui.RenderSnapshotMarkdown(snap, time.Now()))
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}
		fmt.Fprint(os.Stdout, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("url", "http://localhost:3000", "Base URL of the coldchain server")
	statusCmd.Flags().Bool("json", false, "Print the raw snapshot JSON")
}

func fetchSnapshot(ctx context.Context, baseURL string) (domain.Snapshot, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/snapshot", nil)
	if err != nil {
		return domain.Snapshot{}, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Snapshot{}, nil, fmt.Errorf("fetch snapshot: unexpected status %s", resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, raw, nil
}
