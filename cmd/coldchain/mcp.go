package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/coldchain"
	"github.com/aretw0/coldchain/pkg/adapters/mcp"
	redisAdapter "github.com/aretw0/coldchain/pkg/adapters/redis"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts a tracker and exposes it as an MCP Server, so AI agents can query
stations, items and alerts, or record movements.

When redis.addr is set the tracker also consumes station readings from Redis.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		tracker, err := coldchain.New(cfg, coldchain.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("error initializing tracker: %w", err)
		}
		defer tracker.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := tracker.Start(ctx); err != nil {
			return err
		}

		if cfg.Redis.Addr != "" {
			client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer client.Close()
			sub := redisAdapter.NewSubscriber(client, tracker,
				redisAdapter.WithPrefix(cfg.Redis.Prefix),
				redisAdapter.WithLogger(logger),
				redisAdapter.WithRejectHook(tracker.Metrics().Reject),
			)
			go func() {
				if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Redis subscriber stopped", "error", err)
				}
			}()
		}

		srv := mcp.NewServer(tracker, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Coldchain MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			logger.Info("Starting Coldchain MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP Server execution failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8081, "Port for SSE transport")
}
