package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/coldchain/internal/simulator"
	redisAdapter "github.com/aretw0/coldchain/pkg/adapters/redis"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/aretw0/coldchain/pkg/domain"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated item journeys",
	Long: `Generates readings for a batch of items walking the configured stations,
with optional out-of-order skips, and sends them to a running server over
Redis pub/sub (--transport redis) or the HTTP ingest endpoint (--transport http).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		transport, _ := cmd.Flags().GetString("transport")
		url, _ := cmd.Flags().GetString("url")
		items, _ := cmd.Flags().GetInt("items")
		interval, _ := cmd.Flags().GetDuration("interval")
		skip, _ := cmd.Flags().GetFloat64("out-of-order")
		seed, _ := cmd.Flags().GetUint64("seed")
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}

		var sender simulator.Sender
		switch transport {
		case "redis":
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis transport needs redis.addr (or COLDCHAIN_REDIS_ADDR)")
			}
			client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			defer client.Close()
			pub := redisAdapter.NewPublisher(client, redisAdapter.WithPrefix(cfg.Redis.Prefix), redisAdapter.WithLogger(logger))
			sender = simulator.SenderFunc(func(ctx context.Context, ev domain.InboundEvent) error {
				_, err := pub.Publish(ctx, ev)
				return err
			})
		case "http":
			sender = simulator.HTTPSender{BaseURL: url, Codec: codec.New(cfg.Redis.Prefix)}
		default:
			return fmt.Errorf("unknown transport: %s. Supported: redis, http", transport)
		}

		events := simulator.Plan{
			Stations:   cfg.StationIDs(),
			Items:      items,
			OutOfOrder: skip,
			Seed:       seed,
		}.Events()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("Simulating", "items", items, "events", len(events), "transport", transport, "seed", seed)
		sent, err := simulator.Run(ctx, sender, events, interval)
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d/%d events\n", sent, len(events))
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringP("transport", "t", "http", "Transport: redis or http")
	simulateCmd.Flags().String("url", "http://localhost:3000", "Server base URL for the http transport")
	simulateCmd.Flags().IntP("items", "n", 5, "Number of items")
	simulateCmd.Flags().Duration("interval", 500*time.Millisecond, "Pause between readings")
	simulateCmd.Flags().Float64("out-of-order", 0, "Probability (0-1) that an item skips a station")
	simulateCmd.Flags().Uint64("seed", 0, "Random seed (default: time based)")
}
