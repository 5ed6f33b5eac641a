package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/coldchain"
	"github.com/aretw0/coldchain/internal/config"
	"github.com/aretw0/coldchain/internal/presentation/tui"
	httpAdapter "github.com/aretw0/coldchain/pkg/adapters/http"
	redisAdapter "github.com/aretw0/coldchain/pkg/adapters/redis"
	"github.com/aretw0/coldchain/pkg/codec"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracking server",
	Long: `Starts the tracking engine with the staleness monitor, the HTTP server
(dashboard, REST, SSE, WebSocket, metrics) and, when redis.addr is set,
the Redis pub/sub subscriber for station readings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("redis") {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis")
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		if term.IsTerminal(int(os.Stderr.Fd())) {
			tui.PrintBanner(os.Stderr, strings.TrimSpace(coldchain.Version))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides http.addr)")
	serveCmd.Flags().String("redis", "", "Redis address for station readings (overrides redis.addr)")
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	tracker, err := coldchain.New(cfg, coldchain.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("error initializing tracker: %w", err)
	}
	defer tracker.Close()

	if err := tracker.Start(ctx); err != nil {
		return err
	}

	metrics := tracker.Metrics()
	handler := httpAdapter.NewHandler(tracker,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithCodec(codec.New(cfg.Redis.Prefix)),
		httpAdapter.WithMetrics(tracker.MetricsHandler()),
		httpAdapter.WithRejectHook(metrics.Reject),
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the background workers.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting Coldchain Server", "address", srv.Addr, "stations", cfg.StationIDs())
		serverErrors <- srv.ListenAndServe()
	}()

	if cfg.Redis.Addr != "" {
		client := redisAdapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()

		opts := []redisAdapter.Option{
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithLogger(logger),
			redisAdapter.WithRejectHook(metrics.Reject),
		}
		sub := redisAdapter.NewSubscriber(client, tracker, opts...)
		// Run retries on its own until ctx ends; an unreachable broker only
		// shows up as stale stations.
		go func() {
			_ = sub.Run(ctx)
		}()

		if cfg.Redis.Mirror {
			pub := redisAdapter.NewPublisher(client, opts...)
			go func() {
				_ = pub.Mirror(ctx, tracker.Subscribe())
			}()
			logger.Info("Mirroring observer messages", "channel", pub.DeltaChannel())
		}
	}

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		logger.Info("Shutdown signal received")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Observer streams never finish on their own; closing the hub ends them.
		tracker.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
			if err := srv.Close(); err != nil {
				logger.Error("Error killing server", "error", err)
			}
		}
		logger.Info("Coldchain Server stopped gracefully")
		return nil
	}
}
