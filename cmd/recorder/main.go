// recorder streams crypto prices from RTDS and records them to TimescaleDB.
// Usage: go run ./cmd/recorder --config config.example.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/rtds-recorder/internal/config"
	"github.com/rickgao/rtds-recorder/internal/connection"
	"github.com/rickgao/rtds-recorder/internal/database"
	"github.com/rickgao/rtds-recorder/internal/metrics"
	"github.com/rickgao/rtds-recorder/internal/rtds"
	"github.com/rickgao/rtds-recorder/internal/version"
	"github.com/rickgao/rtds-recorder/internal/writer"
)

func main() {
	configPath := flag.String("config", "config.example.yaml", "path to config file")
	flag.Parse()

	// Load configuration before logging so the level and format apply from the start.
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting recorder",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
		"stream_url", cfg.Stream.URL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)

	pools, err := database.NewPools(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pools.Close()

	if err := database.EnsureSchema(ctx, pools.Timescale); err != nil {
		logger.Error("failed to create schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Create RTDS client
	client, err := rtds.NewClient(
		cfg.Stream.URL,
		cfg.Stream.ConnectionConfig(),
		rtds.WithLogger(logger),
		rtds.WithConnectionOptions(streamOptions(cfg.Stream)...),
	)
	if err != nil {
		logger.Error("failed to create stream client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// Subscribe the writer before any subscription goes out so no price is missed.
	priceWriter := writer.NewPriceWriter(
		writer.WriterConfig{
			BatchSize:     cfg.Writers.BatchSize,
			FlushInterval: cfg.Writers.FlushInterval,
		},
		client.Messages(),
		pools.Timescale,
		logger,
	)
	if err := metrics.RegisterWriter("prices", priceWriter); err != nil {
		logger.Warn("failed to register writer metrics", "error", err)
	}
	if err := priceWriter.Start(ctx); err != nil {
		logger.Error("failed to start price writer", "error", err)
		os.Exit(1)
	}

	subs := cfg.RTDSSubscriptions()
	if err := client.Subscribe(subs...); err != nil {
		logger.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}
	logger.Info("subscriptions registered", "count", len(subs))

	// Metrics and health server
	server := metrics.NewServer(
		cfg.Metrics.Port,
		cfg.Metrics.Path,
		createHealthHandler(pools, client, priceWriter),
	)
	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("recorder running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown or terminal stream failure
	select {
	case <-ctx.Done():
	case <-client.Done():
		logger.Error("stream client stopped, reconnect attempts exhausted",
			"state", client.State().String(),
		)
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := client.Close(); err != nil {
		logger.Warn("stream client close", "error", err)
	}
	if err := priceWriter.Stop(shutdownCtx); err != nil {
		logger.Warn("price writer stop", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}

	stats := priceWriter.Stats()
	logger.Info("recorder stopped",
		"inserts", stats.Inserts,
		"conflicts", stats.Conflicts,
		"errors", stats.Errors,
		"skipped", stats.Skipped,
	)
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// streamOptions maps stream settings onto connection manager options.
func streamOptions(s config.StreamConfig) []connection.Option {
	return []connection.Option{
		connection.WithObserver(metrics.NewObserver(s.URL)),
		connection.WithDialer(connection.NewWebSocketDialer(s.HandshakeTimeout)),
		connection.WithBroadcastCapacity(s.BroadcastCapacity),
		connection.WithOutboundBuffer(s.OutboundBuffer),
		connection.WithWriteTimeout(s.WriteTimeout),
	}
}

// createHealthHandler reports database and stream health as JSON.
func createHealthHandler(pools *database.Pools, client *rtds.Client, w *writer.PriceWriter) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pools.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["timescaledb"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["timescaledb"] = "connected"
		}

		// Check stream
		state := client.State()
		health.Components["stream"] = map[string]interface{}{
			"state":         state.String(),
			"subscriptions": len(client.Subscriptions()),
		}
		if !state.IsConnected() && health.Status == "healthy" {
			health.Status = "degraded"
		}

		stats := w.Stats()
		health.Components["price_writer"] = map[string]interface{}{
			"inserts": stats.Inserts,
			"errors":  stats.Errors,
			"skipped": stats.Skipped,
		}

		rw.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			rw.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(rw).Encode(health)
	})
}
