package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/rickgao/rtds-recorder/internal/bridge"
	"github.com/rickgao/rtds-recorder/internal/config"
)

var (
	configPath string
	baseURL    string
	timeout    time.Duration
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Bridge API client",
	Long: `bridgectl queries the bridge API for deposit addresses, supported assets,
deposit status, transfer quotes and withdrawal addresses. Output is JSON.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional config file; bridge settings are read from it")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "bridge API base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(withdrawCmd)
}

// newClient builds a bridge client from the optional config file and flags.
func newClient() (*bridge.Client, error) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.BridgeConfig{
		BaseURL:    config.DefaultBridgeURL,
		Timeout:    config.DefaultBridgeTimeout,
		MaxRetries: config.DefaultBridgeMaxRetries,
	}
	if configPath != "" {
		full, err := config.LoadWithDefaults(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = full.Bridge
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}

	opts := []bridge.ClientOption{
		bridge.WithLogger(logger),
		bridge.WithTimeout(cfg.Timeout),
		bridge.WithRetries(cfg.MaxRetries, time.Second),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, bridge.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}
	return bridge.NewClient(cfg.BaseURL, opts...), nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
