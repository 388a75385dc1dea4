// streamtest connects to RTDS and prints crypto prices to the console.
// Usage: go run ./cmd/streamtest --symbols btcusdt,ethusdt --chainlink btc/usd
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/rtds-recorder/internal/connection"
	"github.com/rickgao/rtds-recorder/internal/rtds"
)

func main() {
	endpoint := flag.String("url", rtds.DefaultEndpoint, "RTDS websocket endpoint")
	symbols := flag.String("symbols", "", "comma-separated exchange symbols (empty = all)")
	chainlink := flag.String("chainlink", "", "chainlink symbol to stream as well, e.g. btc/usd")
	verbose := flag.Bool("verbose", false, "print full price JSON")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Setup logger
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	client, err := rtds.NewClient(*endpoint, connection.DefaultConfig(), rtds.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	prices, err := client.SubscribeCryptoPrices(ctx, splitSymbols(*symbols)...)
	if err != nil {
		logger.Error("failed to subscribe to crypto prices", "error", err)
		os.Exit(1)
	}
	go printPrices(ctx, "binance", prices, *verbose)

	if *chainlink != "" {
		clPrices, err := client.SubscribeChainlinkPrices(ctx, *chainlink)
		if err != nil {
			logger.Error("failed to subscribe to chainlink prices", "error", err)
			os.Exit(1)
		}
		go printPrices(ctx, "chainlink", clPrices, *verbose)
	}

	// State printer
	go func() {
		states := client.StateReceiver()
		for {
			if err := states.Changed(ctx); err != nil {
				return
			}
			logger.Info("connection state", "state", states.Borrow().String())
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop", "url", *endpoint)

	select {
	case <-ctx.Done():
	case <-client.Done():
		logger.Error("client stopped")
	}

	logger.Info("shutting down...")
	if err := client.Close(); err != nil {
		logger.Warn("close", "error", err)
	}
	logger.Info("shutdown complete")
}

func splitSymbols(s string) []string {
	var out []string
	for _, sym := range strings.Split(s, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

func printPrices(ctx context.Context, source string, prices <-chan rtds.CryptoPrice, verbose bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-prices:
			if !ok {
				return
			}
			if verbose {
				data, _ := json.Marshal(p)
				fmt.Printf("[%s] %s\n", source, data)
				continue
			}
			fmt.Printf("[%s] %-10s %s  @ %s\n",
				source, p.Symbol, p.Value.String(), p.Time().UTC().Format(time.RFC3339Nano))
		}
	}
}
