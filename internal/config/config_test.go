package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/rtds-recorder/internal/rtds"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-recorder
stream:
  url: wss://ws-live-data.example.com
  heartbeat_interval: 30s
  max_attempts: 5
database:
  timescale:
    host: localhost
    port: 5432
    name: test_ts
    user: testuser
    password: testpass
subscriptions:
  - topic: crypto_prices
    filters: btcusdt,ethusdt
  - topic: crypto_prices_chainlink
    type: "*"
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-recorder" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-recorder")
	}
	if cfg.Stream.URL != "wss://ws-live-data.example.com" {
		t.Errorf("Stream.URL = %q, want %q", cfg.Stream.URL, "wss://ws-live-data.example.com")
	}
	if cfg.Stream.HeartbeatInterval != 30*time.Second {
		t.Errorf("Stream.HeartbeatInterval = %v, want %v", cfg.Stream.HeartbeatInterval, 30*time.Second)
	}
	if cfg.Stream.MaxAttempts != 5 {
		t.Errorf("Stream.MaxAttempts = %d, want 5", cfg.Stream.MaxAttempts)
	}
	if cfg.Database.Timescale.Host != "localhost" {
		t.Errorf("Database.Timescale.Host = %q, want %q", cfg.Database.Timescale.Host, "localhost")
	}
	if len(cfg.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(cfg.Subscriptions))
	}
	if cfg.Subscriptions[0].Filters != "btcusdt,ethusdt" {
		t.Errorf("Subscriptions[0].Filters = %q", cfg.Subscriptions[0].Filters)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: test-recorder
database:
  timescale:
    host: localhost
    name: test_ts
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Timescale.Password != "secret123" {
		t.Errorf("Database.Timescale.Password = %q, want %q", cfg.Database.Timescale.Password, "secret123")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Errorf("Load(missing) error = %v, want read config file error", err)
	}

	path := writeTempFile(t, "instance: [unclosed")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Errorf("Load(invalid) error = %v, want parse config yaml error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-recorder
subscriptions:
  - topic: crypto_prices
  - topic: comments
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Stream.URL != DefaultStreamURL {
		t.Errorf("Stream.URL = %q, want %q", cfg.Stream.URL, DefaultStreamURL)
	}
	if cfg.Stream.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("Stream.HeartbeatInterval = %v, want %v", cfg.Stream.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.Stream.ReconnectMaxDelay != DefaultReconnectMaxDelay {
		t.Errorf("Stream.ReconnectMaxDelay = %v, want %v", cfg.Stream.ReconnectMaxDelay, DefaultReconnectMaxDelay)
	}
	if cfg.Bridge.BaseURL != DefaultBridgeURL {
		t.Errorf("Bridge.BaseURL = %q, want %q", cfg.Bridge.BaseURL, DefaultBridgeURL)
	}
	if cfg.Database.Timescale.Port != DefaultDBPort {
		t.Errorf("Database.Timescale.Port = %d, want %d", cfg.Database.Timescale.Port, DefaultDBPort)
	}
	if cfg.Database.Timescale.SSLMode != DefaultDBSSLMode {
		t.Errorf("Database.Timescale.SSLMode = %q, want %q", cfg.Database.Timescale.SSLMode, DefaultDBSSLMode)
	}
	if cfg.Writers.BatchSize != DefaultBatchSize {
		t.Errorf("Writers.BatchSize = %d, want %d", cfg.Writers.BatchSize, DefaultBatchSize)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, DefaultLogFormat)
	}
	if cfg.Subscriptions[0].Type != rtds.TypeUpdate {
		t.Errorf("Subscriptions[0].Type = %q, want %q", cfg.Subscriptions[0].Type, rtds.TypeUpdate)
	}
	if cfg.Subscriptions[1].Type != rtds.TypeAll {
		t.Errorf("Subscriptions[1].Type = %q, want %q", cfg.Subscriptions[1].Type, rtds.TypeAll)
	}
}

func TestStreamConfig_ConnectionConfig(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	cc := cfg.Stream.ConnectionConfig()
	if err := cc.Validate(); err != nil {
		t.Fatalf("default ConnectionConfig invalid: %v", err)
	}
	if cc.Reconnect.Jitter != DefaultReconnectJitter {
		t.Errorf("Jitter = %v, want %v", cc.Reconnect.Jitter, DefaultReconnectJitter)
	}

	zero := 0.0
	cfg.Stream.ReconnectJitter = &zero
	cfg.Stream.MaxAttempts = 7
	cc = cfg.Stream.ConnectionConfig()
	if cc.Reconnect.Jitter != 0 {
		t.Errorf("Jitter = %v, want 0", cc.Reconnect.Jitter)
	}
	if cc.Reconnect.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", cc.Reconnect.MaxAttempts)
	}
}

func TestLoggingConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := (LoggingConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			modify:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "non websocket url",
			modify:  func(c *Config) { c.Stream.URL = "https://example.com" },
			wantErr: `stream.url must be a ws:// or wss:// URL, got "https://example.com"`,
		},
		{
			name:    "max delay below initial",
			modify:  func(c *Config) { c.Stream.ReconnectMaxDelay = time.Millisecond },
			wantErr: "stream: reconnect max delay must be >= initial delay",
		},
		{
			name:    "missing timescale password",
			modify:  func(c *Config) { c.Database.Timescale.Password = "" },
			wantErr: "database.timescale.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			modify: func(c *Config) {
				c.Database.Timescale.MaxConns = 5
				c.Database.Timescale.MinConns = 10
			},
			wantErr: "database.timescale.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "metrics port out of range",
			modify:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: `logging.level must be one of debug, info, warn, error, got "trace"`,
		},
		{
			name:    "subscription without topic",
			modify:  func(c *Config) { c.Subscriptions = []SubscriptionConfig{{Type: "*"}} },
			wantErr: "subscriptions[0].topic is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestRTDSSubscriptions(t *testing.T) {
	cfg := &Config{Subscriptions: []SubscriptionConfig{
		{Topic: rtds.TopicCryptoPrices, Type: rtds.TypeUpdate, Filters: " btcusdt "},
	}}

	subs := cfg.RTDSSubscriptions()
	if len(subs) != 1 {
		t.Fatalf("len = %d, want 1", len(subs))
	}
	if subs[0] != rtds.CryptoPrices("btcusdt") {
		t.Errorf("subs[0] = %+v, want %+v", subs[0], rtds.CryptoPrices("btcusdt"))
	}
}

func validConfig() *Config {
	cfg := &Config{
		Instance: InstanceConfig{ID: "test"},
		Database: DatabaseConfig{
			Timescale: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
