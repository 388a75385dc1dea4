package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/rtds-recorder/internal/connection"
	"github.com/rickgao/rtds-recorder/internal/rtds"
)

// Config is the root configuration for a recorder instance.
type Config struct {
	Instance      InstanceConfig       `yaml:"instance"`
	Stream        StreamConfig         `yaml:"stream"`
	Bridge        BridgeConfig         `yaml:"bridge"`
	Database      DatabaseConfig       `yaml:"database"`
	Writers       WritersConfig        `yaml:"writers"`
	Metrics       MetricsConfig        `yaml:"metrics"`
	Logging       LoggingConfig        `yaml:"logging"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
}

// InstanceConfig identifies this recorder.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// StreamConfig holds RTDS connection settings.
type StreamConfig struct {
	URL                   string        `yaml:"url"`
	HeartbeatInterval     time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout      time.Duration `yaml:"heartbeat_timeout"`
	ReconnectInitialDelay time.Duration `yaml:"reconnect_initial_delay"`
	ReconnectMaxDelay     time.Duration `yaml:"reconnect_max_delay"`
	ReconnectMultiplier   float64       `yaml:"reconnect_multiplier"`
	ReconnectJitter       *float64      `yaml:"reconnect_jitter"`   // nil = default, 0 disables jitter
	MaxAttempts           uint32        `yaml:"max_attempts"`       // 0 = retry forever
	BroadcastCapacity     int           `yaml:"broadcast_capacity"` // Messages retained for slow consumers
	OutboundBuffer        int           `yaml:"outbound_buffer"`    // Queued outbound requests per connection
	WriteTimeout          time.Duration `yaml:"write_timeout"`      // Deadline per frame write
	HandshakeTimeout      time.Duration `yaml:"handshake_timeout"`  // WebSocket dial handshake
}

// ConnectionConfig converts the stream settings to a connection.Config.
func (s StreamConfig) ConnectionConfig() connection.Config {
	jitter := DefaultReconnectJitter
	if s.ReconnectJitter != nil {
		jitter = *s.ReconnectJitter
	}
	return connection.Config{
		HeartbeatInterval: s.HeartbeatInterval,
		HeartbeatTimeout:  s.HeartbeatTimeout,
		Reconnect: connection.ReconnectConfig{
			InitialDelay: s.ReconnectInitialDelay,
			MaxDelay:     s.ReconnectMaxDelay,
			Multiplier:   s.ReconnectMultiplier,
			Jitter:       jitter,
			MaxAttempts:  s.MaxAttempts,
		},
	}
}

// BridgeConfig holds bridge REST API settings.
type BridgeConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RateLimit  float64       `yaml:"rate_limit"` // Requests per second (0 = unlimited)
	RateBurst  int           `yaml:"rate_burst"`
}

// DatabaseConfig holds the TimescaleDB connection for price data.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SlogLevel returns the configured level, falling back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SubscriptionConfig is one RTDS subscription to open at startup.
type SubscriptionConfig struct {
	Topic   string `yaml:"topic"`
	Type    string `yaml:"type"`
	Filters string `yaml:"filters"`
}

// Subscription converts to the wire form.
func (s SubscriptionConfig) Subscription() rtds.Subscription {
	return rtds.Subscription{
		Topic:   s.Topic,
		Type:    s.Type,
		Filters: strings.TrimSpace(s.Filters),
	}
}

// RTDSSubscriptions converts all configured subscriptions.
func (c *Config) RTDSSubscriptions() []rtds.Subscription {
	subs := make([]rtds.Subscription, 0, len(c.Subscriptions))
	for _, s := range c.Subscriptions {
		subs = append(subs, s.Subscription())
	}
	return subs
}
