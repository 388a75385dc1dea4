package config

import (
	"time"

	"github.com/rickgao/rtds-recorder/internal/bridge"
	"github.com/rickgao/rtds-recorder/internal/rtds"
)

// Default values for optional configuration fields.
const (
	DefaultStreamURL             = rtds.DefaultEndpoint
	DefaultHeartbeatInterval     = 5 * time.Second
	DefaultHeartbeatTimeout      = 10 * time.Second
	DefaultReconnectInitialDelay = 1 * time.Second
	DefaultReconnectMaxDelay     = 60 * time.Second
	DefaultReconnectMultiplier   = 2.0
	DefaultReconnectJitter       = 0.2
	DefaultBroadcastCapacity     = 1024
	DefaultOutboundBuffer        = 64
	DefaultWriteTimeout          = 5 * time.Second
	DefaultHandshakeTimeout      = 10 * time.Second
	DefaultBridgeURL             = bridge.DefaultBaseURL
	DefaultBridgeTimeout         = 30 * time.Second
	DefaultBridgeMaxRetries      = 3
	DefaultDBPort                = 5432
	DefaultDBSSLMode             = "prefer"
	DefaultMaxConns              = 10
	DefaultMinConns              = 2
	DefaultBatchSize             = 1000
	DefaultFlushInterval         = 1 * time.Second
	DefaultMetricsPort           = 9090
	DefaultMetricsPath           = "/metrics"
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "json"
)

func (c *Config) applyDefaults() {
	// Stream defaults
	s := &c.Stream
	if s.URL == "" {
		s.URL = DefaultStreamURL
	}
	if s.HeartbeatInterval == 0 {
		s.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if s.HeartbeatTimeout == 0 {
		s.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if s.ReconnectInitialDelay == 0 {
		s.ReconnectInitialDelay = DefaultReconnectInitialDelay
	}
	if s.ReconnectMaxDelay == 0 {
		s.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if s.ReconnectMultiplier == 0 {
		s.ReconnectMultiplier = DefaultReconnectMultiplier
	}
	if s.BroadcastCapacity == 0 {
		s.BroadcastCapacity = DefaultBroadcastCapacity
	}
	if s.OutboundBuffer == 0 {
		s.OutboundBuffer = DefaultOutboundBuffer
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.HandshakeTimeout == 0 {
		s.HandshakeTimeout = DefaultHandshakeTimeout
	}

	// Bridge defaults
	if c.Bridge.BaseURL == "" {
		c.Bridge.BaseURL = DefaultBridgeURL
	}
	if c.Bridge.Timeout == 0 {
		c.Bridge.Timeout = DefaultBridgeTimeout
	}
	if c.Bridge.MaxRetries == 0 {
		c.Bridge.MaxRetries = DefaultBridgeMaxRetries
	}
	if c.Bridge.RateLimit > 0 && c.Bridge.RateBurst == 0 {
		c.Bridge.RateBurst = 1
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	// Subscription defaults: price topics publish "update", others use the wildcard.
	for i := range c.Subscriptions {
		sub := &c.Subscriptions[i]
		if sub.Type != "" {
			continue
		}
		if sub.Topic == rtds.TopicCryptoPrices {
			sub.Type = rtds.TypeUpdate
		} else {
			sub.Type = rtds.TypeAll
		}
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
