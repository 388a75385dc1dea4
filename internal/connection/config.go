package connection

import (
	"errors"
	"time"
)

// Config configures a Manager.
type Config struct {
	HeartbeatInterval time.Duration // Time between PING frames
	HeartbeatTimeout  time.Duration // Max wait for the PONG answering a PING
	Reconnect         ReconnectConfig
}

// ReconnectConfig configures the reconnect backoff.
type ReconnectConfig struct {
	InitialDelay time.Duration // Delay after the first failure
	MaxDelay     time.Duration // Upper bound for any delay
	Multiplier   float64       // Growth factor per consecutive failure
	Jitter       float64       // Randomization factor in [0, 1]
	MaxAttempts  uint32        // Consecutive failures before giving up (0 = never)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		HeartbeatTimeout:  10 * time.Second,
		Reconnect:         DefaultReconnectConfig(),
	}
}

// DefaultReconnectConfig returns sensible defaults.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	if c.HeartbeatTimeout <= 0 {
		return errors.New("heartbeat timeout must be positive")
	}
	return c.Reconnect.Validate()
}

// Validate checks the reconnect configuration for invalid values.
func (c ReconnectConfig) Validate() error {
	if c.InitialDelay <= 0 {
		return errors.New("reconnect initial delay must be positive")
	}
	if c.MaxDelay < c.InitialDelay {
		return errors.New("reconnect max delay must be >= initial delay")
	}
	if c.Multiplier < 1 {
		return errors.New("reconnect multiplier must be >= 1")
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return errors.New("reconnect jitter must be between 0 and 1")
	}
	return nil
}
