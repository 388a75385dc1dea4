package connection

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.HeartbeatInterval != 5*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 5s", cfg.HeartbeatInterval)
	}
	if cfg.HeartbeatTimeout != 10*time.Second {
		t.Errorf("HeartbeatTimeout = %v, want 10s", cfg.HeartbeatTimeout)
	}
	if cfg.Reconnect.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d, want 0 (unbounded)", cfg.Reconnect.MaxAttempts)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero interval", func(c *Config) { c.HeartbeatInterval = 0 }, true},
		{"negative timeout", func(c *Config) { c.HeartbeatTimeout = -time.Second }, true},
		{"zero initial delay", func(c *Config) { c.Reconnect.InitialDelay = 0 }, true},
		{"max below initial", func(c *Config) { c.Reconnect.MaxDelay = time.Millisecond }, true},
		{"multiplier below one", func(c *Config) { c.Reconnect.Multiplier = 0.5 }, true},
		{"jitter above one", func(c *Config) { c.Reconnect.Jitter = 1.5 }, true},
		{"negative jitter", func(c *Config) { c.Reconnect.Jitter = -0.1 }, true},
		{"bounded attempts", func(c *Config) { c.Reconnect.MaxAttempts = 5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
