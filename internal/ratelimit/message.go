package ratelimit

import "golang.org/x/time/rate"

// MessageConfig defines per-connection inbound frame throttling.
type MessageConfig struct {
	// MessagesPerSecond defines how many frames a connection can send per second
	MessagesPerSecond rate.Limit `yaml:"messages_per_second"`
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int `yaml:"burst"`
	// Enabled determines if frame throttling is active
	Enabled bool `yaml:"enabled"`
}

// DefaultMessageConfig allows 20 frames per second with a burst of 40.
func DefaultMessageConfig() MessageConfig {
	return MessageConfig{
		MessagesPerSecond: 20,
		Burst:             40,
		Enabled:           true,
	}
}

// NoMessageLimit returns a configuration with frame throttling disabled.
func NoMessageLimit() MessageConfig {
	return MessageConfig{Enabled: false}
}

// NewMessageLimiter returns a token bucket for one connection, or nil when
// throttling is disabled.
func NewMessageLimiter(cfg MessageConfig) *rate.Limiter {
	if !cfg.Enabled {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(cfg.MessagesPerSecond, burst)
}
