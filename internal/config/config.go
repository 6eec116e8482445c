// Package config loads relay settings from an optional YAML file and the
// environment, applying defaults for anything left unset.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/luciancaetano/roomrelay/internal/protocol"
	"github.com/luciancaetano/roomrelay/internal/ratelimit"
)

// Config is the root configuration of a relay instance.
type Config struct {
	Addr           string   `yaml:"addr"`
	AdminSecret    string   `yaml:"admin_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// TrustProxyHeaders keys admission on X-Forwarded-For. Only enable it
	// behind a proxy that overwrites the header.
	TrustProxyHeaders bool                    `yaml:"trust_proxy_headers"`
	MaxMessageSize    int64                   `yaml:"max_message_size"`
	Admission         ratelimit.Config        `yaml:"admission"`
	Messages          ratelimit.MessageConfig `yaml:"messages"`
	ShutdownTimeout   time.Duration           `yaml:"shutdown_timeout"`
	SweepInterval     time.Duration           `yaml:"sweep_interval"`
	LogLevel          string                  `yaml:"log_level"`
}

// Default returns a Config populated with default values for all settings.
func Default() Config {
	return Config{
		Addr:            ":8080",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  protocol.MaxFrameSize,
		Admission:       ratelimit.DefaultConfig(),
		Messages:        ratelimit.DefaultMessageConfig(),
		ShutdownTimeout: 10 * time.Second,
		SweepInterval:   time.Minute,
		LogLevel:        "info",
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = def.AllowedOrigins
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.Admission.Limit <= 0 {
		c.Admission.Limit = def.Admission.Limit
	}
	if c.Admission.Window <= 0 {
		c.Admission.Window = def.Admission.Window
	}
	if c.Messages.Enabled && c.Messages.MessagesPerSecond <= 0 {
		c.Messages.MessagesPerSecond = def.Messages.MessagesPerSecond
	}
	if c.Messages.Enabled && c.Messages.Burst <= 0 {
		c.Messages.Burst = def.Messages.Burst
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.MaxMessageSize <= 0 || c.MaxMessageSize > protocol.MaxFrameSize {
		return fmt.Errorf("max_message_size must be between 1 and %d, got %d", protocol.MaxFrameSize, c.MaxMessageSize)
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid allowed origin %q", origin)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
