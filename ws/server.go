package ws

import (
	"log/slog"

	"github.com/luciancaetano/roomrelay"
	"github.com/luciancaetano/roomrelay/internal/config"
	"github.com/luciancaetano/roomrelay/internal/ratelimit"
	"github.com/luciancaetano/roomrelay/internal/websocket"
)

type Config = config.Config
type RateLimitConfig = ratelimit.Config
type MessageLimitConfig = ratelimit.MessageConfig

// New creates a relay server from cfg. A nil logger uses slog.Default().
//
// Example:
//
//	cfg := ws.DefaultConfig()
//	cfg.AdminSecret = "s3cret"
//	server := ws.New(cfg, slog.Default())
//	server.Serve(ctx)
func New(cfg Config, logger *slog.Logger) roomrelay.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return websocket.New(&websocket.ServerConfig{
		Addr:              cfg.Addr,
		AdminSecret:       cfg.AdminSecret,
		CheckOrigin:       websocket.NewOriginChecker(cfg.AllowedOrigins, logger),
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Admission:         cfg.Admission,
		Messages:          cfg.Messages,
		MaxMessageSize:    cfg.MaxMessageSize,
		ShutdownTimeout:   cfg.ShutdownTimeout,
		SweepInterval:     cfg.SweepInterval,
		Logger:            logger,
	})
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads an optional YAML file and environment overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultRateLimitConfig returns the default admission policy (100 per minute)
func DefaultRateLimitConfig() RateLimitConfig {
	return ratelimit.DefaultConfig()
}

// NoRateLimit returns an admission policy that admits everything
func NoRateLimit() RateLimitConfig {
	return ratelimit.Disabled()
}
