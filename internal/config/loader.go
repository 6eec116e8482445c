package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Load builds a Config from the YAML file at path (skipped when path is
// empty), then environment overrides, then defaults, and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := parse(data, &cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(&cfg, os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// parse expands ${VAR} references and decodes YAML on top of cfg.
func parse(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		cfg.Addr = port
	}
	if secret := getenv("ADMIN_SECRET"); secret != "" {
		cfg.AdminSecret = secret
	}
	if origins := getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}
	if size := getenv("MAX_MESSAGE_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil && n > 0 {
			cfg.MaxMessageSize = n
		}
	}
	if limit := getenv("RATE_LIMIT_MAX"); limit != "" {
		cfg.Admission.Limit = parseIntValue(limit, cfg.Admission.Limit)
	}
	if window := getenv("RATE_LIMIT_WINDOW"); window != "" {
		cfg.Admission.Window = parseDuration(window, cfg.Admission.Window)
	}
	if mps := getenv("MESSAGE_RATE"); mps != "" {
		if f, err := strconv.ParseFloat(mps, 64); err == nil && f > 0 {
			cfg.Messages.MessagesPerSecond = rate.Limit(f)
		}
	}
	if burst := getenv("MESSAGE_BURST"); burst != "" {
		cfg.Messages.Burst = parseIntValue(burst, cfg.Messages.Burst)
	}
	if trust := getenv("TRUST_PROXY"); trust != "" {
		if b, err := strconv.ParseBool(trust); err == nil {
			cfg.TrustProxyHeaders = b
		}
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

// parseDuration accepts Go durations ("90s") or a bare number of seconds.
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
