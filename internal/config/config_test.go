package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/roomrelay/internal/protocol"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 100, cfg.Admission.Limit)
	assert.Equal(t, time.Minute, cfg.Admission.Window)
	assert.True(t, cfg.Admission.Enabled)
	assert.Equal(t, int64(protocol.MaxFrameSize), cfg.MaxMessageSize)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.NoError(t, cfg.Validate())
}

func TestParseYAML(t *testing.T) {
	t.Setenv("RELAY_TEST_SECRET", "s3cret")

	cfg := Default()
	err := parse([]byte(`
addr: ":9000"
admin_secret: ${RELAY_TEST_SECRET}
allowed_origins:
  - https://bingo.example.com
max_message_size: 2048
trust_proxy_headers: true
admission:
  limit: 10
  window: 30s
  enabled: true
messages:
  messages_per_second: 5
  burst: 8
  enabled: true
log_level: debug
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "s3cret", cfg.AdminSecret)
	assert.Equal(t, []string{"https://bingo.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.MaxMessageSize)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, 10, cfg.Admission.Limit)
	assert.Equal(t, 30*time.Second, cfg.Admission.Window)
	assert.Equal(t, rate.Limit(5), cfg.Messages.MessagesPerSecond)
	assert.Equal(t, 8, cfg.Messages.Burst)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestParseYAMLInvalid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Error(t, parse([]byte("addr: [unterminated"), &cfg))
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"PORT":              "3000",
		"ADMIN_SECRET":      "letmein",
		"ALLOWED_ORIGINS":   "http://a.test, http://b.test ,",
		"MAX_MESSAGE_SIZE":  "1024",
		"RATE_LIMIT_MAX":    "7",
		"RATE_LIMIT_WINDOW": "15",
		"MESSAGE_RATE":      "2.5",
		"MESSAGE_BURST":     "not-a-number",
		"LOG_LEVEL":         "warn",
		"TRUST_PROXY":       "true",
	}
	cfg := Default()
	applyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "letmein", cfg.AdminSecret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 7, cfg.Admission.Limit)
	assert.Equal(t, 15*time.Second, cfg.Admission.Window)
	assert.Equal(t, rate.Limit(2.5), cfg.Messages.MessagesPerSecond)
	assert.Equal(t, Default().Messages.Burst, cfg.Messages.Burst)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.applyDefaults()

	def := Default()
	assert.Equal(t, def.Addr, cfg.Addr)
	assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
	assert.Equal(t, def.Admission.Limit, cfg.Admission.Limit)
	assert.Equal(t, def.Admission.Window, cfg.Admission.Window)
	assert.False(t, cfg.Admission.Enabled, "explicitly disabled limits stay disabled")
	assert.Equal(t, def.ShutdownTimeout, cfg.ShutdownTimeout)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty addr", mutate: func(c *Config) { c.Addr = "" }},
		{name: "zero message size", mutate: func(c *Config) { c.MaxMessageSize = 0 }},
		{name: "message size above frame size", mutate: func(c *Config) { c.MaxMessageSize = protocol.MaxFrameSize + 1 }},
		{name: "bad origin", mutate: func(c *Config) { c.AllowedOrigins = []string{"not a url"} }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7000\"\nlog_level: error\n"), 0o600))

	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "error", cfg.LogLevel)

	cfg, err = Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)

	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
