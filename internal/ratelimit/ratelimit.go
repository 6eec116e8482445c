// Package ratelimit gates admission per origin with a fixed window counter
// and throttles inbound frames per connection with a token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config defines the fixed window admission policy.
type Config struct {
	// Limit is the number of admissions allowed per window
	Limit int `yaml:"limit"`
	// Window is the length of one counting window
	Window time.Duration `yaml:"window"`
	// Enabled determines if admission limiting is active
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the default admission policy: 100 per minute.
func DefaultConfig() Config {
	return Config{
		Limit:   100,
		Window:  time.Minute,
		Enabled: true,
	}
}

// Disabled returns a configuration that admits everything.
func Disabled() Config {
	return Config{Enabled: false}
}

type bucket struct {
	count         int
	windowResetAt time.Time
}

// FixedWindow counts admissions per origin. A burst straddling a window
// boundary can exceed the nominal rate.
type FixedWindow struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     Config
	now     func() time.Time
}

// NewFixedWindow returns a limiter for cfg. Non-positive limits or windows
// fall back to the defaults.
func NewFixedWindow(cfg Config) *FixedWindow {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &FixedWindow{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Admit records one request from origin and reports whether it is allowed.
func (l *FixedWindow) Admit(origin string) bool {
	if !l.cfg.Enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[origin]
	if !ok || !now.Before(b.windowResetAt) {
		l.buckets[origin] = &bucket{count: 1, windowResetAt: now.Add(l.cfg.Window)}
		return true
	}
	if b.count > l.cfg.Limit {
		return false
	}
	b.count++
	return b.count <= l.cfg.Limit
}

// Count returns the current count for origin, zero if its window expired.
func (l *FixedWindow) Count(origin string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[origin]
	if !ok || !l.now().Before(b.windowResetAt) {
		return 0
	}
	return b.count
}

// Sweep drops expired buckets and returns how many were removed.
func (l *FixedWindow) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for origin, b := range l.buckets {
		if !now.Before(b.windowResetAt) {
			delete(l.buckets, origin)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked origins.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run sweeps every interval until ctx is done.
func (l *FixedWindow) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = l.cfg.Window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Sweep()
		}
	}
}
