package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// CheckOriginFn validates the Origin of a WebSocket upgrade request.
type CheckOriginFn = func(r *http.Request) bool

// AllOrigins admits every origin.
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool {
		return true
	}
}

// NewOriginChecker admits requests whose Origin matches one of origins by
// scheme and host. "*" admits everything. Requests without an Origin header
// come from non-browser clients and are admitted.
func NewOriginChecker(origins []string, log *slog.Logger) CheckOriginFn {
	if log == nil {
		log = slog.Default()
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "*" {
			return AllOrigins()
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		allowed[normalized] = struct{}{}
	}

	return func(r *http.Request) bool {
		header := r.Header.Get("Origin")
		if header == "" {
			return true
		}
		normalized, ok := normalizeOrigin(header)
		if ok {
			if _, exists := allowed[normalized]; exists {
				return true
			}
		}
		log.Warn("blocked websocket connection from disallowed origin", "origin", header)
		return false
	}
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
