package roomrelay

import (
	"context"
	"net/http"
)

// Server defines the interface for a room relay served over WebSocket.
//
// Clients connect to /ws, join exactly one room for the lifetime of the
// connection and exchange JSON frames that the relay fans out to the other
// members of that room.
//
// Example usage:
//
//	import "github.com/luciancaetano/roomrelay/ws"
//
//	server := ws.New(ws.DefaultConfig(), slog.Default())
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	if err := server.Serve(ctx); err != nil {
//	    log.Fatal(err)
//	}
type Server interface {
	// Serve listens on the configured address and blocks until the context is
	// cancelled or the listener fails.
	//
	// On cancellation every client connection is closed and the HTTP server is
	// shut down gracefully. A nil error is returned for a clean shutdown.
	Serve(ctx context.Context) error

	// Handler returns the HTTP handler exposing /ws, /health and /stats.
	//
	// This is useful to mount the relay inside another server or an
	// httptest.Server.
	Handler() http.Handler

	// Stats returns a point-in-time view of the relay's size.
	Stats() Stats
}

// Peer is the write side of one live connection.
//
// The relay only ever hands a Peer already-encoded frames. Implementations
// must not block: when the frame cannot be queued right away Send returns an
// error and the frame is dropped.
type Peer interface {
	// ID returns the connection identifier the peer was accepted with.
	ID() string

	// Send queues one encoded frame for delivery.
	Send(frame []byte) error
}

// Stats is the shape reported by the /health and /stats endpoints.
type Stats struct {
	Clients int   `json:"clients"`
	Rooms   int   `json:"rooms"`
	Uptime  int64 `json:"uptime"`
}
