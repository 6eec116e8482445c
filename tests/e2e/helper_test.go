package e2e_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/roomrelay"
	"github.com/luciancaetano/roomrelay/ws"
)

// Helper function to create a WebSocket dialer
func newDialer() *websocket.Dialer {
	return &websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startRelay(t *testing.T) (roomrelay.Server, *httptest.Server) {
	t.Helper()

	cfg := ws.DefaultConfig()
	cfg.Admission = ws.NoRateLimit()
	server := ws.New(cfg, quietLogger())

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, ts
}

type member struct {
	id   string
	conn *websocket.Conn
}

// join connects to room and waits for the welcome frame.
func join(t *testing.T, ts *httptest.Server, room, name string) member {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?room=" + room + "&name=" + name
	conn, _, err := newDialer().Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := next(t, conn, "welcome")
	return member{id: welcome["userId"].(string), conn: conn}
}

func send(t *testing.T, m member, frame string) {
	t.Helper()
	require.NoError(t, m.conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// next reads frames until one of type typ arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()

	seen := until(t, conn, typ)
	return seen[len(seen)-1]
}

// until reads frames up to and including the first one of type typ and
// returns all of them.
func until(t *testing.T, conn *websocket.Conn, typ string) []map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var seen []map[string]any
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", typ)

		var frame map[string]any
		require.NoError(t, json.Unmarshal(data, &frame))
		seen = append(seen, frame)
		if frame["type"] == typ {
			return seen
		}
	}
}

// silent asserts that no frame of type typ arrives within d.
func silent(t *testing.T, conn *websocket.Conn, typ string, d time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(d)))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame map[string]any
		require.NoError(t, json.Unmarshal(data, &frame))
		require.NotEqual(t, typ, frame["type"], "unexpected %s frame: %s", typ, data)
	}
}
