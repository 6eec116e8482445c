// Package websocket accepts relay clients over WebSocket and serves the HTTP
// observability endpoints.
package websocket

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/roomrelay"
	"github.com/luciancaetano/roomrelay/internal/protocol"
	"github.com/luciancaetano/roomrelay/internal/ratelimit"
	"github.com/luciancaetano/roomrelay/internal/registry"
	"github.com/luciancaetano/roomrelay/internal/relay"
)

// ErrServerAlreadyRunning is returned by Serve when called twice.
var ErrServerAlreadyRunning = errors.New("server already running")

// ServerConfig holds everything the transport needs.
type ServerConfig struct {
	Addr        string
	AdminSecret string
	CheckOrigin CheckOriginFn
	// TrustProxyHeaders keys admission on the first X-Forwarded-For hop
	// instead of the socket's remote IP.
	TrustProxyHeaders bool
	Admission         ratelimit.Config
	Messages          ratelimit.MessageConfig
	MaxMessageSize    int64
	ShutdownTimeout   time.Duration
	SweepInterval     time.Duration
	Logger            *slog.Logger
}

// Server implements roomrelay.Server.
type Server struct {
	cfg       ServerConfig
	hub       *relay.Hub
	admission *ratelimit.FixedWindow
	upgrader  websocket.Upgrader
	clients   sync.Map // map[string]*Client
	handler   http.Handler
	log       *slog.Logger
	throttled rate.Sometimes
	running   atomic.Bool
}

// New creates a Server. Zero values in cfg are replaced with defaults.
func New(cfg *ServerConfig) *Server {
	c := *cfg
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = AllOrigins()
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = protocol.MaxFrameSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:       c,
		hub:       relay.NewHub(registry.New(), relay.WithLogger(c.Logger)),
		admission: ratelimit.NewFixedWindow(c.Admission),
		log:       c.Logger,
		throttled: rate.Sometimes{Interval: 10 * time.Second},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     c.CheckOrigin,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.admit(s.handleWebSocket))
	mux.HandleFunc("/health", s.admit(s.handleHealth))
	mux.HandleFunc("/stats", s.admit(s.handleStats))
	s.handler = mux
	return s
}

// Handler returns the HTTP handler for /ws, /health and /stats.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stats returns the current client and room counts.
func (s *Server) Stats() roomrelay.Stats {
	return s.hub.Stats()
}

// Serve listens on the configured address until ctx is cancelled, then closes
// every client and shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.admission.Run(gctx, s.cfg.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.closeClients()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) closeClients() {
	closed := 0
	s.clients.Range(func(_, value any) bool {
		if client, ok := value.(*Client); ok {
			client.CloseWithCode(websocket.CloseGoingAway, roomrelay.ErrServerClosed)
			closed++
		}
		return true
	})
	s.log.Info("closed client connections", "count", closed)
}

// admit applies the per-origin admission limit before next runs.
func (s *Server) admit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := s.clientOrigin(r)
		if !s.admission.Admit(origin) {
			s.log.Warn("admission rejected", "origin", origin, "path", r.URL.Path)
			http.Error(w, roomrelay.ErrTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// handleWebSocket admits, upgrades and opens one connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, roomrelay.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	role := registry.ParseRole(q.Get("role"))
	if role == registry.RoleAdmin && !s.checkSecret(q.Get("secret")) {
		s.log.Warn("admin admission rejected", "origin", s.clientOrigin(r))
		http.Error(w, roomrelay.ErrForbidden, http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)

	client := NewClient(conn, r.RemoteAddr, ratelimit.NewMessageLimiter(s.cfg.Messages), s.log)
	// Tracked before Open so a concurrent shutdown closes it too.
	s.clients.Store(client.ID(), client)

	session, err := s.hub.Open(registry.Connection{
		ID:     client.ID(),
		Name:   relay.SanitizeName(q.Get("name")),
		Room:   relay.SanitizeRoom(q.Get("room")),
		Role:   role,
		Origin: s.clientOrigin(r),
		Peer:   client,
	})
	if err != nil {
		s.clients.Delete(client.ID())
		client.CloseWithCode(websocket.CloseInternalServerErr, "")
		return
	}

	go s.handleClient(client, session)
}

// handleClient reads frames from one client in order until the connection
// ends, then closes its session.
func (s *Server) handleClient(client *Client, session *relay.Session) {
	defer func() {
		s.hub.Close(session)
		s.clients.Delete(client.ID())
		client.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				client.log.Warn("unexpected websocket close", "error", err)
			}
			return
		}
		client.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !client.Allow() {
			s.throttled.Do(func() {
				client.log.Warn("frame rate limit exceeded", "remoteAddr", client.RemoteAddr())
			})
			s.hub.RejectThrottled(client.ID())
			continue
		}

		s.hub.Route(client.ID(), data)
	}
}

func (s *Server) checkSecret(secret string) bool {
	if s.cfg.AdminSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.AdminSecret)) == 1
}

type healthResponse struct {
	Status string `json:"status"`
	roomrelay.Stats
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, healthResponse{Status: "ok", Stats: s.Stats()})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Stats())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// clientOrigin identifies the caller for rate limiting: the remote IP, or
// the first X-Forwarded-For hop when proxy headers are trusted.
func (s *Server) clientOrigin(r *http.Request) string {
	return clientOrigin(r, s.cfg.TrustProxyHeaders)
}

func clientOrigin(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
