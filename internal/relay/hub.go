// Package relay implements the connection lifecycle and the message routing
// policy on top of the registry.
package relay

import (
	"errors"
	"html"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/luciancaetano/roomrelay"
	"github.com/luciancaetano/roomrelay/internal/protocol"
	"github.com/luciancaetano/roomrelay/internal/registry"
)

// State is the lifecycle position of one connection.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session tracks one connection through Connecting, Active and Closed.
type Session struct {
	id    string
	room  string
	state atomic.Int32
}

// ID returns the connection id.
func (s *Session) ID() string { return s.id }

// Room returns the room the connection joined.
func (s *Session) Room() string { return s.room }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used by the hub.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// Hub drives connection lifecycles and routes frames between room members.
type Hub struct {
	reg     *registry.Registry
	log     *slog.Logger
	now     func() time.Time
	started time.Time
}

// NewHub returns a Hub operating on reg.
func NewHub(reg *registry.Registry, opts ...Option) *Hub {
	h := &Hub{
		reg: reg,
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.started = h.now()
	return h
}

// Open admits conn: it registers the connection and joins its room, sends it
// a welcome frame and tells the other members who joined.
func (h *Hub) Open(conn registry.Connection) (*Session, error) {
	s := &Session{id: conn.ID, room: conn.Room}
	s.state.Store(int32(StateConnecting))

	if conn.JoinedAt.IsZero() {
		conn.JoinedAt = h.now()
	}
	if err := h.reg.Register(conn); err != nil {
		s.state.Store(int32(StateClosed))
		if errors.Is(err, registry.ErrDuplicateID) {
			h.log.Error("registry invariant violated on open", "clientId", conn.ID, "room", conn.Room, "error", err)
		}
		return nil, err
	}
	s.state.Store(int32(StateActive))

	h.log.Info("client joined", "clientId", conn.ID, "room", conn.Room, "name", conn.Name, "role", conn.Role, "origin", conn.Origin)

	now := protocol.Timestamp(h.now())
	h.sendTo(conn, protocol.Welcome{
		Type:      protocol.TypeWelcome,
		Message:   "Connected to room " + html.EscapeString(conn.Room),
		UserID:    conn.ID,
		Timestamp: now,
	})

	members := h.reg.Members(conn.Room)
	h.broadcast(members, conn.ID, protocol.Presence{
		Type:      protocol.TypeUserJoined,
		UserID:    conn.ID,
		Name:      conn.Name,
		Timestamp: now,
		Users:     roster(members),
	})
	return s, nil
}

// Close moves s to Closed exactly once: the connection leaves its room, is
// removed from the registry and the remaining members are told. Closing an
// already closed session does nothing and reports false.
func (h *Hub) Close(s *Session) bool {
	if s == nil || !s.state.CompareAndSwap(int32(StateActive), int32(StateClosed)) {
		return false
	}

	conn, ok := h.reg.Remove(s.id)
	if !ok {
		h.log.Error("registry invariant violated on close: active session not registered", "clientId", s.id, "room", s.room)
		return true
	}

	members := h.reg.Members(conn.Room)
	h.log.Info("client left", "clientId", conn.ID, "room", conn.Room, "remaining", len(members))
	if len(members) == 0 {
		return true
	}

	h.broadcast(members, "", protocol.Presence{
		Type:      protocol.TypeUserLeft,
		UserID:    conn.ID,
		Name:      conn.Name,
		Timestamp: protocol.Timestamp(h.now()),
		Users:     roster(members),
	})
	return true
}

// Stats reports the registry size and hub uptime.
func (h *Hub) Stats() roomrelay.Stats {
	st := h.reg.Stats()
	return roomrelay.Stats{
		Clients: st.Clients,
		Rooms:   st.Rooms,
		Uptime:  int64(h.now().Sub(h.started) / time.Second),
	}
}

// SanitizeName escapes a display name and applies the default and length cap.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return roomrelay.DefaultName
	}
	if utf8.RuneCountInString(name) > roomrelay.MaxNameLength {
		name = string([]rune(name)[:roomrelay.MaxNameLength])
	}
	return html.EscapeString(name)
}

// SanitizeRoom trims a room name, applies the default room and caps its length.
func SanitizeRoom(room string) string {
	room = strings.TrimSpace(room)
	if room == "" {
		return roomrelay.DefaultRoom
	}
	if utf8.RuneCountInString(room) > roomrelay.MaxRoomLength {
		room = string([]rune(room)[:roomrelay.MaxRoomLength])
	}
	return room
}

func roster(members []registry.Connection) []protocol.User {
	users := make([]protocol.User, 0, len(members))
	for _, m := range members {
		users = append(users, protocol.User{
			UserID:   m.ID,
			Name:     m.Name,
			Role:     string(m.Role),
			JoinedAt: protocol.Timestamp(m.JoinedAt),
		})
	}
	return users
}
