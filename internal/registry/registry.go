// Package registry tracks live connections and the rooms they belong to.
//
// The connection map and the room directory are guarded by a single mutex, so
// registering a connection and joining its room (or leaving and removing) is
// one atomic step for every observer.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/luciancaetano/roomrelay"
)

var (
	// ErrDuplicateID is returned by Register when the id is already live.
	ErrDuplicateID = errors.New("duplicate connection id")
	// ErrInvalidConnection is returned by Register for a connection without
	// an id or a room.
	ErrInvalidConnection = errors.New("connection requires an id and a room")
)

// Role describes why a client connected. It is informational only.
type Role string

const (
	RolePlayer    Role = "player"
	RoleAdmin     Role = "admin"
	RoleSpectator Role = "spectator"
)

// ParseRole maps a wire value to a Role, defaulting to RolePlayer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleSpectator:
		return Role(s)
	default:
		return RolePlayer
	}
}

// Connection is the registry's record of one client session.
type Connection struct {
	ID       string
	Name     string
	Room     string
	Role     Role
	JoinedAt time.Time
	Origin   string
	Peer     roomrelay.Peer
}

// Stats is a size snapshot of the registry.
type Stats struct {
	Clients int
	Rooms   int
}

// Registry owns every live Connection and the Directory derived from them.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	rooms *Directory
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		rooms: NewDirectory(),
	}
}

// Register inserts conn and joins it to conn.Room.
func (r *Registry) Register(conn Connection) error {
	if conn.ID == "" || conn.Room == "" {
		return ErrInvalidConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, conn.ID)
	}
	c := conn
	r.conns[conn.ID] = &c
	r.rooms.Join(conn.Room, conn.ID)
	return nil
}

// Lookup returns a copy of the connection with the given id.
func (r *Registry) Lookup(id string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Remove takes id out of its room and deletes it. It returns the removed
// connection and whether it existed.
func (r *Registry) Remove(id string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	r.rooms.Leave(c.Room, id)
	delete(r.conns, id)
	return *c, true
}

// Members returns a snapshot of the connections in room ordered by join time.
func (r *Registry) Members(room string) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.rooms.Members(room)
	out := make([]Connection, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.conns[id]; ok {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// MemberIDs returns a sorted snapshot of the ids in room.
func (r *Registry) MemberIDs(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms.Members(room)
}

// RoomSize returns the member count of room.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms.Size(room)
}

// HasRoom reports whether room currently exists.
func (r *Registry) HasRoom(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms.Has(room)
}

// Stats returns the number of live connections and rooms.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Clients: len(r.conns), Rooms: r.rooms.Len()}
}

// Verify checks that every connection is a member of the room it names and
// that every room member is a live connection naming that room.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, c := range r.conns {
		if !r.rooms.Contains(c.Room, id) {
			return fmt.Errorf("connection %s missing from room %q", id, c.Room)
		}
	}
	for name, room := range r.rooms.rooms {
		if len(room.members) == 0 {
			return fmt.Errorf("room %q is empty", name)
		}
		for id := range room.members {
			c, ok := r.conns[id]
			if !ok {
				return fmt.Errorf("room %q lists unknown connection %s", name, id)
			}
			if c.Room != name {
				return fmt.Errorf("room %q lists connection %s registered in %q", name, id, c.Room)
			}
		}
	}
	return nil
}
