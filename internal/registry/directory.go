package registry

import (
	"sort"
	"time"
)

// Room is a named group of connection ids.
type Room struct {
	Name      string
	CreatedAt time.Time
	members   map[string]struct{}
}

// Directory maps room names to member ids. Rooms are created on first join
// and deleted as soon as their last member leaves, so a room exists if and
// only if it has members.
//
// Directory is not safe for concurrent use; Registry serialises access.
type Directory struct {
	rooms map[string]*Room
	now   func() time.Time
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*Room),
		now:   time.Now,
	}
}

// Join adds id to room, creating the room if needed. Joining twice is a no-op
// and reports false.
func (d *Directory) Join(room, id string) bool {
	r, ok := d.rooms[room]
	if !ok {
		r = &Room{Name: room, CreatedAt: d.now(), members: make(map[string]struct{})}
		d.rooms[room] = r
	}
	if _, member := r.members[id]; member {
		return false
	}
	r.members[id] = struct{}{}
	return true
}

// Leave removes id from room and deletes the room once it is empty. It reports
// whether id was a member.
func (d *Directory) Leave(room, id string) bool {
	r, ok := d.rooms[room]
	if !ok {
		return false
	}
	if _, member := r.members[id]; !member {
		return false
	}
	delete(r.members, id)
	if len(r.members) == 0 {
		delete(d.rooms, room)
	}
	return true
}

// Members returns a sorted copy of the ids in room. Unknown rooms yield an
// empty slice.
func (d *Directory) Members(room string) []string {
	r, ok := d.rooms[room]
	if !ok {
		return []string{}
	}
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Contains reports whether id is a member of room.
func (d *Directory) Contains(room, id string) bool {
	r, ok := d.rooms[room]
	if !ok {
		return false
	}
	_, member := r.members[id]
	return member
}

// Room returns the named room.
func (d *Directory) Room(name string) (Room, bool) {
	r, ok := d.rooms[name]
	if !ok {
		return Room{}, false
	}
	return Room{Name: r.Name, CreatedAt: r.CreatedAt}, true
}

// Has reports whether room exists.
func (d *Directory) Has(room string) bool {
	_, ok := d.rooms[room]
	return ok
}

// Size returns the member count of room, zero when absent.
func (d *Directory) Size(room string) int {
	if r, ok := d.rooms[room]; ok {
		return len(r.members)
	}
	return 0
}

// Len returns the number of rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
