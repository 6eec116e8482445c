package relay

import (
	"github.com/luciancaetano/roomrelay/internal/protocol"
	"github.com/luciancaetano/roomrelay/internal/registry"
)

// sendTo encodes frame and queues it for a single connection.
func (h *Hub) sendTo(conn registry.Connection, frame any) {
	data, err := protocol.Encode(frame)
	if err != nil {
		h.log.Error("failed to encode frame", "clientId", conn.ID, "error", err)
		return
	}
	h.deliver([]registry.Connection{conn}, "", data)
}

// broadcastRoom sends frame to every member of room except exclude.
func (h *Hub) broadcastRoom(room, exclude string, frame any) {
	h.broadcast(h.reg.Members(room), exclude, frame)
}

func (h *Hub) broadcast(members []registry.Connection, exclude string, frame any) {
	data, err := protocol.Encode(frame)
	if err != nil {
		h.log.Error("failed to encode broadcast frame", "error", err)
		return
	}
	h.deliver(members, exclude, data)
}

// deliver attempts one send per member. A failed send is a dropped frame for
// that member only.
func (h *Hub) deliver(members []registry.Connection, exclude string, data []byte) (sent, failed int) {
	for _, m := range members {
		if m.ID == exclude || m.Peer == nil {
			continue
		}
		if err := m.Peer.Send(data); err != nil {
			failed++
			h.log.Debug("dropped frame", "clientId", m.ID, "room", m.Room, "error", err)
			continue
		}
		sent++
	}
	return sent, failed
}
