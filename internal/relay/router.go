package relay

import (
	"errors"
	"html"

	"github.com/luciancaetano/roomrelay"
	"github.com/luciancaetano/roomrelay/internal/protocol"
	"github.com/luciancaetano/roomrelay/internal/registry"
)

// Route decodes one inbound frame from senderID and applies the relay policy
// for its type. Frames from connections that are no longer registered are
// dropped.
func (h *Hub) Route(senderID string, frame []byte) {
	sender, ok := h.reg.Lookup(senderID)
	if !ok {
		h.log.Debug("dropping frame from unknown sender", "clientId", senderID)
		return
	}

	ev, err := protocol.Decode(frame)
	if err != nil {
		h.rejectFrame(sender, err)
		return
	}

	now := protocol.Timestamp(h.now())

	switch ev := ev.(type) {
	case protocol.Ping:
		h.sendTo(sender, protocol.Pong{Type: protocol.TypePong, Timestamp: now})

	case protocol.NumberCall:
		h.broadcastRoom(sender.Room, sender.ID, protocol.NumberCalled{
			Type:      protocol.TypeNumber,
			Number:    ev.Number,
			CalledBy:  sender.Name,
			Timestamp: now,
		})

	case protocol.WinAnnouncement:
		h.broadcastRoom(sender.Room, "", protocol.Winner{
			Type:      protocol.TypeWinner,
			UserID:    sender.ID,
			UserName:  sender.Name,
			Timestamp: now,
			WinAmount: ev.WinAmount,
		})

	case protocol.Chat:
		h.broadcastRoom(sender.Room, "", protocol.ChatMessage{
			Type:      protocol.TypeChat,
			UserID:    sender.ID,
			UserName:  sender.Name,
			Message:   html.EscapeString(ev.Message),
			Timestamp: now,
		})

	case protocol.Signal:
		h.relaySignal(sender, ev)

	case protocol.RosterQuery:
		h.sendTo(sender, protocol.UsersList{
			Type:  protocol.TypeUsersList,
			Users: roster(h.reg.Members(sender.Room)),
		})

	default:
		h.log.Debug("ignoring unknown frame type", "clientId", sender.ID, "type", ev.Type())
	}
}

func (h *Hub) rejectFrame(sender registry.Connection, err error) {
	msg := roomrelay.ErrInvalidMessageFormat
	var verr *protocol.ValidationError
	if errors.As(err, &verr) {
		msg = verr.Message
	}
	h.log.Debug("rejected frame", "clientId", sender.ID, "room", sender.Room, "error", err)
	h.sendTo(sender, protocol.NewError(msg))
}

// RejectThrottled tells the sender its frame was dropped by the per-connection
// limiter.
func (h *Hub) RejectThrottled(senderID string) {
	if sender, ok := h.reg.Lookup(senderID); ok {
		h.sendTo(sender, protocol.NewError(roomrelay.ErrRateLimited))
	}
}

func (h *Hub) relaySignal(sender registry.Connection, sig protocol.Signal) {
	data, err := sig.WithFrom(sender.ID)
	if err != nil {
		h.log.Error("failed to encode signaling frame", "clientId", sender.ID, "error", err)
		return
	}

	if sig.IsBroadcast() {
		h.deliver(h.reg.Members(sender.Room), sender.ID, data)
		return
	}

	target, ok := h.reg.Lookup(sig.Target)
	if !ok || target.Room != sender.Room || target.ID == sender.ID {
		h.log.Debug("signaling target not reachable", "clientId", sender.ID, "target", sig.Target, "type", sig.Kind)
		return
	}
	h.deliver([]registry.Connection{target}, "", data)
}
