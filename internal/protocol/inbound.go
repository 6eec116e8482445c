package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/luciancaetano/roomrelay"
)

// ErrMalformedFrame is returned for frames that are not a JSON object with a
// string "type", or whose required fields have the wrong JSON type.
var ErrMalformedFrame = errors.New(roomrelay.ErrInvalidMessageFormat)

// ValidationError reports a well-formed frame whose content is out of range.
// Message is safe to send back to the client.
type ValidationError struct {
	Type    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s frame: %s", e.Type, e.Message)
}

// Event is one decoded inbound frame.
type Event interface {
	Type() string
}

// Ping asks for a pong.
type Ping struct{}

// NumberCall announces a called bingo number in [1,90].
type NumberCall struct {
	Number int
}

// WinAnnouncement announces that the sender won.
type WinAnnouncement struct {
	WinAmount float64
}

// Chat carries the raw, unescaped chat text.
type Chat struct {
	Message string
}

// RosterQuery asks for the current member list of the sender's room.
type RosterQuery struct{}

// Signal is a WebRTC signaling frame (offer, answer or ice-candidate). Its
// body is opaque to the relay and passed through with a "from" field added.
type Signal struct {
	Kind   string
	Target string
	fields map[string]json.RawMessage
}

// Unknown is any frame whose type the relay does not route.
type Unknown struct {
	Name string
}

func (Ping) Type() string            { return TypePing }
func (NumberCall) Type() string      { return TypeNumber }
func (WinAnnouncement) Type() string { return TypeWinner }
func (Chat) Type() string            { return TypeChat }
func (RosterQuery) Type() string     { return TypeGetUsers }
func (s Signal) Type() string        { return s.Kind }
func (u Unknown) Type() string       { return u.Name }

// IsBroadcast reports whether the signal targets every other room member.
func (s Signal) IsBroadcast() bool {
	return s.Target == roomrelay.BroadcastTarget
}

// WithFrom re-encodes the signal with "from" set to the sender's id.
func (s Signal) WithFrom(senderID string) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.fields)+1)
	for k, v := range s.fields {
		out[k] = v
	}
	from, err := json.Marshal(senderID)
	if err != nil {
		return nil, err
	}
	out["from"] = from
	return Encode(out)
}

// Decode parses and validates one inbound frame.
func Decode(data []byte) (Event, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrMalformedFrame
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrMalformedFrame
	}

	var kind string
	if err := json.Unmarshal(fields["type"], &kind); err != nil || kind == "" {
		return nil, ErrMalformedFrame
	}

	switch kind {
	case TypePing:
		return Ping{}, nil
	case TypeGetUsers:
		return RosterQuery{}, nil
	case TypeNumber:
		return decodeNumberCall(fields)
	case TypeWinner:
		return decodeWin(fields)
	case TypeChat:
		return decodeChat(fields)
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return decodeSignal(kind, fields)
	default:
		return Unknown{Name: kind}, nil
	}
}

func decodeNumberCall(fields map[string]json.RawMessage) (Event, error) {
	invalid := &ValidationError{Type: TypeNumber, Message: roomrelay.ErrInvalidNumber}

	raw, ok := fields["number"]
	if !ok {
		return nil, invalid
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, invalid
	}
	if math.Trunc(n) != n || n < roomrelay.MinNumber || n > roomrelay.MaxNumber {
		return nil, invalid
	}
	return NumberCall{Number: int(n)}, nil
}

func decodeWin(fields map[string]json.RawMessage) (Event, error) {
	raw, ok := fields["winAmount"]
	if !ok || string(raw) == "null" {
		return WinAnnouncement{}, nil
	}
	var amount float64
	if err := json.Unmarshal(raw, &amount); err != nil {
		return nil, &ValidationError{Type: TypeWinner, Message: roomrelay.ErrInvalidWinAmount}
	}
	return WinAnnouncement{WinAmount: amount}, nil
}

func decodeChat(fields map[string]json.RawMessage) (Event, error) {
	var msg string
	if err := json.Unmarshal(fields["message"], &msg); err != nil {
		return nil, ErrMalformedFrame
	}
	if strings.TrimSpace(msg) == "" {
		return nil, &ValidationError{Type: TypeChat, Message: roomrelay.ErrEmptyMessage}
	}
	if utf8.RuneCountInString(msg) > roomrelay.MaxChatLength {
		return nil, &ValidationError{Type: TypeChat, Message: roomrelay.ErrMessageTooLong}
	}
	return Chat{Message: msg}, nil
}

func decodeSignal(kind string, fields map[string]json.RawMessage) (Event, error) {
	var target string
	if err := json.Unmarshal(fields["target"], &target); err != nil || target == "" {
		return nil, &ValidationError{Type: kind, Message: roomrelay.ErrMissingTarget}
	}
	delete(fields, "from")
	return Signal{Kind: kind, Target: target, fields: fields}, nil
}
