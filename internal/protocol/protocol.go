// Package protocol defines the JSON frames exchanged with relay clients.
//
// Every frame is a JSON object with a mandatory "type" field. Inbound frames
// are decoded into a closed set of Event variants and validated at the
// boundary so the router never touches untyped fields. Outbound frames are
// plain structs encoded with Encode.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxFrameSize is the largest frame Decode accepts.
const MaxFrameSize = 64 * 1024

// Frame types understood on the wire.
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeNumber       = "bingo-number"
	TypeWinner       = "winner"
	TypeChat         = "chat"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypeGetUsers     = "get-users"
	TypeUsersList    = "users-list"
	TypeWelcome      = "welcome"
	TypeUserJoined   = "user-joined"
	TypeUserLeft     = "user-left"
	TypeError        = "error"
)

// Encode marshals an outbound frame.
func Encode(frame any) ([]byte, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if len(data) > MaxFrameSize {
		return nil, fmt.Errorf("frame size %d exceeds maximum %d bytes", len(data), MaxFrameSize)
	}
	return data, nil
}

// Timestamp converts t to the Unix millisecond form used on the wire.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}
