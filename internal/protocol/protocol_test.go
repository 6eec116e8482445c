package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode tests decoding of every routed frame type
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
		want  Event
	}{
		{name: "ping", frame: `{"type":"ping"}`, want: Ping{}},
		{name: "roster query", frame: `{"type":"get-users"}`, want: RosterQuery{}},
		{name: "lowest number", frame: `{"type":"bingo-number","number":1}`, want: NumberCall{Number: 1}},
		{name: "highest number", frame: `{"type":"bingo-number","number":90}`, want: NumberCall{Number: 90}},
		{name: "integral float number", frame: `{"type":"bingo-number","number":42.0}`, want: NumberCall{Number: 42}},
		{name: "winner without amount", frame: `{"type":"winner"}`, want: WinAnnouncement{}},
		{name: "winner with amount", frame: `{"type":"winner","winAmount":12.5}`, want: WinAnnouncement{WinAmount: 12.5}},
		{name: "chat", frame: `{"type":"chat","message":"hi"}`, want: Chat{Message: "hi"}},
		{name: "unknown type", frame: `{"type":"dance","moves":3}`, want: Unknown{Name: "dance"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDecodeMalformed tests that structurally broken frames are rejected
func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	frames := []string{
		``,
		`not json`,
		`null`,
		`[1,2,3]`,
		`{}`,
		`{"type":""}`,
		`{"type":7}`,
		`{"type":"chat"}`,
		`{"type":"chat","message":42}`,
	}

	for _, frame := range frames {
		frame := frame
		t.Run(frame, func(t *testing.T) {
			t.Parallel()

			_, err := Decode([]byte(frame))
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

// TestDecodeOversizedFrame tests the frame size ceiling
func TestDecodeOversizedFrame(t *testing.T) {
	t.Parallel()

	frame := `{"type":"chat","message":"` + strings.Repeat("a", MaxFrameSize) + `"}`
	_, err := Decode([]byte(frame))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

// TestDecodeValidation tests out-of-range content in well-formed frames
func TestDecodeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		frame    string
		wantType string
	}{
		{name: "number zero", frame: `{"type":"bingo-number","number":0}`, wantType: TypeNumber},
		{name: "number 91", frame: `{"type":"bingo-number","number":91}`, wantType: TypeNumber},
		{name: "negative number", frame: `{"type":"bingo-number","number":-5}`, wantType: TypeNumber},
		{name: "fractional number", frame: `{"type":"bingo-number","number":4.5}`, wantType: TypeNumber},
		{name: "non-numeric number", frame: `{"type":"bingo-number","number":"seven"}`, wantType: TypeNumber},
		{name: "missing number", frame: `{"type":"bingo-number"}`, wantType: TypeNumber},
		{name: "empty chat", frame: `{"type":"chat","message":"   "}`, wantType: TypeChat},
		{name: "chat over limit", frame: `{"type":"chat","message":"` + strings.Repeat("x", 501) + `"}`, wantType: TypeChat},
		{name: "signal without target", frame: `{"type":"offer","sdp":"v=0"}`, wantType: TypeOffer},
		{name: "signal with numeric target", frame: `{"type":"answer","target":5}`, wantType: TypeAnswer},
		{name: "winner with text amount", frame: `{"type":"winner","winAmount":"lots"}`, wantType: TypeWinner},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode([]byte(tt.frame))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantType, verr.Type)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

// TestDecodeChatAtLimit tests that a message of exactly the maximum length passes
func TestDecodeChatAtLimit(t *testing.T) {
	t.Parallel()

	msg := strings.Repeat("é", 500)
	got, err := Decode([]byte(`{"type":"chat","message":"` + msg + `"}`))
	require.NoError(t, err)
	assert.Equal(t, Chat{Message: msg}, got)
}

// TestSignalWithFrom tests pass-through of signaling frames
func TestSignalWithFrom(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(`{"type":"ice-candidate","target":"broadcast","candidate":{"sdpMid":"0"},"from":"spoofed"}`))
	require.NoError(t, err)

	sig, ok := ev.(Signal)
	require.True(t, ok)
	assert.True(t, sig.IsBroadcast())
	assert.Equal(t, TypeICECandidate, sig.Type())

	data, err := sig.WithFrom("sender-1")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "sender-1", out["from"])
	assert.Equal(t, "ice-candidate", out["type"])
	assert.Equal(t, "broadcast", out["target"])
	assert.Equal(t, map[string]any{"sdpMid": "0"}, out["candidate"])
}

// TestEncode tests outbound frame encoding
func TestEncode(t *testing.T) {
	t.Parallel()

	data, err := Encode(Presence{
		Type:      TypeUserLeft,
		UserID:    "a",
		Name:      "Alice",
		Timestamp: 1000,
		Users:     []User{{UserID: "b", Name: "Bob", Role: "player", JoinedAt: 900}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"user-left","userId":"a","name":"Alice","timestamp":1000,
		"users":[{"userId":"b","name":"Bob","role":"player","joinedAt":900}]}`, string(data))

	_, err = Encode(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

// TestNewError tests the error frame shape
func TestNewError(t *testing.T) {
	t.Parallel()

	data, err := Encode(NewError("nope"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"nope"}`, string(data))
}
