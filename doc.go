// Package roomrelay is a real-time room relay for browser games and calls.
//
// Clients connect over WebSocket, join exactly one named room and exchange
// JSON frames. The relay keeps the set of live connections and room
// memberships in memory and fans frames out to the other members of the
// sender's room. Nothing is persisted and nothing is shared across processes.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/roomrelay/ws"
//	)
//
//	cfg := ws.DefaultConfig()          // :8080, 100 connections/min per origin
//	server := ws.New(cfg, slog.Default())
//	server.Serve(ctx)
//
// A client connects with
//
//	ws://host:8080/ws?room=table-1&name=Ada&role=player
//
// role may be player, spectator or admin; admin requires secret=<AdminSecret>.
//
// # Frames
//
// Every frame is a JSON object with a "type" field.
//
//	ping                      -> pong to the sender
//	bingo-number {number}     -> bingo-number to the room, sender excluded (1..90)
//	winner {winAmount}        -> winner to the whole room
//	chat {message}            -> chat to the whole room (max 500 characters, HTML-escaped)
//	offer|answer|ice-candidate {target}
//	                          -> passed through with "from"; target is "broadcast"
//	                             or the id of a member of the same room
//	get-users                 -> users-list to the sender
//
// On connect the client receives welcome, and the rest of the room receives
// user-joined with the full roster. On disconnect the room receives user-left.
// Invalid frames are answered with an error frame to the sender only.
//
// # Rate Limiting
//
// Connection attempts and HTTP requests are counted per origin in fixed
// windows (default 100 per minute). Frames on an open connection go through
// a per-connection token bucket (default 20/s, burst 40); excess frames are
// dropped and answered with an error frame.
//
// # Delivery
//
// Delivery is best effort. Each connection has a 256-frame send buffer; when
// it is full new frames for that connection are dropped rather than slowing
// down the rest of the room.
package roomrelay
