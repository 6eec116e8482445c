package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/roomrelay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

var (
	// ErrConnectionClosed is returned by Send after Close.
	ErrConnectionClosed = errors.New(roomrelay.ErrConnectionClosed)
	// ErrSendBufferFull is returned by Send when the client is not keeping up.
	ErrSendBufferFull = errors.New(roomrelay.ErrSendBufferFull)
)

// Client is one accepted WebSocket connection. It implements roomrelay.Peer.
type Client struct {
	id         string
	conn       *websocket.Conn
	remoteAddr string
	ctx        context.Context
	cancel     context.CancelFunc
	sendCh     chan []byte
	mu         sync.RWMutex
	closed     bool
	limiter    *rate.Limiter // Rate limiter for incoming frames
	log        *slog.Logger
}

// NewClient wraps conn with a fresh id and starts its write pump.
func NewClient(conn *websocket.Conn, remoteAddr string, limiter *rate.Limiter, log *slog.Logger) *Client {
	c := newClient(conn, remoteAddr, limiter, log)
	if conn != nil {
		go c.writePump()
	}
	return c
}

func newClient(conn *websocket.Conn, remoteAddr string, limiter *rate.Limiter, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	return &Client{
		id:         id,
		conn:       conn,
		remoteAddr: remoteAddr,
		ctx:        ctx,
		cancel:     cancel,
		sendCh:     make(chan []byte, sendBufferSize),
		limiter:    limiter,
		log:        log.With("clientId", id),
	}
}

// ID returns the unique identifier of the connection.
func (c *Client) ID() string {
	return c.id
}

// RemoteAddr returns the client's remote network address.
func (c *Client) RemoteAddr() string {
	return c.remoteAddr
}

// Context is cancelled when the connection closes.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Send queues an encoded frame without blocking.
func (c *Client) Send(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Allow reports whether another inbound frame fits the client's rate limit.
func (c *Client) Allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

// IsAlive returns true until the connection is closed.
func (c *Client) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Close closes the connection with a normal closure code.
func (c *Client) Close() error {
	return c.CloseWithCode(websocket.CloseNormalClosure, "")
}

// CloseWithCode closes the connection with a close code and optional reason.
// Only the first call has an effect.
func (c *Client) CloseWithCode(code int, reason string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	close(c.sendCh)
	c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	message := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	return c.conn.Close()
}

// writePump drains the send channel to the connection and keeps it alive with
// pings. It is the only writer of data frames.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.sendCh:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed", "error", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
