// Package ws realizes the relay's transport contract over WebSockets.
// One JSON frame per event: {"event": "...", "args": [...]}. Event
// names and argument shapes are the wire contract and must not change.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"relay-lab/observability"
)

// Frame is the wire envelope for a single event.
type Frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

// Conn adapts a websocket to contract.Conn. Outbound frames go through
// a buffered channel drained by a single writer goroutine; a full
// buffer drops the frame. Sends never block an event handler.
type Conn struct {
	id           string
	ws           *websocket.Conn
	log          *slog.Logger
	stats        *observability.Stats
	send         chan []byte
	writeTimeout time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(id string, ws *websocket.Conn, log *slog.Logger,
	stats *observability.Stats, sendBuffer int, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           id,
		ws:           ws,
		log:          log,
		stats:        stats,
		send:         make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Emit enqueues one event frame. Best effort: a saturated peer loses
// the frame, a closed peer returns an error. Neither is retried.
func (c *Conn) Emit(event string, args ...any) error {
	frame := Frame{Event: event, Args: make([]json.RawMessage, 0, len(args))}
	for _, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("marshal %s arg: %w", event, err)
		}
		frame.Args = append(frame.Args, raw)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", event, err)
	}

	select {
	case <-c.closed:
		return fmt.Errorf("emit %s: connection %s closed", event, c.id)
	case c.send <- data:
		return nil
	default:
		c.stats.IncrEmitsDropped()
		c.log.Debug("send buffer full, frame dropped", "conn_id", c.id, "event", event)
		return nil
	}
}

// writePump is the single writer for the socket. It exits when the
// connection closes, taking the underlying socket down with it.
func (c *Conn) writePump() {
	defer func() {
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("write failed, closing connection", "conn_id", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
