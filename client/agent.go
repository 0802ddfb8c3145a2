// Package client is the relay's client-side convenience wrapper: a
// websocket agent with one handler registration point per event kind.
// Dispatch is synchronous on the read loop; handlers must not block.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"relay-lab/domain"
	"relay-lab/infrastructure/ws"
)

// Event is a client-side event kind, decoupled from wire names.
type Event string

const (
	EventConnect    Event = "connect"
	EventDisconnect Event = "disconnect"
	EventJoin       Event = "join"
	EventPart       Event = "part"
	EventMessage    Event = "message"
	EventError      Event = "error"
	EventList       Event = "list"
	EventResponse   Event = "response"
)

// inboundEvents maps wire names to client event kinds.
var inboundEvents = map[string]Event{
	domain.EventMSConnect:    EventConnect,
	domain.EventMSDisconnect: EventDisconnect,
	domain.EventMSJoin:       EventJoin,
	domain.EventMSPart:       EventPart,
	domain.EventMSMessage:    EventMessage,
	domain.EventMSError:      EventError,
	domain.EventMSList:       EventList,
	domain.EventMSResponse:   EventResponse,
}

// Handler receives the raw event arguments.
type Handler func(args []json.RawMessage)

type subscription struct {
	id      int
	handler Handler
}

// Agent talks to a relay. The zero value is not usable; Dial creates a
// connected agent with a running read loop.
type Agent struct {
	log *slog.Logger

	mu       sync.Mutex
	socket   *websocket.Conn
	session  *domain.Profile
	handlers map[Event][]subscription
	nextID   int

	writeMu sync.Mutex
	done    chan struct{}
}

// Dial opens the websocket and starts the read loop. It does not
// authenticate; call Connect once the handlers are registered.
func Dial(ctx context.Context, url string, log *slog.Logger) (*Agent, error) {
	socket, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	a := &Agent{
		log:      log,
		socket:   socket,
		handlers: make(map[Event][]subscription),
		done:     make(chan struct{}),
	}
	go a.readLoop()
	return a, nil
}

// On registers a handler and returns its subscription id.
func (a *Agent) On(event Event, h Handler) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	a.handlers[event] = append(a.handlers[event], subscription{id: a.nextID, handler: h})
	return a.nextID
}

// Off removes one subscription; with no ids it removes every handler
// for the event.
func (a *Agent) Off(event Event, ids ...int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(ids) == 0 {
		delete(a.handlers, event)
		return
	}
	subs := a.handlers[event]
	kept := subs[:0]
	for _, sub := range subs {
		remove := false
		for _, id := range ids {
			if sub.id == id {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, sub)
		}
	}
	a.handlers[event] = kept
}

// Has reports whether the event has at least one handler.
func (a *Agent) Has(event Event) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handlers[event]) > 0
}

// Session returns the authenticated profile, or nil before ms:connect.
func (a *Agent) Session() *domain.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Connect sends the authentication request. No-op when a session is
// already established.
func (a *Agent) Connect(data domain.Credentials) error {
	if a.Session() != nil {
		return nil
	}
	return a.emit(domain.EventMAConnect, data)
}

// Disconnect asks the relay to tear the session down.
func (a *Agent) Disconnect() error {
	if a.Session() == nil {
		return nil
	}
	return a.emit(domain.EventMADisconnect)
}

// SendMessage relays a payload. A nil target broadcasts.
func (a *Agent) SendMessage(payload any, to *domain.Target) error {
	if a.Session() == nil {
		return fmt.Errorf("send before session established")
	}
	target := domain.Target{}
	if to != nil {
		target = *to
	}
	return a.emit(domain.EventMAMessage, []any{payload, target})
}

// List requests the roster of online profiles.
func (a *Agent) List(filter any) error {
	if a.Session() == nil {
		return fmt.Errorf("list before session established")
	}
	return a.emit(domain.EventMAList, filter)
}

// Request sends a loopback diagnostic; the relay echoes params back.
func (a *Agent) Request(params any) error {
	if a.Session() == nil {
		return fmt.Errorf("request before session established")
	}
	return a.emit(domain.EventMARequest, params)
}

// Close tears the socket down without an explicit ma:disconnect.
func (a *Agent) Close() error {
	return a.socket.Close()
}

// Done is closed when the read loop exits.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

func (a *Agent) emit(event string, args ...any) error {
	frame := ws.Frame{Event: event, Args: make([]json.RawMessage, 0, len(args))}
	for _, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("marshal %s arg: %w", event, err)
		}
		frame.Args = append(frame.Args, raw)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return a.socket.WriteJSON(frame)
}

func (a *Agent) readLoop() {
	defer close(a.done)

	for {
		var frame ws.Frame
		if err := a.socket.ReadJSON(&frame); err != nil {
			a.mu.Lock()
			a.session = nil
			a.mu.Unlock()
			return
		}
		a.handleFrame(frame)
	}
}

func (a *Agent) handleFrame(frame ws.Frame) {
	event, ok := inboundEvents[frame.Event]
	if !ok {
		a.log.Debug("unknown server event", "event", frame.Event)
		return
	}

	switch event {
	case EventConnect:
		// ms:connect carries either the assigned profile or
		// (false, errorString).
		if len(frame.Args) > 0 && !bytes.Equal(bytes.TrimSpace(frame.Args[0]), []byte("false")) {
			var profile domain.Profile
			if err := json.Unmarshal(frame.Args[0], &profile); err == nil {
				a.mu.Lock()
				a.session = &profile
				a.mu.Unlock()
			}
		}
	case EventDisconnect:
		a.mu.Lock()
		a.session = nil
		a.mu.Unlock()
	}

	a.dispatch(event, frame.Args)
}

// dispatch calls the registered handlers synchronously. The list is
// copied first, so handlers may register or remove handlers safely.
func (a *Agent) dispatch(event Event, args []json.RawMessage) {
	a.mu.Lock()
	subs := make([]subscription, len(a.handlers[event]))
	copy(subs, a.handlers[event])
	a.mu.Unlock()

	for _, sub := range subs {
		sub.handler(args)
	}
}
