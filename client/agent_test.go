package client

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"relay-lab/domain"
	"relay-lab/infrastructure/ws"
)

func newTestAgent() *Agent {
	return &Agent{
		log:      slog.Default(),
		handlers: make(map[Event][]subscription),
		done:     make(chan struct{}),
	}
}

func frameOf(t *testing.T, event string, args ...any) ws.Frame {
	t.Helper()
	frame := ws.Frame{Event: event}
	for _, arg := range args {
		raw, err := json.Marshal(arg)
		require.NoError(t, err)
		frame.Args = append(frame.Args, raw)
	}
	return frame
}

func TestAgent_On_Off_Has(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	noop := func([]json.RawMessage) {}

	// Given two handlers on the same event
	first := agent.On(EventMessage, noop)
	second := agent.On(EventMessage, noop)
	req.NotEqual(first, second)
	req.True(agent.Has(EventMessage))

	// When one subscription is removed
	agent.Off(EventMessage, first)
	req.True(agent.Has(EventMessage))

	// When Off is called without ids
	agent.Off(EventMessage)
	req.False(agent.Has(EventMessage))

	// Removing from an event with no handlers is harmless
	agent.Off(EventList, 99)
	req.False(agent.Has(EventList))
}

func TestAgent_Dispatch_Calls_Handlers_In_Registration_Order(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	var order []string
	agent.On(EventMessage, func([]json.RawMessage) { order = append(order, "first") })
	agent.On(EventMessage, func([]json.RawMessage) { order = append(order, "second") })

	agent.handleFrame(frameOf(t, "ms:message", "hi", domain.Profile{Nickname: "alice"}))

	req.Equal([]string{"first", "second"}, order)
}

func TestAgent_Handlers_May_Mutate_Subscriptions_During_Dispatch(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	calls := 0
	agent.On(EventMessage, func([]json.RawMessage) {
		calls++
		// Removing every message handler mid-dispatch must not panic
		agent.Off(EventMessage)
	})

	agent.handleFrame(frameOf(t, "ms:message", "hi"))
	agent.handleFrame(frameOf(t, "ms:message", "again"))

	req.Equal(1, calls)
	req.False(agent.Has(EventMessage))
}

func TestAgent_Connect_Ack_Establishes_The_Session(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	req.Nil(agent.Session())

	profile := domain.Profile{SessionID: "s1", Nickname: "alice",
		Friends: []string{}, Groups: []string{}}
	agent.handleFrame(frameOf(t, "ms:connect", profile))

	session := agent.Session()
	req.NotNil(session)
	req.Equal(profile, *session)
}

func TestAgent_Connect_Rejection_Leaves_No_Session(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	var errArgs []json.RawMessage
	agent.On(EventConnect, func(args []json.RawMessage) { errArgs = args })

	// ms:connect(false, reason) means authentication failed
	agent.handleFrame(frameOf(t, "ms:connect", false, "authentication failed"))

	req.Nil(agent.Session())
	req.Len(errArgs, 2)
	req.Equal("false", string(errArgs[0]))
}

func TestAgent_Disconnect_Ack_Clears_The_Session(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	agent.handleFrame(frameOf(t, "ms:connect", domain.Profile{SessionID: "s1"}))
	req.NotNil(agent.Session())

	agent.handleFrame(frameOf(t, "ms:disconnect"))
	req.Nil(agent.Session())
}

func TestAgent_Unknown_Server_Event_Is_Ignored(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	called := false
	agent.On(EventMessage, func([]json.RawMessage) { called = true })

	agent.handleFrame(frameOf(t, "ms:bogus", "x"))
	req.False(called)
}

func TestAgent_Emits_Require_A_Session(t *testing.T) {
	req := require.New(t)
	agent := newTestAgent()

	// Without a session the guarded sends fail fast, before any socket IO
	req.Error(agent.SendMessage("hi", nil))
	req.Error(agent.List(nil))
	req.Error(agent.Request(nil))

	// Disconnect before a session is a silent no-op
	req.NoError(agent.Disconnect())
}
