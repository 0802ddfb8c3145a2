package runtime

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"relay-lab/domain"
	"relay-lab/errors"
	"relay-lab/mocks"
)

func newTestRouter() (*Registry, *Router) {
	registry := NewRegistry()
	engine := NewEngine(registry, nil)
	router := NewRouter(slog.Default(), registry, engine)
	return registry, router
}

func TestRouter_Connect_Acks_Requester_And_Joins_Peers(t *testing.T) {
	req := require.New(t)
	_, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	carol := newFakeConn("c3")

	// When alice connects to an empty relay
	router.Connect(alice, domain.Credentials{Nickname: "alice"})

	// Then she is acked and nobody is notified
	req.Equal(1, alice.count(domain.EventMSConnect))
	req.Zero(alice.count(domain.EventMSJoin))

	// When bob and carol connect
	router.Connect(bob, domain.Credentials{Nickname: "bob"})
	router.Connect(carol, domain.Credentials{Nickname: "carol"})

	// Then each earlier peer got exactly one join per newcomer
	req.Equal(2, alice.count(domain.EventMSJoin))
	req.Equal(1, bob.count(domain.EventMSJoin))
	req.Zero(carol.count(domain.EventMSJoin))

	// And the join carries the newcomer's profile
	args, ok := alice.last(domain.EventMSJoin)
	req.True(ok)
	req.Len(args, 1)
	req.Equal("carol", args[0].(domain.Profile).Nickname)
}

func TestRouter_Connect_Duplicate_Is_Silent_NoOp(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")

	router.Connect(alice, domain.Credentials{Nickname: "alice"})
	router.Connect(bob, domain.Credentials{Nickname: "bob"})
	alice.reset()
	bob.reset()

	// When alice connects again on the same connection
	router.Connect(alice, domain.Credentials{Nickname: "alice-again"})

	// Then nothing is emitted and the registry is unchanged
	req.Zero(alice.total())
	req.Zero(bob.total())
	req.Equal(2, registry.Len())
}

func TestRouter_Connect_AuthFailure_Reported_To_Requester_Only(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := NewRegistry()
	delegate := mocks.NewMockDelegate(ctrl)
	router := NewRouter(slog.Default(), registry, NewEngine(registry, delegate))

	bystander := newFakeConn("c0")
	registry.Register(bystander, profileFor("s0", "bystander"))

	alice := newFakeConn("c1")
	delegate.EXPECT().
		Authenticate(alice, gomock.Any()).
		Return(domain.Profile{}, errors.ErrAuthFailed).
		Times(1)

	// When authentication is rejected
	router.Connect(alice, domain.Credentials{Nickname: "alice"})

	// Then the requester gets ms:connect(false, reason) and nothing else happens
	args, ok := alice.last(domain.EventMSConnect)
	req.True(ok)
	req.Len(args, 2)
	req.Equal(false, args[0])
	req.Equal(errors.ErrAuthFailed.Error(), args[1])

	req.Zero(bystander.total())
	req.Equal(1, registry.Len())
}

func TestRouter_Disconnect_Parts_Remaining_Peers(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	carol := newFakeConn("c3")
	for conn, nick := range map[*fakeConn]string{alice: "alice", bob: "bob", carol: "carol"} {
		router.Connect(conn, domain.Credentials{Nickname: nick})
	}
	alice.reset()
	bob.reset()
	carol.reset()

	// When bob disconnects explicitly
	router.Disconnect(bob, true)

	// Then the remaining peers each get one part, and bob is acked
	req.Equal(1, alice.count(domain.EventMSPart))
	req.Equal(1, carol.count(domain.EventMSPart))
	req.Equal(1, bob.count(domain.EventMSDisconnect))
	req.Zero(bob.count(domain.EventMSPart))
	req.Equal(2, registry.Len())

	args, ok := alice.last(domain.EventMSPart)
	req.True(ok)
	req.Equal("bob", args[0].(domain.Profile).Nickname)
}

func TestRouter_Disconnect_Unknown_Connection_Emits_Nothing(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	router.Connect(alice, domain.Credentials{Nickname: "alice"})
	alice.reset()

	stranger := newFakeConn("c9")
	router.Disconnect(stranger, true)

	req.Zero(stranger.total())
	req.Zero(alice.total())
	req.Equal(1, registry.Len())
}

func TestRouter_List_Sent_To_Requester_Only(t *testing.T) {
	req := require.New(t)
	_, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	router.Connect(alice, domain.Credentials{Nickname: "alice"})
	router.Connect(bob, domain.Credentials{Nickname: "bob"})
	alice.reset()
	bob.reset()

	// When alice requests the roster (filter is pass-through)
	router.List(alice, map[string]any{"nickname": "b*"})

	// Then only she receives the full list
	req.Equal(1, alice.count(domain.EventMSList))
	req.Zero(bob.total())

	args, _ := alice.last(domain.EventMSList)
	profiles := args[0].([]domain.Profile)
	req.Len(profiles, 2)
}

func TestRouter_List_From_Unauthenticated_Is_Ignored(t *testing.T) {
	req := require.New(t)
	_, router := newTestRouter()

	stranger := newFakeConn("c9")
	router.List(stranger, nil)

	req.Zero(stranger.total())
}

func TestRouter_Request_Echoes_Params(t *testing.T) {
	req := require.New(t)
	_, router := newTestRouter()

	conn := newFakeConn("c1")
	router.Request(conn, map[string]any{"ping": 1})

	args, ok := conn.last(domain.EventMSResponse)
	req.True(ok)
	req.Equal(map[string]any{"ping": 1}, args[0])
}

func TestRouter_Direct_Message_Delivered_Exactly_Once(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	carol := newFakeConn("c3")

	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice", Friends: []string{"sB"}})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob"})
	registry.Register(carol, domain.Profile{SessionID: "sC", Nickname: "carol"})

	// When alice messages her friend bob
	router.Message(alice, "hi", domain.Target{ID: "sB"})

	// Then bob receives it exactly once, with alice's profile attached
	req.Equal(1, bob.count(domain.EventMSMessage))
	args, _ := bob.last(domain.EventMSMessage)
	req.Equal("hi", args[0])
	req.Equal("alice", args[1].(domain.Profile).Nickname)

	// And nobody else hears about it
	req.Zero(alice.total())
	req.Zero(carol.total())
}

func TestRouter_Direct_Message_Denied_Reports_To_Target(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")

	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice"})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob"})

	// When alice messages bob without being his friend
	router.Message(alice, "hi", domain.Target{ID: "sB"})

	// Then the error goes to the target, not the sender
	req.Equal(1, bob.count(domain.EventMSError))
	args, _ := bob.last(domain.EventMSError)
	req.Equal("Has no permission", args[0])

	req.Zero(bob.count(domain.EventMSMessage))
	req.Zero(alice.total())
}

func TestRouter_Direct_Message_To_Offline_Target_Drops_Silently(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")

	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice", Friends: []string{"ghost"}})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob"})

	// When alice messages an unregistered session
	router.Message(alice, "hi", domain.Target{ID: "ghost"})

	// Then nothing is emitted anywhere: best effort while connected
	req.Zero(alice.total())
	req.Zero(bob.total())
}

func TestRouter_Group_Message_Delivered_To_Members(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	carol := newFakeConn("c3")

	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice", Groups: []string{"g1"}})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob", Groups: []string{"g1"}})
	registry.Register(carol, domain.Profile{SessionID: "sC", Nickname: "carol"})

	// When a member messages the group
	router.Message(alice, "hi", domain.Target{Group: "g1"})

	// Then every member receives it, the sender included
	req.Equal(1, alice.count(domain.EventMSMessage))
	req.Equal(1, bob.count(domain.EventMSMessage))
	req.Zero(carol.total())
}

func TestRouter_Group_Message_From_NonMember_Is_Silent(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")

	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice"})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob", Groups: []string{"g1"}})

	// When a non-member messages the group
	router.Message(alice, "hi", domain.Target{Group: "g1"})

	// Then nobody receives anything, not even an error
	req.Zero(alice.total())
	req.Zero(bob.total())
}

func TestRouter_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	carol := newFakeConn("c3")

	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice"})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob"})
	registry.Register(carol, domain.Profile{SessionID: "sC", Nickname: "carol"})

	// When alice sends without a target
	router.Message(alice, "hello all", domain.Target{})

	// Then every other session gets it exactly once
	req.Zero(alice.count(domain.EventMSMessage))
	req.Equal(1, bob.count(domain.EventMSMessage))
	req.Equal(1, carol.count(domain.EventMSMessage))
}

func TestRouter_Message_From_Unauthenticated_Is_Dropped(t *testing.T) {
	req := require.New(t)
	registry, router := newTestRouter()

	bob := newFakeConn("c2")
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob"})

	stranger := newFakeConn("c9")
	router.Message(stranger, "hi", domain.Target{})

	req.Zero(stranger.total())
	req.Zero(bob.total())
}

type upperFilter struct{}

func (upperFilter) Censor(text string) string { return text + " [filtered]" }

func TestRouter_Payload_Filter_Applies_To_String_Payloads(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	engine := NewEngine(registry, nil)
	router := NewRouter(slog.Default(), registry, engine, WithPayloadFilter(upperFilter{}))

	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	registry.Register(alice, domain.Profile{SessionID: "sA", Nickname: "alice"})
	registry.Register(bob, domain.Profile{SessionID: "sB", Nickname: "bob"})

	router.Message(alice, "hi", domain.Target{})

	args, _ := bob.last(domain.EventMSMessage)
	req.Equal("hi [filtered]", args[0])
}
