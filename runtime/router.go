package runtime

import (
	"log/slog"

	"relay-lab/contract"
	"relay-lab/domain"
	"relay-lab/observability"
)

// PayloadFilter rewrites string payloads before relay (moderation).
type PayloadFilter interface {
	Censor(text string) string
}

// Router is the event state machine driving the relay. Each inbound
// event is handled to completion, including every outbound emit, before
// the transport hands over the next event for the same connection.
// All error conditions are terminal here: nothing bubbles past a single
// event's fan-out.
type Router struct {
	log      *slog.Logger
	registry contract.IRegistry
	engine   *Engine
	filter   PayloadFilter
	stats    *observability.Stats
}

type RouterOption func(*Router)

// WithPayloadFilter enables payload moderation on relayed messages.
func WithPayloadFilter(f PayloadFilter) RouterOption {
	return func(r *Router) { r.filter = f }
}

// WithStats wires relay counters into the router.
func WithStats(s *observability.Stats) RouterOption {
	return func(r *Router) { r.stats = s }
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, engine *Engine, opts ...RouterOption) *Router {
	r := &Router{log: log, registry: registry, engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect authenticates a connection and registers its session.
// The requester is acknowledged first, then every other active session
// receives a join notification. A connection that already owns a
// session is a silent no-op.
func (r *Router) Connect(conn contract.Conn, data domain.Credentials) {
	if _, ok := r.registry.ProfileOf(conn); ok {
		r.log.Debug("duplicate connect ignored", "conn_id", conn.ID())
		return
	}

	profile, err := r.engine.Authenticate(conn, data)
	if err != nil {
		r.stats.IncrAuthFailures()
		r.log.Info("authentication rejected", "conn_id", conn.ID(), "error", err)
		_ = conn.Emit(domain.EventMSConnect, false, err.Error())
		return
	}

	_ = conn.Emit(domain.EventMSConnect, profile)

	if _, ok := r.registry.Lookup(profile.SessionID); ok {
		// Delegate reissued an id that is already online.
		r.log.Debug("session already live, register skipped", "session_id", profile.SessionID)
		return
	}
	r.registry.Register(conn, profile)
	r.stats.IncrSessionsJoined()

	r.registry.ForEachActive(func(_ string, c contract.Conn, _ domain.Profile) {
		if c != conn {
			_ = c.Emit(domain.EventMSJoin, profile)
		}
	})
}

// Disconnect tears a session down, either on an explicit ma:disconnect
// or when the transport detects the socket is gone. Unknown connections
// are an idempotent no-op with zero emits.
func (r *Router) Disconnect(conn contract.Conn, explicit bool) {
	profile, ok := r.registry.ProfileOf(conn)
	if !ok {
		return
	}

	r.registry.Unregister(conn)
	r.stats.IncrSessionsParted()

	r.registry.ForEachActive(func(_ string, c contract.Conn, _ domain.Profile) {
		if c != conn {
			_ = c.Emit(domain.EventMSPart, profile)
		}
	})

	if explicit {
		_ = conn.Emit(domain.EventMSDisconnect)
	}
}

// List sends the full roster of active profiles to the requester only.
// The filter is accepted for wire compatibility but not applied.
func (r *Router) List(conn contract.Conn, filter any) {
	if _, ok := r.registry.ProfileOf(conn); !ok {
		r.log.Debug("list from unauthenticated connection ignored", "conn_id", conn.ID())
		return
	}
	if filter != nil {
		r.log.Debug("list filter ignored", "conn_id", conn.ID())
	}

	profiles := make([]domain.Profile, 0, r.registry.Len())
	r.registry.ForEachActive(func(_ string, _ contract.Conn, p domain.Profile) {
		profiles = append(profiles, p)
	})
	_ = conn.Emit(domain.EventMSList, profiles)
}

// Request echoes params back to the requester. Loopback diagnostic, no
// precondition.
func (r *Router) Request(conn contract.Conn, params any) {
	_ = conn.Emit(domain.EventMSResponse, params)
}

// Message routes a payload to one session, one group, or everyone else.
func (r *Router) Message(conn contract.Conn, payload any, to domain.Target) {
	sender, ok := r.registry.ProfileOf(conn)
	if !ok {
		r.log.Debug("message from unauthenticated connection dropped", "conn_id", conn.ID())
		return
	}

	if text, isText := payload.(string); isText && r.filter != nil {
		payload = r.filter.Censor(text)
	}

	switch {
	case to.IsDirect():
		r.routeDirect(conn, sender, payload, to.ID)
	case to.IsGroup():
		r.routeGroup(conn, sender, payload, to.Group)
	default:
		r.broadcast(conn, sender, payload)
	}
}

// routeDirect delivers to a single registered session. An unregistered
// target means zero emits: delivery is best effort while connected.
// A permission failure is reported to the target, not the sender.
func (r *Router) routeDirect(conn contract.Conn, sender domain.Profile, payload any, targetID string) {
	permitted := r.engine.HasPermission(conn, targetID)

	target, ok := r.registry.Lookup(targetID)
	if !ok {
		r.log.Debug("direct target offline, message dropped",
			"sender_id", sender.SessionID, "target_id", targetID)
		return
	}

	if !permitted {
		_ = target.Emit(domain.EventMSError, "Has no permission")
		return
	}

	_ = target.Emit(domain.EventMSMessage, payload, sender)
	r.stats.IncrMessagesRelayed()
}

// routeGroup checks the sender's own membership, then delivers to every
// member connection, the sender included. Denial is silent: a group has
// no single connection to report the error to.
func (r *Router) routeGroup(conn contract.Conn, sender domain.Profile, payload any, groupID string) {
	if !r.engine.HasGroupPermission(conn, groupID) {
		r.log.Debug("group message denied",
			"sender_id", sender.SessionID, "group_id", groupID)
		return
	}

	for _, c := range r.engine.RecipientsForGroup(groupID) {
		_ = c.Emit(domain.EventMSMessage, payload, sender)
	}
	r.stats.IncrMessagesRelayed()
}

// broadcast delivers to every active connection except the sender.
func (r *Router) broadcast(conn contract.Conn, sender domain.Profile, payload any) {
	r.registry.ForEachActive(func(_ string, c contract.Conn, _ domain.Profile) {
		if c != conn {
			_ = c.Emit(domain.EventMSMessage, payload, sender)
		}
	})
	r.stats.IncrMessagesRelayed()
}
