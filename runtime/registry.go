// Package runtime contains the relay core: the session registry, the
// presence and permission engine, and the message router. It owns no
// transport details; connections are opaque contract.Conn handles.
package runtime

import (
	"sync"

	"relay-lab/contract"
	"relay-lab/domain"
)

type entry struct {
	sessionID string
	conn      contract.Conn
	profile   domain.Profile
}

// Registry is the in-memory store of active sessions. All mutation goes
// through Register/Unregister under a single lock; fan-out iteration
// snapshots the entry list so outbound emits never run under the lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	order    []*entry // insertion order, for reproducible fan-out
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
	}
}

// Lookup resolves a session id to its live connection.
func (r *Registry) Lookup(sessionID string) (contract.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// ProfileOf is the reverse lookup from a connection to its profile.
// Linear scan: cardinality is bounded by the number of live sockets.
func (r *Registry) ProfileOf(conn contract.Conn) (domain.Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.order {
		if e.conn == conn {
			return e.profile, true
		}
	}
	return domain.Profile{}, false
}

// ForEachActive visits every registered session in insertion order.
// The entry list is snapshotted under the read lock, then visited
// without it, so visitors may emit to connections freely.
func (r *Registry) ForEachActive(visit func(sessionID string, conn contract.Conn, profile domain.Profile)) {
	r.mu.RLock()
	snapshot := make([]*entry, len(r.order))
	copy(snapshot, r.order)
	r.mu.RUnlock()

	for _, e := range snapshot {
		visit(e.sessionID, e.conn, e.profile)
	}
}

// Register binds a connection to a session. A session id that already
// has a live entry is left untouched: duplicate connect events are a
// silent no-op, not an error.
func (r *Registry) Register(conn contract.Conn, profile domain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[profile.SessionID]; ok {
		return
	}
	e := &entry{sessionID: profile.SessionID, conn: conn, profile: profile}
	r.sessions[profile.SessionID] = e
	r.order = append(r.order, e)
}

// Unregister removes the entry owning the given connection. Idempotent:
// unknown connections are ignored.
func (r *Registry) Unregister(conn contract.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.order {
		if e.conn == conn {
			delete(r.sessions, e.sessionID)
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
