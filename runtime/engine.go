package runtime

import (
	"strconv"
	"sync/atomic"

	"relay-lab/contract"
	"relay-lab/domain"
)

// Engine computes identity and authorization. Every decision is
// delegated when a contract.Delegate is configured; otherwise the
// built-in default policy applies: fresh monotonic session ids on
// authenticate, friendship for direct permission, own membership for
// group permission.
type Engine struct {
	delegate contract.Delegate // nil means default policy
	registry contract.IRegistry
	nextID   atomic.Uint64
}

func NewEngine(registry contract.IRegistry, delegate contract.Delegate) *Engine {
	return &Engine{delegate: delegate, registry: registry}
}

// Authenticate issues a profile for a connection. With the default
// policy authentication never fails: the caller gets a fresh session id
// and empty friend and group sets. Enforcing at-most-once per
// connection is the registry's job, not this method's.
func (e *Engine) Authenticate(conn contract.Conn, data domain.Credentials) (domain.Profile, error) {
	if e.delegate != nil {
		return e.delegate.Authenticate(conn, data)
	}

	id := e.nextID.Add(1) - 1
	return domain.Profile{
		SessionID: strconv.FormatUint(id, 10),
		Nickname:  data.Nickname,
		Friends:   []string{},
		Groups:    []string{},
	}, nil
}

// HasPermission reports whether the sender may message targetID
// directly. A sender without a registered profile gets false, never a
// crash.
func (e *Engine) HasPermission(conn contract.Conn, targetID string) bool {
	if e.delegate != nil {
		return e.delegate.HasPermission(conn, targetID)
	}

	profile, ok := e.registry.ProfileOf(conn)
	if !ok {
		return false
	}
	return profile.HasFriend(targetID)
}

// HasGroupPermission checks the sender's own membership in the group.
// Recipients are selected by membership separately; their side is never
// re-checked. Asymmetric on purpose, matching the relay's wire peers.
func (e *Engine) HasGroupPermission(conn contract.Conn, groupID string) bool {
	if e.delegate != nil {
		return e.delegate.HasGroupPermission(conn, groupID)
	}

	profile, ok := e.registry.ProfileOf(conn)
	if !ok {
		return false
	}
	return profile.InGroup(groupID)
}

// RecipientsForGroup collects every registered connection whose profile
// belongs to the group, in registry insertion order.
func (e *Engine) RecipientsForGroup(groupID string) []contract.Conn {
	var conns []contract.Conn
	e.registry.ForEachActive(func(_ string, conn contract.Conn, profile domain.Profile) {
		if profile.InGroup(groupID) {
			conns = append(conns, conn)
		}
	})
	return conns
}
