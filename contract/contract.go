//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"relay-lab/domain"
)

// Conn is a transport-level connection handle. Emit is fire-and-forget:
// a send to a closed or saturated peer is dropped, never retried, and
// never reported back to the caller beyond the returned error.
type Conn interface {
	ID() string
	Emit(event string, args ...any) error
}

// Delegate is the pluggable authority for identity issuance and
// permission checks. When no delegate is configured the engine falls
// back to its built-in default policy.
type Delegate interface {
	Authenticate(conn Conn, data domain.Credentials) (domain.Profile, error)
	HasPermission(conn Conn, targetID string) bool
	HasGroupPermission(conn Conn, groupID string) bool
}

// IRegistry owns the session id -> (connection, profile) mapping.
// At most one live entry per session id; a connection appears in at
// most one entry at a time.
type IRegistry interface {
	Lookup(sessionID string) (Conn, bool)
	ProfileOf(conn Conn) (domain.Profile, bool)
	ForEachActive(visit func(sessionID string, conn Conn, profile domain.Profile))
	Register(conn Conn, profile domain.Profile)
	Unregister(conn Conn)
	Len() int
}

// IRouter processes one inbound transport event to completion,
// including all outbound fan-out, before the transport feeds it the
// next event for the same connection.
type IRouter interface {
	Connect(conn Conn, data domain.Credentials)
	Disconnect(conn Conn, explicit bool)
	List(conn Conn, filter any)
	Request(conn Conn, params any)
	Message(conn Conn, payload any, to domain.Target)
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
