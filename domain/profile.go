// Package domain contains core concepts of the relay.
// This file defines the session Profile and message Target.
// No runtime, network, or UI logic should be added here.
package domain

import "slices"

// Profile holds the delegate- or default-policy-issued attributes of a
// session. The registry treats it as opaque data; only the permission
// engine interprets friends and groups.
type Profile struct {
	SessionID string   `json:"sessionId"`
	Nickname  string   `json:"nickname"`
	Friends   []string `json:"friends"`
	Groups    []string `json:"groups"`
}

// HasFriend reports whether the given session id is in the friend set.
func (p Profile) HasFriend(sessionID string) bool {
	return slices.Contains(p.Friends, sessionID)
}

// InGroup reports whether the profile belongs to the given group.
func (p Profile) InGroup(groupID string) bool {
	return slices.Contains(p.Groups, groupID)
}

// Credentials is the payload a client sends on ma:connect.
// Token is only meaningful when a token delegate is configured.
type Credentials struct {
	Nickname string `json:"nickname"`
	Token    string `json:"token,omitempty"`
}

// Target addresses a message. ID routes to a single session, Group to
// every member of a group. Both empty means broadcast.
type Target struct {
	ID    string `json:"id,omitempty"`
	Group string `json:"group,omitempty"`
}

// IsDirect reports whether the target addresses a single session.
func (t Target) IsDirect() bool { return t.ID != "" }

// IsGroup reports whether the target addresses a group.
func (t Target) IsGroup() bool { return t.Group != "" }

// IsBroadcast reports whether the target addresses everyone else.
func (t Target) IsBroadcast() bool { return t.ID == "" && t.Group == "" }
