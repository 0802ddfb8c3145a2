package auth

import (
	"fmt"
	"log/slog"

	"relay-lab/contract"
	"relay-lab/domain"
	"relay-lab/errors"
)

// TokenDelegate is a concrete authorization delegate: connect
// credentials must carry a valid signed token, and the token's claims
// become the session profile. Permission checks read the registered
// profile, so they stay consistent with what was issued at connect
// time.
type TokenDelegate struct {
	log      *slog.Logger
	secret   []byte
	registry contract.IRegistry
}

func NewTokenDelegate(log *slog.Logger, secret []byte, registry contract.IRegistry) *TokenDelegate {
	return &TokenDelegate{log: log, secret: secret, registry: registry}
}

// Authenticate validates the bearer token and maps its claims to a
// profile. The token subject is the session id, so a stable account
// keeps a stable identity across reconnects.
func (d *TokenDelegate) Authenticate(conn contract.Conn, data domain.Credentials) (domain.Profile, error) {
	if data.Token == "" {
		return domain.Profile{}, errors.ErrAuthFailed
	}

	claims, err := ValidateToken(d.secret, data.Token)
	if err != nil {
		d.log.Debug("token rejected", "conn_id", conn.ID(), "error", err)
		return domain.Profile{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	nickname := claims.Nickname
	if data.Nickname != "" {
		nickname = data.Nickname
	}

	return domain.Profile{
		SessionID: claims.Subject,
		Nickname:  nickname,
		Friends:   emptyIfNil(claims.Friends),
		Groups:    emptyIfNil(claims.Groups),
	}, nil
}

// HasPermission checks the sender's registered friend set.
func (d *TokenDelegate) HasPermission(conn contract.Conn, targetID string) bool {
	profile, ok := d.registry.ProfileOf(conn)
	if !ok {
		return false
	}
	return profile.HasFriend(targetID)
}

// HasGroupPermission checks the sender's registered group set.
func (d *TokenDelegate) HasGroupPermission(conn contract.Conn, groupID string) bool {
	profile, ok := d.registry.ProfileOf(conn)
	if !ok {
		return false
	}
	return profile.InGroup(groupID)
}

// emptyIfNil keeps wire payloads as [] instead of null.
func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
