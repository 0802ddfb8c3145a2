package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the data a signed token carries into a relay
// session: the identity plus the friend and group sets the permission
// engine works from.
type SessionClaims struct {
	Nickname string   `json:"nickname"`
	Friends  []string `json:"friends"`
	Groups   []string `json:"groups"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for an account. Subject becomes
// the session id when the token delegate authenticates the bearer.
func GenerateToken(secret []byte, accountID, nickname string,
	friends, groups []string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Nickname: nickname,
		Friends:  friends,
		Groups:   groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "relay-lab",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature and expiration of a
// token string.
func ValidateToken(secret []byte, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
