package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret-0123456789")

	// Given a signed token for an account
	token, err := GenerateToken(secret, "acc-42", "alice",
		[]string{"acc-7"}, []string{"g1"}, time.Hour)
	req.NoError(err)

	// When it is validated with the same secret
	claims, err := ValidateToken(secret, token)
	req.NoError(err)

	// Then every claim survives
	req.Equal("acc-42", claims.Subject)
	req.Equal("alice", claims.Nickname)
	req.Equal([]string{"acc-7"}, claims.Friends)
	req.Equal([]string{"g1"}, claims.Groups)
	req.Equal("relay-lab", claims.Issuer)
}

func TestToken_Wrong_Secret_Is_Rejected(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken([]byte("secret-a"), "acc-42", "alice", nil, nil, time.Hour)
	req.NoError(err)

	_, err = ValidateToken([]byte("secret-b"), token)
	req.Error(err)
}

func TestToken_Expired_Is_Rejected(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret-0123456789")

	token, err := GenerateToken(secret, "acc-42", "alice", nil, nil, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(secret, token)
	req.Error(err)
}

func TestToken_Garbage_Is_Rejected(t *testing.T) {
	_, err := ValidateToken([]byte("secret"), "not.a.token")
	require.Error(t, err)
}
