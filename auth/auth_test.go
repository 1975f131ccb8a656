package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret   = []byte("test-secret")
	testIssuer   = "mindflow"
	testAudience = "mindflow-api"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(testSecret, testIssuer, testAudience)
	require.NoError(t, err)
	return a
}

func TestAuthenticateRoundTrip(t *testing.T) {
	a := newTestAuthenticator(t)
	want := Identity{Subject: "auth|42", Email: "alice@example.com", Username: "alice"}

	token, err := CreateToken(testSecret, testIssuer, testAudience, want, time.Hour)
	require.NoError(t, err)

	got, err := a.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAuthenticateRejects(t *testing.T) {
	a := newTestAuthenticator(t)
	id := Identity{Subject: "auth|42"}

	wrongSecret, err := CreateToken([]byte("other"), testIssuer, testAudience, id, time.Hour)
	require.NoError(t, err)
	wrongAudience, err := CreateToken(testSecret, testIssuer, "someone-else", id, time.Hour)
	require.NoError(t, err)
	expired, err := CreateToken(testSecret, testIssuer, testAudience, id, -time.Hour)
	require.NoError(t, err)
	noSubject, err := CreateToken(testSecret, testIssuer, testAudience, Identity{}, time.Hour)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"wrong secret":   wrongSecret,
		"wrong audience": wrongAudience,
		"expired":        expired,
		"no subject":     noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	_, err := NewAuthenticator(nil, testIssuer, testAudience)
	assert.Error(t, err)
}
