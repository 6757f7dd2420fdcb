package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye/internal/shared"
)

func TestJWTIssueAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", "civiceye", time.Hour)

	token, expiresAt, err := svc.Issue("user-42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	subject, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", subject)
}

func TestJWTVerifyWrongKey(t *testing.T) {
	issuer := NewJWTService("secret-a", "civiceye", time.Hour)
	verifier := NewJWTService("secret-b", "civiceye", time.Hour)

	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestJWTVerifyExpired(t *testing.T) {
	svc := NewJWTService("test-secret", "civiceye", -time.Minute)

	token, _, err := svc.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestJWTVerifyGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", "civiceye", time.Hour)
	_, err := svc.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestJWTVerifyWrongIssuer(t *testing.T) {
	issuer := NewJWTService("test-secret", "someone-else", time.Hour)
	verifier := NewJWTService("test-secret", "civiceye", time.Hour)

	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}
