package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye/internal/shared"
)

type stubVerifier struct {
	subject string
	err     error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (string, error) {
	return s.subject, s.err
}

type stubDirectory struct {
	roles map[string]string
	err   error

	sawElevatedScope bool
}

func (s *stubDirectory) RoleByUserID(ctx context.Context, userID string) (string, error) {
	if scope, ok := shared.ScopeFromContext(ctx); ok && scope.Elevated() {
		s.sawElevatedScope = true
	}
	if s.err != nil {
		return "", s.err
	}
	role, ok := s.roles[userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func TestResolveMissingHeader(t *testing.T) {
	r := NewResolver(stubVerifier{}, &stubDirectory{}, nil)
	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrMissingCredential)
}

func TestResolveMalformedHeader(t *testing.T) {
	r := NewResolver(stubVerifier{}, &stubDirectory{}, nil)
	for _, header := range []string{"Basic abc123", "Bearer", "Bearer   ", "token-without-scheme"} {
		_, err := r.Resolve(context.Background(), header)
		assert.ErrorIs(t, err, shared.ErrMalformedCredential, "header %q", header)
	}
}

func TestResolveRejectedToken(t *testing.T) {
	r := NewResolver(stubVerifier{err: shared.ErrInvalidCredential}, &stubDirectory{}, nil)
	_, err := r.Resolve(context.Background(), "Bearer bad-token")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestResolveEmptySubject(t *testing.T) {
	r := NewResolver(stubVerifier{subject: ""}, &stubDirectory{}, nil)
	_, err := r.Resolve(context.Background(), "Bearer token")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestResolveMissingProfileDeniesInsteadOfDefaulting(t *testing.T) {
	dir := &stubDirectory{roles: map[string]string{}}
	r := NewResolver(stubVerifier{subject: "user-1"}, dir, nil)
	_, err := r.Resolve(context.Background(), "Bearer token")
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}

func TestResolveUnknownRoleDenied(t *testing.T) {
	dir := &stubDirectory{roles: map[string]string{"user-1": "superadmin"}}
	r := NewResolver(stubVerifier{subject: "user-1"}, dir, nil)
	_, err := r.Resolve(context.Background(), "Bearer token")
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}

func TestResolveSuccessUsesElevatedScopeForProfileLookup(t *testing.T) {
	dir := &stubDirectory{roles: map[string]string{"user-1": "Government"}}
	r := NewResolver(stubVerifier{subject: "user-1"}, dir, nil)

	principal, err := r.Resolve(context.Background(), "Bearer token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.UserID)
	assert.Equal(t, RoleGovernment, principal.Role)
	assert.True(t, dir.sawElevatedScope)
}

func TestResolveDirectoryFaultSurfacesAsUpstream(t *testing.T) {
	dir := &stubDirectory{err: errors.New("connection refused")}
	r := NewResolver(stubVerifier{subject: "user-1"}, dir, nil)
	_, err := r.Resolve(context.Background(), "Bearer token")
	assert.ErrorIs(t, err, shared.ErrUpstream)
}

func TestResolveRevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRevocationStore(client)
	require.NoError(t, store.Revoke(context.Background(), "revoked-token", time.Hour))

	dir := &stubDirectory{roles: map[string]string{"user-1": "citizen"}}
	r := NewResolver(stubVerifier{subject: "user-1"}, dir, store)

	_, err := r.Resolve(context.Background(), "Bearer revoked-token")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)

	// A different token from the same user still resolves.
	principal, err := r.Resolve(context.Background(), "Bearer fresh-token")
	require.NoError(t, err)
	assert.Equal(t, RoleCitizen, principal.Role)
}
