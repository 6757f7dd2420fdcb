package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civiceye/civiceye/internal/shared"
)

// RoleDirectory looks up the stored role for a subject. Implemented by the
// profiles repository; returns shared.ErrNotFound when no profile row exists.
type RoleDirectory interface {
	RoleByUserID(ctx context.Context, userID string) (string, error)
}

// Resolver turns a raw Authorization header into a Principal.
type Resolver struct {
	verifier TokenVerifier
	roles    RoleDirectory
	revoked  RevocationChecker
}

// NewResolver constructs a Resolver. revoked may be nil when no revocation
// backend is configured.
func NewResolver(verifier TokenVerifier, roles RoleDirectory, revoked RevocationChecker) *Resolver {
	return &Resolver{verifier: verifier, roles: roles, revoked: revoked}
}

const bearerPrefix = "Bearer "

// Resolve authenticates the header and resolves the caller's role. The
// profile lookup runs under an elevated scope: it is the one read that must
// succeed before any caller-scoped operation can be authorized. A subject
// without a profile row is denied, never defaulted to a role.
func (r *Resolver) Resolve(ctx context.Context, header string) (Principal, error) {
	if header == "" {
		return Principal{}, shared.ErrMissingCredential
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return Principal{}, shared.ErrMalformedCredential
	}

	if r.revoked != nil {
		revoked, err := r.revoked.IsRevoked(ctx, token)
		if err != nil {
			return Principal{}, fmt.Errorf("%w: revocation check: %v", shared.ErrUpstream, err)
		}
		if revoked {
			return Principal{}, shared.ErrInvalidCredential
		}
	}

	subject, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredential) {
			return Principal{}, err
		}
		return Principal{}, fmt.Errorf("%w: verify token: %v", shared.ErrUpstream, err)
	}
	if subject == "" {
		return Principal{}, shared.ErrInvalidCredential
	}

	var rawRole string
	err = shared.WithScope(ctx, shared.ElevatedScope(), func(ctx context.Context) error {
		var lookupErr error
		rawRole, lookupErr = r.roles.RoleByUserID(ctx, subject)
		return lookupErr
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Principal{}, shared.ErrProfileNotFound
		}
		return Principal{}, fmt.Errorf("%w: profile lookup: %v", shared.ErrUpstream, err)
	}

	role, ok := ParseRole(rawRole)
	if !ok {
		return Principal{}, shared.ErrProfileNotFound
	}
	return Principal{UserID: subject, Role: role}, nil
}
