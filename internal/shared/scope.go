package shared

import (
	"context"
	"errors"
)

// Scope is the data-visibility restriction active for the current operation:
// either restricted to rows owned by one user, or elevated with no restriction.
// A Scope is a value carried on the request context, never package state, so
// concurrent requests cannot observe each other's scope.
type Scope struct {
	elevated bool
	userID   string
}

// SelfScope restricts reads and writes to rows owned by userID.
func SelfScope(userID string) Scope {
	return Scope{userID: userID}
}

// ElevatedScope removes the row-level restriction. Only government-role
// operations and the one-time profile lookup during credential resolution
// run elevated.
func ElevatedScope() Scope {
	return Scope{elevated: true}
}

// Elevated reports whether the scope is unrestricted.
func (s Scope) Elevated() bool {
	return s.elevated
}

// UserID returns the owning user for a self scope, empty when elevated.
func (s Scope) UserID() string {
	return s.userID
}

type scopeContextKey struct{}

// ErrNoActiveScope is returned by repositories invoked outside WithScope.
// It signals a programming error, not a user-facing condition.
var ErrNoActiveScope = errors.New("no active security scope")

// WithScope runs fn with scope active on a derived context. The caller's
// context is never mutated, so the prior scope is intact on every exit path,
// including when fn returns an error.
func WithScope(ctx context.Context, scope Scope, fn func(context.Context) error) error {
	return fn(context.WithValue(ctx, scopeContextKey{}, scope))
}

// ScopeFromContext extracts the active scope, if any.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok
}

// RequireScope returns the active scope or ErrNoActiveScope.
func RequireScope(ctx context.Context) (Scope, error) {
	scope, ok := ScopeFromContext(ctx)
	if !ok {
		return Scope{}, ErrNoActiveScope
	}
	return scope, nil
}
