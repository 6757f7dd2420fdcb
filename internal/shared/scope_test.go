package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithScopeActivatesScope(t *testing.T) {
	ctx := context.Background()

	err := WithScope(ctx, SelfScope("user-1"), func(ctx context.Context) error {
		scope, err := RequireScope(ctx)
		require.NoError(t, err)
		assert.False(t, scope.Elevated())
		assert.Equal(t, "user-1", scope.UserID())
		return nil
	})
	require.NoError(t, err)
}

func TestWithScopeRestoresOuterScopeAfterError(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("inner operation failed")

	err := WithScope(ctx, SelfScope("owner"), func(outer context.Context) error {
		inner := WithScope(outer, ElevatedScope(), func(ctx context.Context) error {
			return failure
		})
		require.ErrorIs(t, inner, failure)

		// The outer context still carries the self scope after the failed
		// elevated call.
		scope, err := RequireScope(outer)
		require.NoError(t, err)
		assert.False(t, scope.Elevated())
		assert.Equal(t, "owner", scope.UserID())
		return nil
	})
	require.NoError(t, err)

	// Nothing leaks back onto the caller's context.
	_, ok := ScopeFromContext(ctx)
	assert.False(t, ok)
}

func TestRequireScopeWithoutActiveScope(t *testing.T) {
	_, err := RequireScope(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveScope)
}

func TestNestedScopesDoNotInterfere(t *testing.T) {
	err := WithScope(context.Background(), ElevatedScope(), func(outer context.Context) error {
		err := WithScope(outer, SelfScope("citizen-1"), func(inner context.Context) error {
			scope, _ := ScopeFromContext(inner)
			assert.Equal(t, "citizen-1", scope.UserID())
			return nil
		})
		require.NoError(t, err)

		scope, _ := ScopeFromContext(outer)
		assert.True(t, scope.Elevated())
		return nil
	})
	require.NoError(t, err)
}
