package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/shared"
)

type scopedRepo struct {
	profile Profile
}

func (r *scopedRepo) check(ctx context.Context, userID string) error {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return err
	}
	if !scope.Elevated() && scope.UserID() != userID {
		return shared.ErrNotFound
	}
	return nil
}

func (r *scopedRepo) GetByID(ctx context.Context, userID string) (*Profile, error) {
	if err := r.check(ctx, userID); err != nil {
		return nil, err
	}
	p := r.profile
	return &p, nil
}

func (r *scopedRepo) UpdateFullName(ctx context.Context, userID, fullName string) (*Profile, error) {
	if err := r.check(ctx, userID); err != nil {
		return nil, err
	}
	r.profile.FullName = fullName
	p := r.profile
	return &p, nil
}

func TestProfileGetRunsUnderSelfScope(t *testing.T) {
	repo := &scopedRepo{profile: Profile{ID: "alice", FullName: "Alice"}}
	svc := NewService(repo)

	got, err := svc.Get(context.Background(), identity.Principal{UserID: "alice", Role: identity.RoleCitizen})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FullName)
}

func TestProfileUpdateTrimsName(t *testing.T) {
	repo := &scopedRepo{profile: Profile{ID: "alice"}}
	svc := NewService(repo)

	name := "  New Name "
	got, err := svc.Update(context.Background(), identity.Principal{UserID: "alice"}, UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.FullName)
}

func TestProfileUpdateEmptyFieldSet(t *testing.T) {
	svc := NewService(&scopedRepo{})

	_, err := svc.Update(context.Background(), identity.Principal{UserID: "alice"}, UpdateProfileRequest{})
	assert.ErrorIs(t, err, shared.ErrNoFieldsToUpdate)
}
