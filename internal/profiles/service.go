package profiles

import (
	"context"
	"strings"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	GetByID(ctx context.Context, userID string) (*Profile, error)
	UpdateFullName(ctx context.Context, userID, fullName string) (*Profile, error)
}

// Service handles profile business logic. Operations run under the caller's
// self scope: a principal can only ever read or change its own profile here.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns the caller's own profile.
func (s *Service) Get(ctx context.Context, principal identity.Principal) (*Profile, error) {
	var profile *Profile
	err := shared.WithScope(ctx, shared.SelfScope(principal.UserID), func(ctx context.Context) error {
		var err error
		profile, err = s.repo.GetByID(ctx, principal.UserID)
		return err
	})
	return profile, err
}

// Update applies the permitted profile fields. Role changes are not a profile
// update; an empty field set is rejected.
func (s *Service) Update(ctx context.Context, principal identity.Principal, req UpdateProfileRequest) (*Profile, error) {
	if req.FullName == nil {
		return nil, shared.ErrNoFieldsToUpdate
	}
	fullName := strings.TrimSpace(*req.FullName)

	var profile *Profile
	err := shared.WithScope(ctx, shared.SelfScope(principal.UserID), func(ctx context.Context) error {
		var err error
		profile, err = s.repo.UpdateFullName(ctx, principal.UserID, fullName)
		return err
	})
	return profile, err
}
