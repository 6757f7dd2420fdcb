package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/issues"
	"github.com/civiceye/civiceye/internal/profiles"
	"github.com/civiceye/civiceye/internal/shared"
)

const (
	citizenRecentLimit    = 5
	governmentRecentLimit = 10
)

// ProfileGetter is the slice of the profile service the citizen dashboard
// uses.
type ProfileGetter interface {
	Get(ctx context.Context, principal identity.Principal) (*profiles.Profile, error)
}

// CitizenDashboard is the caller-scoped view: the caller's own reports only,
// whatever their role.
type CitizenDashboard struct {
	User         *profiles.Profile `json:"user"`
	Stats        Stats             `json:"stats"`
	RecentIssues []issues.Issue    `json:"recent_issues"`
}

// GovernmentDashboard is the global view.
type GovernmentDashboard struct {
	Stats        Stats          `json:"stats"`
	RecentIssues []issues.Issue `json:"recent_issues"`
}

// Service assembles dashboards. Statistics are recomputed from live data on
// every request; nothing is cached.
type Service struct {
	repo     issues.RepositoryPort
	profiles ProfileGetter
}

// NewService builds a Service instance.
func NewService(repo issues.RepositoryPort, profileGetter ProfileGetter) *Service {
	return &Service{repo: repo, profiles: profileGetter}
}

// Citizen builds the caller-scoped dashboard. The issue set and the profile
// load concurrently; a failure on either side cancels the other.
func (s *Service) Citizen(ctx context.Context, principal identity.Principal) (*CitizenDashboard, error) {
	var (
		items   []issues.Issue
		profile *profiles.Profile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return shared.WithScope(gctx, shared.SelfScope(principal.UserID), func(ctx context.Context) error {
			var err error
			items, err = s.repo.List(ctx, issues.ListFilters{})
			return err
		})
	})
	g.Go(func() error {
		var err error
		profile, err = s.profiles.Get(gctx, principal)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &CitizenDashboard{
		User:         profile,
		Stats:        Aggregate(items, CitizenView),
		RecentIssues: recent(items, citizenRecentLimit),
	}, nil
}

// Government builds the global dashboard. The role check runs before any
// elevated read.
func (s *Service) Government(ctx context.Context, principal identity.Principal) (*GovernmentDashboard, error) {
	if !principal.Government() {
		return nil, shared.ErrForbidden
	}

	var items []issues.Issue
	err := shared.WithScope(ctx, shared.ElevatedScope(), func(ctx context.Context) error {
		var err error
		items, err = s.repo.List(ctx, issues.ListFilters{})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &GovernmentDashboard{
		Stats:        Aggregate(items, GovernmentView),
		RecentIssues: recent(items, governmentRecentLimit),
	}, nil
}

// recent assumes the repository returns newest first.
func recent(items []issues.Issue, limit int) []issues.Issue {
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
