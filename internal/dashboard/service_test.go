package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/issues"
	"github.com/civiceye/civiceye/internal/profiles"
	"github.com/civiceye/civiceye/internal/shared"
)

// scopedIssueRepo serves a canned issue set, filtered the way the real
// repository filters under a self scope.
type scopedIssueRepo struct {
	items []issues.Issue
}

func (r *scopedIssueRepo) List(ctx context.Context, _ issues.ListFilters) ([]issues.Issue, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]issues.Issue, 0)
	for _, it := range r.items {
		if scope.Elevated() || it.OwnerUserID == scope.UserID() {
			if !scope.Elevated() {
				it.AuthorName = ""
			}
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *scopedIssueRepo) Create(context.Context, *issues.Issue) error { return nil }
func (r *scopedIssueRepo) GetByID(context.Context, int64) (*issues.Issue, error) {
	return nil, shared.ErrNotFound
}
func (r *scopedIssueRepo) Update(context.Context, int64, issues.UpdateFields) (*issues.Issue, error) {
	return nil, shared.ErrNotFound
}
func (r *scopedIssueRepo) AddComment(context.Context, *issues.Comment) error { return nil }
func (r *scopedIssueRepo) ListComments(context.Context, int64) ([]issues.Comment, error) {
	return nil, nil
}

type fixedProfile struct{}

func (fixedProfile) Get(_ context.Context, principal identity.Principal) (*profiles.Profile, error) {
	return &profiles.Profile{ID: principal.UserID, FullName: "Test User"}, nil
}

func seededService() *Service {
	items := []issues.Issue{
		{ID: 7, OwnerUserID: "alice", AuthorName: "Alice", Status: issues.StatusResolved, Category: "road", Priority: issues.PriorityHigh},
		{ID: 6, OwnerUserID: "alice", AuthorName: "Alice", Status: issues.StatusReported, Category: "road", Priority: issues.PriorityLow},
		{ID: 5, OwnerUserID: "bob", AuthorName: "Bob", Status: issues.StatusInProgress, Category: "water", Priority: issues.PriorityHigh},
	}
	return NewService(&scopedIssueRepo{items: items}, fixedProfile{})
}

func TestCitizenDashboardIsOwnerScoped(t *testing.T) {
	svc := seededService()

	view, err := svc.Citizen(context.Background(), identity.Principal{UserID: "alice", Role: identity.RoleCitizen})
	require.NoError(t, err)

	assert.Equal(t, 2, view.Stats.Total)
	assert.Equal(t, 1, view.Stats.Resolved)
	assert.InDelta(t, 50.0, view.Stats.ResolutionRate, 0.001)
	assert.Len(t, view.RecentIssues, 2)
	assert.Equal(t, "Test User", view.User.FullName)
	for _, it := range view.RecentIssues {
		assert.Equal(t, "alice", it.OwnerUserID)
	}
}

func TestGovernmentDashboardGlobalView(t *testing.T) {
	svc := seededService()

	view, err := svc.Government(context.Background(), identity.Principal{UserID: "clerk", Role: identity.RoleGovernment})
	require.NoError(t, err)

	assert.Equal(t, 3, view.Stats.Total)
	assert.Equal(t, 2, view.Stats.Urgent)
	require.Len(t, view.RecentIssues, 3)
	// Triage needs to know who filed each recent report.
	for _, it := range view.RecentIssues {
		assert.NotEmpty(t, it.AuthorName)
	}
}

func TestGovernmentDashboardForbiddenForCitizens(t *testing.T) {
	svc := seededService()

	_, err := svc.Government(context.Background(), identity.Principal{UserID: "alice", Role: identity.RoleCitizen})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRecentLimit(t *testing.T) {
	items := make([]issues.Issue, 0, 12)
	for i := 12; i > 0; i-- {
		items = append(items, issues.Issue{ID: int64(i), OwnerUserID: "clerk", Status: issues.StatusReported})
	}
	svc := NewService(&scopedIssueRepo{items: items}, fixedProfile{})

	view, err := svc.Government(context.Background(), identity.Principal{UserID: "clerk", Role: identity.RoleGovernment})
	require.NoError(t, err)
	assert.Len(t, view.RecentIssues, governmentRecentLimit)
	assert.Equal(t, int64(12), view.RecentIssues[0].ID)
}
