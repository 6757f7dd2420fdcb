package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/shared"
	_ "github.com/civiceye/civiceye/testing"
)

// newTestRouter mounts the issue routes behind a middleware that injects the
// given principal, standing in for the credential resolver.
func newTestRouter(svc *Service, principal identity.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(identity.ContextWithPrincipal(req.Context(), principal)))
		})
	})
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)
	return r
}

func TestHandlerCreateIssue(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc, citizenAlice)

	body := `{"title":"Pothole","description":"Large pothole","category":"ROAD ","location":"Main St"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Message string `json:"message"`
		Issue   Issue  `json:"issue"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "road", resp.Issue.Category)
	assert.Equal(t, StatusReported, resp.Issue.Status)
	assert.Equal(t, PriorityMedium, resp.Issue.Priority)
}

// wrappingIdempotency returns its conflict sentinel wrapped, the way a store
// built on fmt.Errorf would.
type wrappingIdempotency struct {
	seen map[string]bool
}

func (f *wrappingIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if f.seen[key] {
		return fmt.Errorf("key %q: %w", key, shared.ErrIdempotencyConflict)
	}
	f.seen[key] = true
	return nil
}

func (f *wrappingIdempotency) Delete(_ context.Context, key string) error {
	delete(f.seen, key)
	return nil
}

func TestHandlerDuplicateSubmission(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, nil, nil, &wrappingIdempotency{seen: map[string]bool{}})
	router := newTestRouter(svc, citizenAlice)

	body := `{"title":"Pothole","description":"d","category":"road","location":"l"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "submit-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, want, rr.Code, "request %d", i)
	}
	assert.Len(t, repo.issues, 1)
}

func TestHandlerCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc, citizenAlice)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"only a title"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Validation failed")
}

func TestHandlerCitizenUpdateForbidden(t *testing.T) {
	svc, repo := newTestService()
	issue := seedIssue(t, svc, citizenAlice)
	router := newTestRouter(svc, citizenAlice)

	req := httptest.NewRequest(http.MethodPut, "/1", strings.NewReader(`{"status":"resolved"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Access denied")
	assert.Equal(t, StatusReported, repo.issues[issue.ID].Status)
}

func TestHandlerGovernmentUpdate(t *testing.T) {
	svc, _ := newTestService()
	issue := seedIssue(t, svc, citizenAlice)
	router := newTestRouter(svc, govClerk)

	req := httptest.NewRequest(http.MethodPut, "/1", strings.NewReader(`{"status":"resolved"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Issue Issue `json:"issue"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, issue.ID, resp.Issue.ID)
	assert.Equal(t, StatusResolved, resp.Issue.Status)
}

func TestHandlerUpdateMissingIssue(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc, govClerk)

	req := httptest.NewRequest(http.MethodPut, "/42", strings.NewReader(`{"status":"resolved"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerUpdateEmptyBody(t *testing.T) {
	svc, _ := newTestService()
	seedIssue(t, svc, citizenAlice)
	router := newTestRouter(svc, govClerk)

	req := httptest.NewRequest(http.MethodPut, "/1", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No valid fields to update")
}

func TestHandlerListScoped(t *testing.T) {
	svc, _ := newTestService()
	seedIssue(t, svc, citizenAlice)
	seedIssue(t, svc, citizenBob)
	router := newTestRouter(svc, citizenAlice)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Issues []Issue `json:"issues"`
		Count  int     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "alice", resp.Issues[0].OwnerUserID)
}

func TestHandlerInvalidID(t *testing.T) {
	svc, _ := newTestService()
	router := newTestRouter(svc, citizenAlice)

	req := httptest.NewRequest(http.MethodGet, "/not-a-number", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func seedIssue(t *testing.T, svc *Service, owner identity.Principal) *Issue {
	t.Helper()
	issue, err := svc.Create(context.Background(), owner, CreateIssueRequest{
		Title: "t", Description: "d", Category: "road", Location: "l",
	}, "")
	require.NoError(t, err)
	return issue
}
