package issues

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/shared"
)

// RepositoryPort defines data access methods for issues.
type RepositoryPort interface {
	Create(ctx context.Context, it *Issue) error
	List(ctx context.Context, f ListFilters) ([]Issue, error)
	GetByID(ctx context.Context, id int64) (*Issue, error)
	Update(ctx context.Context, id int64, fields UpdateFields) (*Issue, error)
	AddComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, issueID int64) ([]Comment, error)
}

// Auditor records triage actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier enqueues an update notification for the issue owner.
type Notifier interface {
	EnqueueIssueUpdate(ctx context.Context, issueID int64, ownerUserID string, status string) error
}

// IdempotencyChecker deduplicates retried create submissions.
type IdempotencyChecker interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service handles issue business logic: validation, scope selection and
// role gating. Role checks always run before any mutating call.
type Service struct {
	logger      *slog.Logger
	repo        RepositoryPort
	audit       Auditor
	notifier    Notifier
	idempotency IdempotencyChecker
}

// NewService builds a Service instance. audit, notifier and idempotency may
// be nil when the corresponding infrastructure is not wired.
func NewService(logger *slog.Logger, repo RepositoryPort, audit Auditor, notifier Notifier, idempotency IdempotencyChecker) *Service {
	return &Service{logger: logger, repo: repo, audit: audit, notifier: notifier, idempotency: idempotency}
}

// scopeFor picks the scope the caller-role policy allows: government reads
// run elevated, everyone else stays inside their own rows.
func scopeFor(principal identity.Principal) shared.Scope {
	if principal.Government() {
		return shared.ElevatedScope()
	}
	return shared.SelfScope(principal.UserID)
}

// Create stores a new report owned by the caller. Status is always forced to
// reported and priority defaults to medium.
func (s *Service) Create(ctx context.Context, principal identity.Principal, req CreateIssueRequest, idempotencyKey string) (*Issue, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	category := NormalizeCategory(req.Category)
	location := strings.TrimSpace(req.Location)
	if title == "" || description == "" || category == "" || location == "" {
		return nil, fmt.Errorf("%w: title, description, category and location are required", shared.ErrValidation)
	}

	priority, ok := ParsePriority(req.Priority)
	if !ok {
		priority = PriorityMedium
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = DefaultLanguage
	}

	images := make([]string, 0, len(req.ImageURLs))
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}

	if s.idempotency != nil && idempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "issues"); err != nil {
			return nil, err
		}
	}

	issue := &Issue{
		OwnerUserID: principal.UserID,
		Title:       title,
		Description: description,
		Category:    category,
		Location:    location,
		Priority:    priority,
		Status:      StatusReported,
		IsAnonymous: req.IsAnonymous,
		Language:    language,
		ImageURLs:   images,
	}
	err := shared.WithScope(ctx, shared.SelfScope(principal.UserID), func(ctx context.Context) error {
		return s.repo.Create(ctx, issue)
	})
	if err != nil {
		if s.idempotency != nil && idempotencyKey != "" {
			if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", delErr))
			}
		}
		return nil, err
	}
	return issue, nil
}

// List returns the issues visible to the caller, newest first.
func (s *Service) List(ctx context.Context, principal identity.Principal, f ListFilters) ([]Issue, error) {
	var items []Issue
	err := shared.WithScope(ctx, scopeFor(principal), func(ctx context.Context) error {
		var err error
		items, err = s.repo.List(ctx, f)
		return err
	})
	return items, err
}

// Get returns one issue if the caller may see it.
func (s *Service) Get(ctx context.Context, principal identity.Principal, id int64) (*Issue, error) {
	var issue *Issue
	err := shared.WithScope(ctx, scopeFor(principal), func(ctx context.Context) error {
		var err error
		issue, err = s.repo.GetByID(ctx, id)
		return err
	})
	return issue, err
}

// Update applies triage fields. Only government principals may call it; the
// role check runs before anything reaches storage.
func (s *Service) Update(ctx context.Context, principal identity.Principal, id int64, req UpdateIssueRequest) (*Issue, error) {
	if !principal.Government() {
		return nil, shared.ErrForbidden
	}
	if req.Empty() {
		return nil, shared.ErrNoFieldsToUpdate
	}

	fields := UpdateFields{Assignee: req.Assignee, Notes: req.Notes}
	if req.Status != nil {
		status, ok := ParseStatus(*req.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *req.Status)
		}
		v := string(status)
		fields.Status = &v
	}
	if req.Priority != nil {
		priority, ok := ParsePriority(*req.Priority)
		if !ok {
			return nil, fmt.Errorf("%w: unknown priority %q", shared.ErrValidation, *req.Priority)
		}
		v := string(priority)
		fields.Priority = &v
	}

	var issue *Issue
	err := shared.WithScope(ctx, shared.ElevatedScope(), func(ctx context.Context) error {
		var err error
		issue, err = s.repo.Update(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordTriage(ctx, principal, issue, fields)
	if s.notifier != nil && fields.Status != nil {
		if err := s.notifier.EnqueueIssueUpdate(ctx, issue.ID, issue.OwnerUserID, *fields.Status); err != nil {
			s.logger.Warn("enqueue issue notification", slog.Int64("issue_id", issue.ID), slog.Any("error", err))
		}
	}
	return issue, nil
}

func (s *Service) recordTriage(ctx context.Context, principal identity.Principal, issue *Issue, fields UpdateFields) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{}
	if fields.Status != nil {
		meta["status"] = *fields.Status
	}
	if fields.Priority != nil {
		meta["priority"] = *fields.Priority
	}
	if fields.Assignee != nil {
		meta["assignee"] = *fields.Assignee
	}
	if fields.Notes != nil {
		meta["notes"] = *fields.Notes
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  principal.UserID,
		Action:   "issue.update",
		Entity:   "issue",
		EntityID: fmt.Sprintf("%d", issue.ID),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("record audit log", slog.Int64("issue_id", issue.ID), slog.Any("error", err))
	}
}

// AddComment attaches a comment to an issue the caller can see.
func (s *Service) AddComment(ctx context.Context, principal identity.Principal, issueID int64, req AddCommentRequest) (*Comment, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is required", shared.ErrValidation)
	}

	comment := &Comment{IssueID: issueID, AuthorUserID: principal.UserID, Body: body}
	err := shared.WithScope(ctx, scopeFor(principal), func(ctx context.Context) error {
		return s.repo.AddComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments on an issue the caller can see, newest
// first.
func (s *Service) ListComments(ctx context.Context, principal identity.Principal, issueID int64) ([]Comment, error) {
	var comments []Comment
	err := shared.WithScope(ctx, scopeFor(principal), func(ctx context.Context) error {
		var err error
		comments, err = s.repo.ListComments(ctx, issueID)
		return err
	})
	return comments, err
}
