package issues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiceye/civiceye/internal/platform/db"
	"github.com/civiceye/civiceye/internal/shared"
)

// Repository provides PostgreSQL backed persistence for issues and comments.
// Every method requires an active security scope; a self scope restricts
// visible and affected rows to the owning user.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const issueColumns = `i.id, i.user_id, i.title, i.description, i.category, i.location,
	i.priority, i.status, i.assignee, i.notes, i.is_anonymous, i.language, i.image_url,
	i.created_at, i.updated_at`

func scanIssue(row pgx.Row, withAuthor bool) (*Issue, error) {
	var it Issue
	dest := []any{
		&it.ID, &it.OwnerUserID, &it.Title, &it.Description, &it.Category, &it.Location,
		&it.Priority, &it.Status, &it.Assignee, &it.Notes, &it.IsAnonymous, &it.Language, &it.ImageURLs,
		&it.CreatedAt, &it.UpdatedAt,
	}
	if withAuthor {
		dest = append(dest, &it.AuthorName)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// Create inserts a new issue. A self scope may only insert rows it owns.
func (r *Repository) Create(ctx context.Context, it *Issue) error {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return err
	}
	if !scope.Elevated() && scope.UserID() != it.OwnerUserID {
		return shared.ErrForbidden
	}
	now := time.Now().UTC()
	err = r.pool.QueryRow(ctx,
		`INSERT INTO issues (user_id, title, description, category, location, priority, status,
			assignee, notes, is_anonymous, language, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		 RETURNING id, created_at, updated_at`,
		it.OwnerUserID, it.Title, it.Description, it.Category, it.Location, it.Priority, it.Status,
		it.Assignee, it.Notes, it.IsAnonymous, it.Language, it.ImageURLs, now).
		Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	return err
}

// List returns issues visible under the active scope, newest first. Elevated
// listings join the author's display name so triage views can show who filed
// each report; a self scope only ever lists the caller's own rows, so the
// join is skipped there.
func (r *Repository) List(ctx context.Context, f ListFilters) ([]Issue, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	withAuthor := scope.Elevated()

	var (
		conds []string
		args  []any
	)
	if !scope.Elevated() {
		args = append(args, scope.UserID())
		conds = append(conds, fmt.Sprintf("i.user_id = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, NormalizeCategory(f.Category))
		conds = append(conds, fmt.Sprintf("i.category = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(f.Status)))
		conds = append(conds, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(f.Priority)))
		conds = append(conds, fmt.Sprintf("i.priority = $%d", len(args)))
	}

	query := `SELECT ` + issueColumns
	if withAuthor {
		query += `, COALESCE(p.full_name, '')`
	}
	query += ` FROM issues i`
	if withAuthor {
		query += ` LEFT JOIN profiles p ON p.id = i.user_id`
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY i.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Issue, 0)
	for rows.Next() {
		it, err := scanIssue(rows, withAuthor)
		if err != nil {
			return nil, err
		}
		if it.IsAnonymous {
			it.AuthorName = ""
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetByID fetches one issue with its author's display name. Rows outside the
// active scope report ErrNotFound, never ErrForbidden, so existence does not
// leak.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Issue, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + issueColumns + `, COALESCE(p.full_name, '')
		FROM issues i
		LEFT JOIN profiles p ON p.id = i.user_id
		WHERE i.id = $1`
	args := []any{id}
	if !scope.Elevated() {
		query += " AND i.user_id = $2"
		args = append(args, scope.UserID())
	}

	it, err := scanIssue(r.pool.QueryRow(ctx, query, args...), true)
	if err != nil {
		return nil, err
	}
	if it.IsAnonymous {
		it.AuthorName = ""
	}
	return it, nil
}

// UpdateFields is the column set a triage update may touch.
type UpdateFields struct {
	Status   *string
	Priority *string
	Assignee *string
	Notes    *string
}

// Update applies triage fields and refreshes updated_at. Requires an
// elevated scope: triage never runs under a self scope.
func (r *Repository) Update(ctx context.Context, id int64, fields UpdateFields) (*Issue, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	if !scope.Elevated() {
		return nil, shared.ErrForbidden
	}

	sets := []string{}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.Status != nil {
		add("status", *fields.Status)
	}
	if fields.Priority != nil {
		add("priority", *fields.Priority)
	}
	if fields.Assignee != nil {
		add("assignee", *fields.Assignee)
	}
	if fields.Notes != nil {
		add("notes", *fields.Notes)
	}
	if len(sets) == 0 {
		return nil, shared.ErrNoFieldsToUpdate
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE issues i SET %s WHERE i.id = $1 RETURNING `+issueColumns,
		strings.Join(sets, ", "))
	return scanIssue(r.pool.QueryRow(ctx, query, args...), false)
}

// issueVisible reports whether the parent issue exists under the scope.
func issueVisible(ctx context.Context, q querier, scope shared.Scope, issueID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM issues WHERE id = $1`
	args := []any{issueID}
	if !scope.Elevated() {
		query += " AND user_id = $2"
		args = append(args, scope.UserID())
	}
	query += ")"
	var visible bool
	err := q.QueryRow(ctx, query, args...).Scan(&visible)
	return visible, err
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AddComment inserts a comment after confirming the parent issue is visible
// under the active scope. Check and insert share one transaction so the
// parent cannot vanish between them.
func (r *Repository) AddComment(ctx context.Context, c *Comment) error {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return err
	}
	if !scope.Elevated() && scope.UserID() != c.AuthorUserID {
		return shared.ErrForbidden
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		visible, err := issueVisible(ctx, tx, scope, c.IssueID)
		if err != nil {
			return err
		}
		if !visible {
			return shared.ErrNotFound
		}
		return tx.QueryRow(ctx,
			`INSERT INTO issue_comments (issue_id, author_user_id, body, created_at)
			 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
			c.IssueID, c.AuthorUserID, c.Body, time.Now().UTC()).
			Scan(&c.ID, &c.CreatedAt)
	})
}

// ListComments returns the comments on a visible issue, newest first, joined
// with author display names.
func (r *Repository) ListComments(ctx context.Context, issueID int64) ([]Comment, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	visible, err := issueVisible(ctx, r.pool, scope, issueID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, shared.ErrNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.issue_id, c.author_user_id, COALESCE(p.full_name, ''), c.body, c.created_at
		 FROM issue_comments c
		 LEFT JOIN profiles p ON p.id = c.author_user_id
		 WHERE c.issue_id = $1
		 ORDER BY c.created_at DESC`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorUserID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
