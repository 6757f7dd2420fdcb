package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiceye/civiceye/internal/shared"
)

// Repository provides PostgreSQL backed persistence for profiles. Every read
// and write runs under an active security scope; a self scope only reaches
// the caller's own row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RoleByUserID returns the stored role for a subject. Used by the credential
// resolver under an elevated scope before any role-gated operation runs.
func (r *Repository) RoleByUserID(ctx context.Context, userID string) (string, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return "", err
	}
	if !scope.Elevated() && scope.UserID() != userID {
		return "", shared.ErrNotFound
	}
	var role string
	err = r.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// GetByID fetches a profile visible under the active scope.
func (r *Repository) GetByID(ctx context.Context, userID string) (*Profile, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	if !scope.Elevated() && scope.UserID() != userID {
		return nil, shared.ErrNotFound
	}
	var p Profile
	err = r.pool.QueryRow(ctx, `SELECT id, email, full_name, role, created_at, updated_at FROM profiles WHERE id = $1`, userID).
		Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateFullName changes the display name on the caller's own profile.
func (r *Repository) UpdateFullName(ctx context.Context, userID, fullName string) (*Profile, error) {
	scope, err := shared.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	if !scope.Elevated() && scope.UserID() != userID {
		return nil, shared.ErrNotFound
	}
	var p Profile
	err = r.pool.QueryRow(ctx,
		`UPDATE profiles SET full_name = $2, updated_at = NOW() WHERE id = $1 RETURNING id, email, full_name, role, created_at, updated_at`,
		userID, fullName).
		Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
