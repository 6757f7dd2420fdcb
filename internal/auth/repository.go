package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civiceye/civiceye/internal/platform/db"
	"github.com/civiceye/civiceye/internal/profiles"
	"github.com/civiceye/civiceye/internal/shared"
)

// Repository stores credential records. It belongs to the identity provider,
// so it sits outside the scoped data access layer: the users table holds no
// citizen-visible data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateAccount inserts the credential record and its public profile in one
// transaction. A failed profile insert rolls the credential row back, so a
// half-created account never blocks the email. A duplicate email reports
// shared.ErrDuplicate.
func (r *Repository) CreateAccount(ctx context.Context, u User, p profiles.Profile) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
			u.ID, u.Email, u.PasswordHash, now); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO profiles (id, email, full_name, role, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			p.ID, p.Email, p.FullName, p.Role, now)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

// FindByEmail looks up a credential record for login.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
