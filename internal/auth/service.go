package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/civiceye/civiceye/internal/identity"
	"github.com/civiceye/civiceye/internal/profiles"
	"github.com/civiceye/civiceye/internal/shared"
)

// RepositoryPort defines the credential store methods the service needs.
// Account creation writes the credential row and the profile row in one
// transaction.
type RepositoryPort interface {
	CreateAccount(ctx context.Context, u User, p profiles.Profile) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// ProfilePort is the slice of the profile repository session assembly uses.
type ProfilePort interface {
	GetByID(ctx context.Context, userID string) (*profiles.Profile, error)
}

// WelcomeMailer enqueues the post-registration email. Best effort: a broker
// outage must not fail a signup.
type WelcomeMailer interface {
	EnqueueWelcomeEmail(ctx context.Context, email, fullName string) error
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	AccessToken string            `json:"access_token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	User        *profiles.Profile `json:"user"`
}

// Service implements registration, login and logout.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	profiles ProfilePort
	tokens   *identity.JWTService
	revoked  *identity.RevocationStore
	mailer   WelcomeMailer
}

// NewService builds a Service instance. mailer may be nil when no job broker
// is wired, for example in tests.
func NewService(logger *slog.Logger, repo RepositoryPort, profileRepo ProfilePort, tokens *identity.JWTService, revoked *identity.RevocationStore, mailer WelcomeMailer) *Service {
	return &Service{logger: logger, repo: repo, profiles: profileRepo, tokens: tokens, revoked: revoked, mailer: mailer}
}

// Register creates the credential record and the public profile, then issues
// a first session. Duplicate emails report shared.ErrDuplicate.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	role, ok := identity.ParseRole(req.UserType)
	if !ok {
		role = identity.RoleCitizen
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	profile := profiles.Profile{ID: user.ID, Email: email, FullName: fullName, Role: string(role)}
	if err := s.repo.CreateAccount(ctx, user, profile); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.EnqueueWelcomeEmail(ctx, email, fullName); err != nil {
			s.logger.Warn("enqueue welcome email", slog.String("email", email), slog.Any("error", err))
		}
	}

	return s.session(ctx, user.ID)
}

// Login verifies the password and issues a session. Unknown email and wrong
// password collapse into the same invalid-credential fault.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredential
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, shared.ErrInvalidCredential
	}

	return s.session(ctx, user.ID)
}

// Logout blacklists the presented token for its remaining lifetime. The
// configured TTL is an upper bound on the remainder, so the entry always
// outlives the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.revoked.Revoke(ctx, token, s.tokens.TTL())
}

func (s *Service) session(ctx context.Context, userID string) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}

	var profile *profiles.Profile
	err = shared.WithScope(ctx, shared.ElevatedScope(), func(ctx context.Context) error {
		var err error
		profile, err = s.profiles.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Session{AccessToken: token, ExpiresAt: expiresAt, User: profile}, nil
}
