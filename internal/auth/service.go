package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasktrack/tasktrack/internal/shared"
	"github.com/tasktrack/tasktrack/internal/users"
)

// UserStore defines the user persistence used by authentication.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Create(ctx context.Context, user *users.User) error
}

var errPasswordTooLong = shared.Validationf("password must be at most %d bytes", MaxPasswordBytes)

// ServiceConfig toggles optional behaviour.
type ServiceConfig struct {
	// Revocation makes logout delete the live session record.
	Revocation bool
}

// Service wraps authentication business rules.
type Service struct {
	users    UserStore
	sessions SessionStore
	hasher   Hasher
	tokens   *TokenManager
	cfg      ServiceConfig
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(users UserStore, sessions SessionStore, hasher Hasher, tokens *TokenManager, cfg ServiceConfig) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		cfg:      cfg,
		now:      tokens.now,
	}
}

// NormalizeEmail canonicalises an email for lookups and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*users.User, error) {
	email := NormalizeEmail(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrEmailTaken
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: register lookup: %w", err)
	}

	if len(in.Password) > MaxPasswordBytes {
		return nil, errPasswordTooLong
	}
	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errPasswordTooLong
		}
		return nil, err
	}

	now := s.now().UTC()
	user := &users.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("auth: register: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues the single session token of the user.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, shared.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("auth: login lookup: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, shared.ErrInvalidCredentials
	}

	if _, err := s.sessions.Active(ctx, user.ID); err == nil {
		return Session{}, shared.ErrAlreadyLoggedIn
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Session{}, err
	}

	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	rec := SessionRecord{
		UserID:    user.ID,
		Token:     token,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	// A concurrent login may win between Active and Create; the store rejects the loser.
	if err := s.sessions.Create(ctx, rec); err != nil {
		return Session{}, err
	}
	return Session{UserID: user.ID, Token: token, ExpiresAt: rec.ExpiresAt}, nil
}

// Logout acknowledges a logout. Without revocation the token stays valid until it expires.
func (s *Service) Logout(ctx context.Context, actor *shared.Identity) error {
	if !s.cfg.Revocation || actor == nil {
		return nil
	}
	return s.sessions.Revoke(ctx, actor.UserID)
}

// RevocationEnabled reports whether logout and authentication consult the session store.
func (s *Service) RevocationEnabled() bool {
	return s.cfg.Revocation
}
