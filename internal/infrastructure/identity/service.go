// Package identity implements registration, login, and token-based
// authentication for StudyPlan Hub. The rest of the system consumes only
// the stable user ID this package yields.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER MODEL AND CONTRACTS
// ══════════════════════════════════════════════════════════════════════════════

// User is an authentication account. Progression state lives in the profile
// aggregate, keyed by User.ID.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines the storage contract for users.
type UserRepository interface {
	// Create inserts a new user.
	// Returns shared.ErrUserAlreadyExists when the email is taken.
	Create(ctx context.Context, u *User) error

	// GetByEmail returns a user by email.
	// Returns shared.ErrUserNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID returns a user by ID.
	// Returns shared.ErrUserNotFound when absent.
	GetByID(ctx context.Context, id string) (*User, error)
}

// TokenStore defines the contract for opaque session tokens.
type TokenStore interface {
	// Save stores a token for a user.
	Save(ctx context.Context, token, userID string) error

	// Resolve returns the user ID for a token.
	// Returns shared.ErrSessionExpired for unknown or expired tokens.
	Resolve(ctx context.Context, token string) (string, error)

	// Revoke deletes a token.
	Revoke(ctx context.Context, token string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// tokenBytes is the entropy of a session token (hex-encoded to 64 chars).
const tokenBytes = 32

// minPasswordLength rejects trivially guessable passwords at registration.
const minPasswordLength = 8

// Service provides register/login/authenticate operations.
type Service struct {
	users      UserRepository
	tokens     TokenStore
	publisher  shared.EventPublisher
	log        *logger.Logger
	bcryptCost int
}

// NewService creates a new identity Service. A non-positive bcryptCost falls
// back to bcrypt.DefaultCost.
func NewService(users UserRepository, tokens TokenStore, publisher shared.EventPublisher, log *logger.Logger, bcryptCost int) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		publisher:  publisher,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new account and returns the user.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, shared.ErrInvalidInput
	}
	if len(password) < minPasswordLength {
		return nil, shared.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info("user registered", logger.UserID(u.ID))
	s.publish(shared.NewIdentityEvent(shared.EventUserRegistered, u.ID))

	return u, nil
}

// Login verifies credentials and returns a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (token, userID string, err error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if shared.IsNotFound(err) {
			// Same error as a wrong password so the response does not
			// reveal whether the account exists.
			return "", "", shared.ErrInvalidCredentials
		}
		return "", "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", "", shared.ErrInvalidCredentials
	}

	token, err = newToken()
	if err != nil {
		return "", "", err
	}

	if err := s.tokens.Save(ctx, token, u.ID); err != nil {
		return "", "", err
	}

	s.log.Info("user signed in", logger.UserID(u.ID))
	s.publish(shared.NewIdentityEvent(shared.EventUserSignedIn, u.ID))

	return token, u.ID, nil
}

// Authenticate resolves a session token to a user ID.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	return s.tokens.Resolve(ctx, token)
}

// Logout revokes a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		// Already expired; logout is idempotent.
		return nil
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}

	s.publish(shared.NewIdentityEvent(shared.EventUserSignedOut, userID))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn("failed to publish identity event", logger.Err(err))
	}
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
