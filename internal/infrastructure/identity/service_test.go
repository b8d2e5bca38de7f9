package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/studyplan-hub/studyplan-hub/internal/domain/shared"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*User // keyed by email
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*User)}
}

func (r *memUserRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return shared.ErrUserAlreadyExists
	}
	cp := *u
	r.users[u.Email] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]string)}
}

func (s *memTokenStore) Save(_ context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return nil
}

func (s *memTokenStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", shared.ErrSessionExpired
	}
	return userID, nil
}

func (s *memTokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *memPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func newTestService() *Service {
	log := logger.New(logger.Options{Level: logger.LevelFatal})
	// Cost 4 keeps bcrypt fast in tests.
	return NewService(newMemUserRepo(), newMemTokenStore(), nil, log, 4)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ada@Example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	token, userID, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Len(t, token, tokenBytes*2)

	resolved, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, resolved)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ADA@example.com", "battery staple")
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestRegister_RejectsWeakInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Register(ctx, "ada@example.com", "short")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Unknown account yields the same error as a wrong password.
	_, _, unknownErr := svc.Login(ctx, "ghost@example.com", "wrong")
	assert.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, shared.ErrSessionExpired)

	// Logging out twice is a no-op.
	assert.NoError(t, svc.Logout(ctx, token))
}

func TestIdentityEventsArePublished(t *testing.T) {
	pub := &memPublisher{}
	log := logger.New(logger.Options{Level: logger.LevelFatal})
	svc := NewService(newMemUserRepo(), newMemTokenStore(), pub, log, 4)
	ctx := context.Background()

	u, err := svc.Register(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, token))

	assert.Equal(t, []shared.EventType{
		shared.EventUserRegistered,
		shared.EventUserSignedIn,
		shared.EventUserSignedOut,
	}, pub.types())

	// Every published event carries the user in its payload.
	for _, e := range pub.events {
		assert.Equal(t, u.ID, e.AggregateID())
		assert.Equal(t, u.ID, e.Payload()["user_id"])
	}
}
