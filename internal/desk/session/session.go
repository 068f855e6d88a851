// Package session holds the console's authenticated state. A Session is
// created explicitly and passed to whatever needs it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	authmodels "kycdesk/internal/auth/models"
)

// ErrNoSession is returned by a Storage with nothing persisted.
var ErrNoSession = errors.New("no stored session")

// User is the signed-in operator.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// State is what a Storage persists.
type State struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Storage persists the session between console runs.
type Storage interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state State) error
	Clear(ctx context.Context) error
}

// Session is the in-memory view over a Storage.
type Session struct {
	mu     sync.RWMutex
	store  Storage
	state  *State
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock overrides the expiry clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(store Storage, opts ...Option) *Session {
	s := &Session{store: store, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init hydrates from storage. An expired or unreadable session is discarded.
func (s *Session) Init(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable session", "error", err)
		return s.store.Clear(ctx)
	}
	if state.Token == "" || (!state.ExpiresAt.IsZero() && !s.now().Before(state.ExpiresAt)) {
		return s.store.Clear(ctx)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Login stores the token and user from an auth response.
func (s *Session) Login(ctx context.Context, resp authmodels.AuthResponse) error {
	state := State{
		Token:     resp.Token,
		User:      User{ID: resp.UserID, Username: resp.Username, Role: string(resp.Role)},
		ExpiresAt: resp.ExpiresAt,
	}
	if err := s.store.Save(ctx, state); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = &state
	s.mu.Unlock()
	return nil
}

// Logout clears memory first so the session is gone even if storage fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = nil
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil && s.state.Token != ""
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return ""
	}
	return s.state.Token
}

// User returns the signed-in operator, or false.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return User{}, false
	}
	return s.state.User, true
}
