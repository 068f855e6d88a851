// Package service registers dashboard operators and issues their tokens.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kycdesk/internal/auth/models"
	"kycdesk/internal/platform/metrics"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/sentinel"
	"kycdesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,TokenIssuer

// UserStore persists users. Create assigns the ID and the role.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, username, role string, expiresIn time.Duration) (string, time.Time, error)
}

const invalidCredentials = "invalid credentials"

// dummyHash keeps unknown-user logins as slow as wrong-password logins.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("kycdesk-timing-placeholder"), bcrypt.DefaultCost)

type Service struct {
	users    UserStore
	tokens   TokenIssuer
	tokenTTL time.Duration
	cost     int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func New(users UserStore, tokens TokenIssuer, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		cost:     bcrypt.DefaultCost,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an operator and signs them in.
func (s *Service) Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	requestID := requestcontext.RequestID(ctx)
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	user := &models.User{
		Username:     creds.Username,
		PasswordHash: hash,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "username already taken")
		}
		s.logger.ErrorContext(ctx, "failed to create user",
			"error", err,
			"request_id", requestID,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", string(user.Role),
		"request_id", requestID,
	)
	return s.issue(ctx, user)
}

// Authenticate checks a username and password. Every failure looks the same
// to the caller.
func (s *Service) Authenticate(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	requestID := requestcontext.RequestID(ctx)
	user, err := s.users.FindByUsername(ctx, creds.Username)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to load user",
			"error", err,
			"request_id", requestID,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to authenticate")
	}

	hash := dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(creds.Password))
	if user == nil || cmpErr != nil {
		s.metrics.IncrementLoginFailures()
		s.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
	}
	return s.issue(ctx, user)
}

// Me returns the user behind the authenticated request.
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	id := requestcontext.UserID(ctx)
	if id == 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) issue(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role), s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sign token",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.AuthResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}
