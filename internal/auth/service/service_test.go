package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"kycdesk/internal/auth/models"
	"kycdesk/internal/auth/service/mocks"
	dErrors "kycdesk/pkg/domain-errors"
	"kycdesk/pkg/platform/sentinel"
	"kycdesk/pkg/requestcontext"
	"kycdesk/pkg/testutil"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx    context.Context
	users  *mocks.MockUserStore
	tokens *mocks.MockTokenIssuer
	svc    *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.users = mocks.NewMockUserStore(ctrl)
	s.tokens = mocks.NewMockTokenIssuer(ctrl)
	s.svc = New(s.users, s.tokens, time.Hour,
		WithBcryptCost(bcrypt.MinCost),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-auth")
}

func (s *AuthServiceSuite) hashed(password string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)
	return h
}

func (s *AuthServiceSuite) TestRegister() {
	t := s.T()
	expires := time.Now().Add(time.Hour)

	testutil.Given(t, "valid credentials", func(t *testing.T) {
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, u *models.User) error {
				assert.Equal(t, "ayu", u.Username)
				assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("s3cret-pass")))
				u.ID = 1
				u.Role = models.RoleAdmin
				return nil
			})
		s.tokens.EXPECT().GenerateAccessToken(int64(1), "ayu", "ADMIN", time.Hour).Return("tok", expires, nil)

		resp, err := s.svc.Register(s.ctx, models.Credentials{Username: "  ayu ", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, "tok", resp.Token)
		assert.Equal(t, models.RoleAdmin, resp.Role)
	})

	testutil.Given(t, "a short password", func(t *testing.T) {
		_, err := s.svc.Register(s.ctx, models.Credentials{Username: "ayu", Password: "short"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	testutil.Given(t, "a taken username", func(t *testing.T) {
		s.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
		_, err := s.svc.Register(s.ctx, models.Credentials{Username: "ayu", Password: "s3cret-pass"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *AuthServiceSuite) TestAuthenticate() {
	t := s.T()
	user := &models.User{ID: 3, Username: "budi", PasswordHash: s.hashed("correct-horse"), Role: models.RoleUser}

	testutil.Given(t, "the right password", func(t *testing.T) {
		s.users.EXPECT().FindByUsername(gomock.Any(), "budi").Return(user, nil)
		s.tokens.EXPECT().GenerateAccessToken(int64(3), "budi", "USER", time.Hour).Return("tok", time.Now(), nil)
		resp, err := s.svc.Authenticate(s.ctx, models.Credentials{Username: "budi", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.UserID)
	})

	testutil.Given(t, "a wrong password", func(t *testing.T) {
		s.users.EXPECT().FindByUsername(gomock.Any(), "budi").Return(user, nil)
		_, err := s.svc.Authenticate(s.ctx, models.Credentials{Username: "budi", Password: "wrong"})
		assert.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials))
	})

	testutil.Given(t, "an unknown user", func(t *testing.T) {
		s.users.EXPECT().FindByUsername(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)
		_, err := s.svc.Authenticate(s.ctx, models.Credentials{Username: "ghost", Password: "whatever1"})
		assert.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, invalidCredentials))
	})

	testutil.Given(t, "a failing store", func(t *testing.T) {
		s.users.EXPECT().FindByUsername(gomock.Any(), "budi").Return(nil, errors.New("connection reset"))
		_, err := s.svc.Authenticate(s.ctx, models.Credentials{Username: "budi", Password: "correct-horse"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *AuthServiceSuite) TestMe() {
	_, err := s.svc.Me(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	ctx := requestcontext.WithPrincipal(s.ctx, 3, "budi", "USER")
	s.users.EXPECT().FindByID(gomock.Any(), int64(3)).Return(&models.User{ID: 3, Username: "budi"}, nil)
	u, err := s.svc.Me(ctx)
	s.Require().NoError(err)
	s.Equal("budi", u.Username)
}
