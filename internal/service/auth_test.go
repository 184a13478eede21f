package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, repo *MockUserRepository) (*AuthService, *security.PasswordHasher, *security.JWTManager) {
	t.Helper()
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	jwtManager, err := security.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return NewAuthService(repo, hasher, jwtManager, nil), hasher, jwtManager
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success normalizes email and hashes password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, hasher, _ := newAuthService(t, repo)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := svc.Register(ctx, domain.UserCreate{Name: " Ada ", Email: "  Ada@Example.COM ", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "Ada", user.Name)
		assert.NotEqual(t, "secret1", user.PasswordHash)
		assert.True(t, hasher.Verify("secret1", user.PasswordHash))
		assert.False(t, user.IsEmailVerified)
		assert.NotEqual(t, uuid.Nil, user.ID)

		repo.AssertExpectations(t)
	})

	t.Run("trims name before the length check", func(t *testing.T) {
		for _, name := range []string{" x ", "   ", "\ta\t"} {
			repo := new(MockUserRepository)
			svc, _, _ := newAuthService(t, repo)

			_, err := svc.Register(ctx, domain.UserCreate{Name: name, Email: "ada@example.com", Password: "secret1"})
			assert.ErrorIs(t, err, domain.ErrValidation, "name %q", name)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		}
	})

	t.Run("stamps times from the injected clock", func(t *testing.T) {
		repo := new(MockUserRepository)
		hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
		require.NoError(t, err)
		jwtManager, err := security.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		require.NoError(t, err)
		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc := NewAuthService(repo, hasher, jwtManager, func() time.Time { return fixed })
		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := svc.Register(ctx, domain.UserCreate{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, fixed, user.CreatedAt)
		assert.Equal(t, fixed, user.UpdatedAt)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newAuthService(t, repo)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(domain.ErrEmailTaken)

		_, err := svc.Register(ctx, domain.UserCreate{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := newAuthService(t, repo)

		repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(errors.New("connection refused"))

		_, err := svc.Register(ctx, domain.UserCreate{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
		assert.ErrorContains(t, err, "failed to create user")
		assert.NotErrorIs(t, err, domain.ErrEmailTaken)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	repo := new(MockUserRepository)
	svc, hasher, jwtManager := newAuthService(t, repo)

	hash, err := hasher.Hash("secret1")
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", PasswordHash: hash}

	repo.On("GetByEmail", ctx, "ada@example.com").Return(user, nil)
	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

	t.Run("success", func(t *testing.T) {
		got, pair, err := svc.Login(ctx, domain.UserLogin{Email: "ADA@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := jwtManager.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.Email, claims.Email)

		refreshClaims, err := jwtManager.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, refreshClaims.UserID)
	})

	t.Run("wrong password and unknown email are the same error", func(t *testing.T) {
		_, _, wrongPassword := svc.Login(ctx, domain.UserLogin{Email: "ada@example.com", Password: "nope"})
		_, _, unknownEmail := svc.Login(ctx, domain.UserLogin{Email: "ghost@example.com", Password: "secret1"})

		assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
		assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})

	t.Run("store failure", func(t *testing.T) {
		failing := new(MockUserRepository)
		svc, _, _ := newAuthService(t, failing)
		failing.On("GetByEmail", ctx, "ada@example.com").Return(nil, errors.New("timeout"))

		_, _, err := svc.Login(ctx, domain.UserLogin{Email: "ada@example.com", Password: "secret1"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	repo := new(MockUserRepository)
	svc, _, jwtManager := newAuthService(t, repo)

	user := &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}
	gone := &domain.User{ID: uuid.New(), Email: "gone@example.com"}
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("GetByID", ctx, gone.ID).Return(nil, nil)

	t.Run("rotates the pair", func(t *testing.T) {
		refresh, _, err := jwtManager.IssueRefresh(user)
		require.NoError(t, err)

		got, pair, err := svc.Refresh(ctx, refresh)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		claims, err := jwtManager.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		access, _, err := jwtManager.IssueAccess(user)
		require.NoError(t, err)

		_, _, err = svc.Refresh(ctx, access)
		assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("user deleted since issue", func(t *testing.T) {
		refresh, _, err := jwtManager.IssueRefresh(gone)
		require.NoError(t, err)

		_, _, err = svc.Refresh(ctx, refresh)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
