package security_test

import (
	"testing"
	"time"

	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "test-access-secret-with-32-chars"
	refreshSecret = "test-refresh-secret-with-32-char"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newManager(t *testing.T, clock *fakeClock) *security.JWTManager {
	t.Helper()
	manager, err := security.NewJWTManager(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour, security.WithClock(clock.Now))
	require.NoError(t, err)
	return manager
}

func testUser() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}
}

func TestJWTManager_IssueAndVerify(t *testing.T) {
	clock := newClock()
	manager := newManager(t, clock)
	user := testUser()

	pair, err := manager.IssuePair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, clock.t.Add(15*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), pair.RefreshExpiresAt)

	claims, err := manager.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)

	refreshClaims, err := manager.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshClaims.UserID)
	assert.Empty(t, refreshClaims.Email)
}

func TestJWTManager_TokensAreNotInterchangeable(t *testing.T) {
	manager := newManager(t, newClock())

	pair, err := manager.IssuePair(testUser())
	require.NoError(t, err)

	_, err = manager.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = manager.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := newManager(t, newClock())

	_, err := manager.VerifyAccess("invalid-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = manager.VerifyAccess("")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	other, err := security.NewJWTManager("different-access-secret-32-chars", refreshSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	token, _, err := other.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = manager.VerifyAccess(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestJWTManager_ExpiryBoundary(t *testing.T) {
	clock := newClock()
	manager := newManager(t, clock)

	token, expiresAt, err := manager.IssueAccess(testUser())
	require.NoError(t, err)

	clock.t = expiresAt.Add(-time.Second)
	_, err = manager.VerifyAccess(token)
	require.NoError(t, err)

	clock.t = expiresAt
	_, err = manager.VerifyAccess(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	clock.t = expiresAt.Add(time.Hour)
	_, err = manager.VerifyAccess(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestJWTManager_ExpiredForgeryIsInvalid(t *testing.T) {
	clock := newClock()
	forger, err := security.NewJWTManager("attacker-secret-attacker-secret!", refreshSecret, time.Minute, time.Hour, security.WithClock(clock.Now))
	require.NoError(t, err)
	token, _, err := forger.IssueAccess(testUser())
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	_, err = newManager(t, clock).VerifyAccess(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
	assert.NotErrorIs(t, err, domain.ErrTokenExpired)
}

func TestNewJWTManager_Configuration(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		ttl     time.Duration
	}{
		{name: "missing access secret", access: "", refresh: refreshSecret, ttl: time.Minute},
		{name: "missing refresh secret", access: accessSecret, refresh: "", ttl: time.Minute},
		{name: "identical secrets", access: accessSecret, refresh: accessSecret, ttl: time.Minute},
		{name: "zero ttl", access: accessSecret, refresh: refreshSecret, ttl: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := security.NewJWTManager(tt.access, tt.refresh, tt.ttl, time.Hour)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestJWTManager_TTLs(t *testing.T) {
	manager, err := security.NewJWTManager(accessSecret, refreshSecret, 30*time.Minute, 48*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, manager.AccessTokenTTL())
	assert.Equal(t, 48*time.Hour, manager.RefreshTokenTTL())
}

func BenchmarkJWTIssueAccess(b *testing.B) {
	manager, _ := security.NewJWTManager(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour)
	user := testUser()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = manager.IssueAccess(user)
	}
}
