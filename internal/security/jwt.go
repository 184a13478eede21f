package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/task-manager/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "task-manager"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"typ"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token operations. Access and refresh tokens are
// signed with different secrets.
type JWTManager struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// Option configures a JWTManager
type Option func(*JWTManager)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) {
		m.now = now
	}
}

// NewJWTManager creates a new JWT manager. Missing or identical secrets and
// non-positive lifetimes are configuration errors.
func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*JWTManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("%w: JWT secrets not configured", domain.ErrConfiguration)
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", domain.ErrConfiguration)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", domain.ErrConfiguration)
	}

	m := &JWTManager{
		accessSecret:    []byte(accessSecret),
		refreshSecret:   []byte(refreshSecret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// IssueAccess mints an access token from the user's current record
func (m *JWTManager) IssueAccess(user *domain.User) (string, time.Time, error) {
	return m.sign(m.accessSecret, Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenTypeAccess,
	}, m.accessTokenTTL)
}

// IssueRefresh mints a refresh token for the user
func (m *JWTManager) IssueRefresh(user *domain.User) (string, time.Time, error) {
	return m.sign(m.refreshSecret, Claims{
		UserID:    user.ID,
		TokenType: tokenTypeRefresh,
	}, m.refreshTokenTTL)
}

// IssuePair generates both access and refresh tokens
func (m *JWTManager) IssuePair(user *domain.User) (*domain.TokenPair, error) {
	access, accessExp, err := m.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, refreshExp, err := m.IssueRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess validates an access token and returns the claims
func (m *JWTManager) VerifyAccess(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.accessSecret, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns the claims
func (m *JWTManager) VerifyRefresh(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.refreshSecret, tokenTypeRefresh)
}

// AccessTokenTTL returns the access token TTL
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.accessTokenTTL
}

// RefreshTokenTTL returns the refresh token TTL
func (m *JWTManager) RefreshTokenTTL() time.Duration {
	return m.refreshTokenTTL
}

func (m *JWTManager) sign(secret []byte, claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID.String(),
		ExpiresAt: expiresAt,
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}

	// NumericDate truncates to whole seconds; report what was actually signed.
	return signed, expiresAt.Time, nil
}

func (m *JWTManager) verify(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		// The signature is checked before the claims, so only an authentic
		// token can be reported as expired.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: token type mismatch: %s", domain.ErrTokenInvalid, claims.TokenType)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrTokenInvalid)
	}

	return claims, nil
}
