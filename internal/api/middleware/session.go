package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Rrens/task-manager/internal/api/cookie"
	"github.com/Rrens/task-manager/internal/api/response"
	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Rejection reasons written in the 401 body
const (
	ReasonRefreshMissing = "refresh token missing"
	ReasonInvalidAccess  = "invalid access token"
	ReasonInvalidRefresh = "invalid or expired refresh token"
	ReasonUserNotFound   = "user not found"
)

// Outcomes recorded in the session metric
const (
	outcomeAccessValid    = "access_valid"
	outcomeRefreshed      = "refreshed"
	outcomeRefreshMissing = "refresh_missing"
	outcomeInvalidAccess  = "invalid_access"
	outcomeInvalidRefresh = "invalid_refresh"
	outcomeUserNotFound   = "user_not_found"
	outcomeError          = "error"
)

// TokenVerifier is the subset of the token service the session needs
type TokenVerifier interface {
	VerifyAccess(token string) (*security.Claims, error)
	VerifyRefresh(token string) (*security.Claims, error)
	IssueAccess(user *domain.User) (string, time.Time, error)
}

// UserLookup resolves the user named by a token
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Session authenticates requests from the token cookies and transparently
// renews an expired access token from a valid refresh token.
type Session struct {
	tokens        TokenVerifier
	users         UserLookup
	cookies       *cookie.Transport
	lookupTimeout time.Duration
	metrics       *Metrics
}

// NewSession creates the session middleware. metrics may be nil.
func NewSession(tokens TokenVerifier, users UserLookup, cookies *cookie.Transport, lookupTimeout time.Duration, metrics *Metrics) *Session {
	return &Session{
		tokens:        tokens,
		users:         users,
		cookies:       cookies,
		lookupTimeout: lookupTimeout,
		metrics:       metrics,
	}
}

type result struct {
	user    *domain.User
	reason  string
	outcome string
}

// Authenticate rejects the request with 401 unless it carries a usable session
func (s *Session) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		res, err := s.resolve(w, r)
		if err != nil {
			s.metrics.observeSession(outcomeError)
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("session lookup failed")
			response.InternalError(w, "internal server error")
			return
		}

		s.metrics.observeSession(res.outcome)
		if res.user == nil {
			logger.Debug().Str("outcome", res.outcome).Msg("session rejected")
			response.Unauthorized(w, res.reason)
			return
		}

		logger.Debug().Str("outcome", res.outcome).Str("user_id", res.user.ID.String()).Msg("session authenticated")
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), res.user)))
	})
}

func (s *Session) resolve(w http.ResponseWriter, r *http.Request) (result, error) {
	access := cookie.AccessToken(r)
	if access == "" {
		return s.refresh(w, r)
	}

	claims, err := s.tokens.VerifyAccess(access)
	switch {
	case err == nil:
		user, err := s.lookup(r.Context(), claims.UserID)
		if err != nil {
			return result{}, err
		}
		if user == nil {
			return result{reason: ReasonUserNotFound, outcome: outcomeUserNotFound}, nil
		}
		return result{user: user, outcome: outcomeAccessValid}, nil

	case errors.Is(err, domain.ErrTokenExpired):
		if cookie.RefreshToken(r) == "" {
			return result{reason: ReasonRefreshMissing, outcome: outcomeRefreshMissing}, nil
		}
		return s.refresh(w, r)

	default:
		// A forged or malformed access token never falls through to refresh.
		return result{reason: ReasonInvalidAccess, outcome: outcomeInvalidAccess}, nil
	}
}

func (s *Session) refresh(w http.ResponseWriter, r *http.Request) (result, error) {
	token := cookie.RefreshToken(r)
	if token == "" {
		return result{reason: ReasonRefreshMissing, outcome: outcomeRefreshMissing}, nil
	}

	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		return result{reason: ReasonInvalidRefresh, outcome: outcomeInvalidRefresh}, nil
	}

	user, err := s.lookup(r.Context(), claims.UserID)
	if err != nil {
		return result{}, err
	}
	if user == nil {
		return result{reason: ReasonUserNotFound, outcome: outcomeUserNotFound}, nil
	}

	access, expiresAt, err := s.tokens.IssueAccess(user)
	if err != nil {
		return result{}, err
	}
	s.cookies.SetAccess(w, access, expiresAt)

	zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID.String()).Msg("access token renewed")
	return result{user: user, outcome: outcomeRefreshed}, nil
}

func (s *Session) lookup(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	return s.users.GetByID(ctx, id)
}
