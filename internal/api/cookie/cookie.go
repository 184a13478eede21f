// Package cookie carries the access and refresh tokens as http-only cookies.
package cookie

import (
	"net/http"
	"time"

	"github.com/Rrens/task-manager/internal/domain"
)

const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

// Transport writes and reads token cookies. Every cookie it emits shares the
// same attributes so that clearing always matches setting.
type Transport struct {
	secure bool
	now    func() time.Time
}

// NewTransport creates a cookie transport. secure should be true in production.
func NewTransport(secure bool, now func() time.Time) *Transport {
	if now == nil {
		now = time.Now
	}
	return &Transport{secure: secure, now: now}
}

// SetTokens sets both cookies from a freshly issued pair
func (t *Transport) SetTokens(w http.ResponseWriter, pair *domain.TokenPair) {
	t.SetAccess(w, pair.AccessToken, pair.AccessExpiresAt)
	http.SetCookie(w, t.cookie(RefreshTokenName, pair.RefreshToken, pair.RefreshExpiresAt))
}

// SetAccess sets the access cookie. expiresAt is the token's own exp claim.
func (t *Transport) SetAccess(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, t.cookie(AccessTokenName, token, expiresAt))
}

// Clear expires both cookies. Repeated calls produce identical headers.
func (t *Transport) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenName, RefreshTokenName} {
		c := t.base(name, "")
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0).UTC()
		http.SetCookie(w, c)
	}
}

// AccessToken returns the access cookie value, or "" when absent
func AccessToken(r *http.Request) string {
	return value(r, AccessTokenName)
}

// RefreshToken returns the refresh cookie value, or "" when absent
func RefreshToken(r *http.Request) string {
	return value(r, RefreshTokenName)
}

func value(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (t *Transport) cookie(name, token string, expiresAt time.Time) *http.Cookie {
	c := t.base(name, token)

	// Floor so the cookie never outlives the token it carries.
	maxAge := int(expiresAt.Sub(t.now()) / time.Second)
	if maxAge <= 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0).UTC()
		return c
	}
	c.MaxAge = maxAge
	c.Expires = expiresAt.UTC()
	return c
}

func (t *Transport) base(name, token string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteNoneMode,
	}
}
