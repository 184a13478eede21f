package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/Rrens/task-manager/internal/api/response"
	"github.com/Rrens/task-manager/internal/repository/redis"
	"github.com/rs/zerolog"
)

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (redis.Decision, error)
}

// KeyFunc derives the rate limit key of a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// ByUser keys on the authenticated user; it must run after Session
func ByUser(r *http.Request) string {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return ""
	}
	return "user:" + user.ID.String()
}

// ByIP keys on the client address as resolved by RealIP
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimit rejects requests over limit per minute with 429. Limiter
// failures let the request through.
func RateLimit(limiter Limiter, scope string, limit int, key KeyFunc, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if limiter == nil || limit <= 0 || k == "" {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), scope+":"+k, limit)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				metrics.observeRateLimit(scope)
				response.TooManyRequests(w, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
