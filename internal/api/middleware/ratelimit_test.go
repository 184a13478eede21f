package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rrens/task-manager/internal/domain"
	"github.com/Rrens/task-manager/internal/repository/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLimiter struct {
	counts map[string]int
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int) (redis.Decision, error) {
	if f.err != nil {
		return redis.Decision{}, f.err
	}
	f.counts[key]++
	remaining := limit - f.counts[key]
	if remaining < 0 {
		remaining = 0
	}
	return redis.Decision{
		Allowed:   f.counts[key] <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Unix(1772366460, 0),
	}, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_ByIP(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int{}}
	h := RateLimit(limiter, "login", 2, ByIP, nil)(okHandler())

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("203.0.113.7:5000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1772366460", rec.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, do("203.0.113.7:5001").Code)

	rec = do("203.0.113.7:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// other clients are unaffected
	assert.Equal(t, http.StatusOK, do("198.51.100.1:5000").Code)
	assert.Equal(t, 3, limiter.counts["login:ip:203.0.113.7"])
}

func TestRateLimit_ByUser(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int{}}
	h := RateLimit(limiter, "api", 1, ByUser, nil)(okHandler())
	user := &domain.User{ID: uuid.New()}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req = req.WithContext(WithUser(req.Context(), user))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, limiter.counts["api:user:"+user.ID.String()])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis: connection refused")}
	h := RateLimit(limiter, "login", 1, ByIP, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(nil, "login", 1, ByIP, nil)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
