package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(5, time.Minute).WithClock(clock.Now)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
		clock.Advance(time.Second)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "6th request within the window")
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")

	// La première requête sort de la fenêtre après 60 s.
	clock.Advance(55 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterRejectedRequestsDoNotExtendWindow(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(1, time.Minute).WithClock(clock.Now)

	require.True(t, rl.Allow("c"))
	clock.Advance(30 * time.Second)
	require.False(t, rl.Allow("c"))
	clock.Advance(31 * time.Second)
	assert.True(t, rl.Allow("c"))
}

func TestRateLimiterCleanup(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(5, time.Minute).WithClock(clock.Now)

	rl.Allow("a")
	clock.Advance(2 * time.Minute)
	rl.Allow("b")
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.requests, "a")
	assert.Contains(t, rl.requests, "b")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// Le port source change à chaque connexion : seule l'IP compte.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(fmt.Sprintf("192.0.2.10:%d", 40000+i)).Code)
	}
	rec := do("192.0.2.10:6000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate_limited","detail":"too many requests"}`, rec.Body.String())
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("192.0.2.11:1000").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:54321"
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	// Les en-têtes posés par le client ne changent pas la clé.
	req.Header.Set("X-Real-IP", "203.0.113.9")
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", ClientIP(req))
}
