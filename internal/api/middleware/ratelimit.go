package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter compte les requêtes par client sur une fenêtre glissante.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// WithClock remplace l'horloge (tests).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// Allow enregistre la tentative et retourne false si la limite est atteinte.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	filtered := rl.recent(client, now)
	if len(filtered) >= rl.limit {
		rl.requests[client] = filtered
		return false
	}
	rl.requests[client] = append(filtered, now)
	return true
}

// Cleanup retire les clients sans requête dans la fenêtre.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for client := range rl.requests {
		if filtered := rl.recent(client, now); len(filtered) == 0 {
			delete(rl.requests, client)
		} else {
			rl.requests[client] = filtered
		}
	}
}

func (rl *RateLimiter) recent(client string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	times := rl.requests[client]
	filtered := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// ClientIP retourne l'adresse du pair sans le port. Les en-têtes de proxy
// ne sont pris en compte qu'en amont, par TrustedRealIP.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware rejette en 429 au-delà de la limite, avant d'atteindre le handler.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.Allow(ip) {
			LoggerFrom(r).Warn("rate limit exceeded", zap.String("client", ip))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","detail":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit crée un middleware de rate limiting (limit req/window par IP).
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	rl := NewRateLimiter(limit, window)
	// Nettoyage périodique
	go func() {
		for range time.Tick(window) {
			rl.Cleanup()
		}
	}()
	return rl.Middleware
}
