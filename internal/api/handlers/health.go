package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	mw "github.com/rank-roster/backend/internal/api/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	db       Pinger
	sessions SessionCounter
	started  time.Time
}

func NewHealthHandler(db Pinger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions, started: time.Now()}
}

// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// GET /health/detailed: 503 si la base ne répond pas
func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, dbStatus, code := "ok", "ok", http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		mw.LoggerFrom(r).Warn("database ping failed", zap.Error(err))
		status, dbStatus, code = "degraded", "unreachable", http.StatusServiceUnavailable
	}

	jsonResponse(w, map[string]interface{}{
		"status":          status,
		"database":        dbStatus,
		"active_sessions": h.sessions.Len(),
		"uptime_seconds":  int(time.Since(h.started).Seconds()),
	}, code)
}
