package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	mw "github.com/rank-roster/backend/internal/api/middleware"
	"github.com/rank-roster/backend/internal/auth"
	"github.com/rank-roster/backend/internal/db"
	"github.com/rank-roster/backend/internal/players"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

// jsonInternalError journalise la cause et ne renvoie au client qu'un message générique.
func jsonInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	mw.LoggerFrom(r).Error(op+" failed", zap.Error(err))
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeError traduit les erreurs du cœur en statut HTTP.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrTwoFactorRequired):
		jsonError(w, "2FA code required", http.StatusForbidden)
	case errors.Is(err, auth.ErrInvalidTwoFactorCode):
		jsonError(w, "invalid 2FA code", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidCode):
		jsonError(w, "invalid code", http.StatusBadRequest)
	case errors.Is(err, auth.ErrTokenInvalidOrExpired):
		jsonError(w, "invalid or expired token", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrRateLimited):
		jsonError(w, "rate_limited", http.StatusTooManyRequests)
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, players.ErrInvalidPlayer):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrDuplicateEmail), errors.Is(err, db.ErrDuplicateLogin):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, db.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	default:
		jsonInternalError(w, r, op, err)
	}
}
