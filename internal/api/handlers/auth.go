package handlers

import (
	"net/http"

	mw "github.com/rank-roster/backend/internal/api/middleware"
	"github.com/rank-roster/backend/internal/auth"
)

type AuthHandler struct {
	auth     *auth.Authenticator
	sessions *auth.SessionManager
}

func NewAuthHandler(a *auth.Authenticator, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{auth: a, sessions: sessions}
}

// ─── Login ────────────────────────────────────────────────────────────────────

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

type tokenResponse struct {
	Token      string `json:"token"`
	ExpiryTime int    `json:"expiry_time"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Champs vides : même réponse 401 qu'un mauvais mot de passe.
	res, err := h.auth.Login(r.Context(), auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		Code:     req.Code,
	})
	if err != nil {
		writeError(w, r, "login", err)
		return
	}

	jsonResponse(w, tokenResponse{Token: res.Token, ExpiryTime: res.ExpirySeconds}, http.StatusOK)
}

// ─── Logout ───────────────────────────────────────────────────────────────────

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Revoke(mw.GetToken(r))
	jsonResponse(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// ─── Validate ─────────────────────────────────────────────────────────────────

// GET /api/auth/validate: le middleware a déjà validé le token.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]bool{"valid": true}, http.StatusOK)
}
