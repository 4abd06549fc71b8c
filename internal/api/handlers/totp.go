package handlers

import (
	"errors"
	"io"
	"net/http"

	mw "github.com/rank-roster/backend/internal/api/middleware"
	"github.com/rank-roster/backend/internal/auth"
)

type TOTPHandler struct {
	twoFactor    *auth.TwoFactor
	adminID      int64
	accountLabel string
}

func NewTOTPHandler(tf *auth.TwoFactor, adminID int64, accountLabel string) *TOTPHandler {
	if accountLabel == "" {
		accountLabel = "admin"
	}
	return &TOTPHandler{twoFactor: tf, adminID: adminID, accountLabel: accountLabel}
}

type userRequest struct {
	UserID int64 `json:"user_id"`
}

// userID lit un user_id optionnel ; par défaut l'administrateur.
func (h *TOTPHandler) userID(r *http.Request) (int64, error) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if req.UserID <= 0 {
		return h.adminID, nil
	}
	return req.UserID, nil
}

type setupResponse struct {
	IsConfigured bool   `json:"is_configured"`
	Secret       string `json:"secret,omitempty"`
	OTPAuthURL   string `json:"otpauth_url,omitempty"`
	QRCodeURL    string `json:"qr_code_url,omitempty"`
}

// POST /api/auth/setup-2fa: statut, ou nouveau secret + QR si non configurée
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	status, err := h.twoFactor.CheckStatus(r.Context(), userID)
	if err != nil {
		writeError(w, r, "2FA status", err)
		return
	}
	if status.Configured {
		jsonResponse(w, setupResponse{IsConfigured: true}, http.StatusOK)
		return
	}

	uri, err := h.twoFactor.ProvisioningURI(h.accountLabel, status.Secret)
	if err != nil {
		writeError(w, r, "provisioning uri", err)
		return
	}
	qr, err := auth.QRCodeDataURL(uri)
	if err != nil {
		writeError(w, r, "qr code", err)
		return
	}

	jsonResponse(w, setupResponse{
		Secret:     status.Secret,
		OTPAuthURL: uri,
		QRCodeURL:  qr,
	}, http.StatusOK)
}

// POST /api/auth/verify-2fa-setup: vérifie le premier code et active la 2FA
func (h *TOTPHandler) VerifySetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
		Code   string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Secret == "" || req.Code == "" {
		jsonError(w, "secret and code are required", http.StatusBadRequest)
		return
	}

	if err := h.twoFactor.Activate(r.Context(), h.adminID, req.Secret, req.Code); err != nil {
		writeError(w, r, "2FA activation", err)
		return
	}
	jsonResponse(w, map[string]bool{"success": true}, http.StatusOK)
}

// POST /api/auth/reset-2fa: requiert un token valide
func (h *TOTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.twoFactor.Reset(r.Context(), userID); err != nil {
		writeError(w, r, "2FA reset", err)
		return
	}
	mw.LoggerFrom(r).Info("2FA reset requested")
	jsonResponse(w, map[string]bool{"success": true}, http.StatusOK)
}
