package handlers

import (
	"context"
	"net/http"

	"github.com/rank-roster/backend/internal/auth"
	"github.com/rank-roster/backend/internal/models"
)

// AdminAccounts est implémenté par db.AdminStore.
type AdminAccounts interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, username, password string) (*models.AdminUser, error)
}

type InitHandler struct {
	admins AdminAccounts
}

func NewInitHandler(admins AdminAccounts) *InitHandler {
	return &InitHandler{admins: admins}
}

// GET /api/init/status: indique si l'application a déjà été initialisée
func (h *InitHandler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := h.admins.Count(r.Context())
	if err != nil {
		jsonInternalError(w, r, "count admins", err)
		return
	}
	jsonResponse(w, map[string]bool{"initialized": count > 0}, http.StatusOK)
}

// POST /api/init: crée le premier compte admin (une seule fois)
func (h *InitHandler) Init(w http.ResponseWriter, r *http.Request) {
	count, err := h.admins.Count(r.Context())
	if err != nil {
		jsonInternalError(w, r, "count admins", err)
		return
	}
	if count > 0 {
		jsonError(w, "already initialized", http.StatusConflict)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		jsonError(w, "username required and password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonInternalError(w, r, "hash password", err)
		return
	}
	if _, err := h.admins.Create(r.Context(), req.Username, hash); err != nil {
		jsonInternalError(w, r, "create admin", err)
		return
	}

	jsonResponse(w, map[string]string{"message": "initialized"}, http.StatusCreated)
}
