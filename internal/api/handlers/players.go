package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	mw "github.com/rank-roster/backend/internal/api/middleware"
	"github.com/rank-roster/backend/internal/db"
	"github.com/rank-roster/backend/internal/models"
	"github.com/rank-roster/backend/internal/players"
)

type PlayerHandler struct {
	svc *players.Service
}

func NewPlayerHandler(svc *players.Service) *PlayerHandler {
	return &PlayerHandler{svc: svc}
}

// ─── Requête / réponse JSON ───────────────────────────────────────────────────

type playerRequest struct {
	Name     string `json:"name"`
	Tag      string `json:"tag"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (p playerRequest) input() *models.CreatePlayerInput {
	return &models.CreatePlayerInput{
		Name:     p.Name,
		Tag:      p.Tag,
		Email:    p.Email,
		Login:    p.Login,
		Password: p.Password,
	}
}

type credentialsRequest struct {
	Login string `json:"login"`
	Email string `json:"email"`
}

type existsRequest struct {
	Email string `json:"email"`
	Login string `json:"login"`
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// POST /api/players/
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Add(r.Context(), req.input())
	if err != nil {
		writeError(w, r, "create player", err)
		return
	}
	jsonResponse(w, p, http.StatusCreated)
}

// POST /api/players/batch
func (h *PlayerHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req []playerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	inputs := make([]*models.CreatePlayerInput, 0, len(req))
	for _, p := range req {
		inputs = append(inputs, p.input())
	}
	created, err := h.svc.AddBatch(r.Context(), inputs)
	if err != nil {
		writeError(w, r, "create player batch", err)
		return
	}
	jsonResponse(w, created, http.StatusCreated)
}

// GET /api/players/
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, "list players", err)
		return
	}
	jsonResponse(w, ps, http.StatusOK)
}

// GET /api/players/{name}/{tag}
func (h *PlayerHandler) Rank(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Rank(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, r, "player rank", err)
		return
	}
	jsonResponse(w, res, http.StatusOK)
}

// DELETE /api/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		jsonError(w, "invalid player id", http.StatusBadRequest)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			jsonError(w, "player not found", http.StatusNotFound)
			return
		}
		writeError(w, r, "delete player", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/players/verify-credentials: renvoie le mot de passe déchiffré
func (h *PlayerHandler) VerifyCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	password, err := h.svc.VerifyCredentials(r.Context(), req.Login, req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			jsonError(w, "account not found", http.StatusNotFound)
			return
		}
		writeError(w, r, "verify credentials", err)
		return
	}
	jsonResponse(w, map[string]string{"password": password}, http.StatusOK)
}

// POST /api/players/check-exists
func (h *PlayerHandler) CheckExists(w http.ResponseWriter, r *http.Request) {
	var req existsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := h.svc.Exists(r.Context(), strings.ToLower(req.Email), req.Login)
	if err != nil {
		writeError(w, r, "check player exists", err)
		return
	}
	if res.EmailExists || res.LoginExists {
		mw.LoggerFrom(r).Debug("player already registered",
			zap.Bool("email", res.EmailExists), zap.Bool("login", res.LoginExists))
	}
	jsonResponse(w, res, http.StatusOK)
}
