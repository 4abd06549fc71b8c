package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/rank-roster/backend/internal/api/handlers"
	mw "github.com/rank-roster/backend/internal/api/middleware"
	"github.com/rank-roster/backend/internal/auth"
	"github.com/rank-roster/backend/internal/config"
	"github.com/rank-roster/backend/internal/players"
)

// Deps regroupe les services construits dans main.
type Deps struct {
	Auth      *auth.Authenticator
	Sessions  *auth.SessionManager
	TwoFactor *auth.TwoFactor
	Players   *players.Service
	Admins    handlers.AdminAccounts
	DB        handlers.Pinger
}

func NewRouter(cfg *config.Config, log *zap.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()

	// ─── Middlewares globaux ───────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	// Les en-têtes de proxy ne sont crus que depuis TRUSTED_PROXIES : la
	// clé du rate limiting reste l'adresse du pair.
	r.Use(mw.TrustedRealIP(cfg.TrustedProxies))
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := strings.Split(cfg.AllowedOrigins, ",")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// ─── Handlers ─────────────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Sessions)
	totpHandler := handlers.NewTOTPHandler(deps.TwoFactor, deps.Auth.AdminID(), "admin")
	playerHandler := handlers.NewPlayerHandler(deps.Players)
	initHandler := handlers.NewInitHandler(deps.Admins)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Sessions)

	authenticate := mw.Authenticate(deps.Sessions)

	// ─── Routes init (first-launch) ───────────────────────────────────────────
	r.Get("/api/init/status", initHandler.Status)
	r.Post("/api/init", initHandler.Init)

	// ─── Authentification ─────────────────────────────────────────────────────
	// Chaque endpoint sensible a son propre compteur : 5 requêtes/minute/IP.
	r.Route("/api/auth", func(r chi.Router) {
		r.With(mw.RateLimit(5, time.Minute)).Post("/login", authHandler.Login)
		r.With(mw.RateLimit(5, time.Minute)).Post("/setup-2fa", totpHandler.Setup)
		r.With(mw.RateLimit(5, time.Minute)).Post("/verify-2fa-setup", totpHandler.VerifySetup)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/logout", authHandler.Logout)
			r.Get("/validate", authHandler.Validate)
			r.With(mw.RateLimit(5, time.Minute)).Post("/reset-2fa", totpHandler.Reset)
		})
	})

	// ─── Roster ───────────────────────────────────────────────────────────────
	r.Route("/api/players", func(r chi.Router) {
		// Endpoints publics consommés par le client de jeu
		r.With(mw.RateLimit(10, time.Minute)).Post("/verify-credentials", playerHandler.VerifyCredentials)
		r.With(mw.RateLimit(20, time.Minute)).Post("/check-exists", playerHandler.CheckExists)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.With(mw.RateLimit(10, time.Minute)).Post("/", playerHandler.Create)
			r.With(mw.RateLimit(5, time.Minute)).Post("/batch", playerHandler.CreateBatch)
			r.With(mw.RateLimit(30, time.Minute)).Get("/", playerHandler.List)
			r.With(mw.RateLimit(15, time.Minute)).Get("/{name}/{tag}", playerHandler.Rank)
			r.With(mw.RateLimit(10, time.Minute)).Delete("/{id}", playerHandler.Delete)
		})
	})

	// ─── Health check ─────────────────────────────────────────────────────────
	r.Get("/health", healthHandler.Health)
	r.Get("/health/detailed", healthHandler.Detailed)

	return r
}
