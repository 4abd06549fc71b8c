package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rank-roster/backend/internal/api"
	"github.com/rank-roster/backend/internal/auth"
	"github.com/rank-roster/backend/internal/config"
	"github.com/rank-roster/backend/internal/db"
	"github.com/rank-roster/backend/internal/logging"
	"github.com/rank-roster/backend/internal/players"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Pas encore de logger configuré
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		zap.NewExample().Fatal("cannot build logger", zap.Error(err))
	}
	defer log.Sync()

	if cfg.Debug {
		log.Warn("DEBUG MODE ENABLED, do not use in production",
			zap.String("port", cfg.Port),
			zap.String("allowed_origins", cfg.AllowedOrigins),
			zap.Duration("token_ttl", cfg.TokenTTL),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("cannot connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	// ─── Moteurs cryptographiques ─────────────────────────────────────────────
	tokenCipher, err := auth.NewCipher(cfg.TokenPassphrase)
	if err != nil {
		log.Fatal("token cipher", zap.Error(err))
	}
	storageCipher, err := auth.NewCipher(cfg.StoragePassphrase)
	if err != nil {
		log.Fatal("storage cipher", zap.Error(err))
	}

	sessions := auth.NewSessionManager(tokenCipher,
		auth.WithTTL(cfg.TokenTTL),
		auth.WithSessionLogger(log.Named("sessions")),
	)
	go sessions.Run(ctx, cfg.TokenTTL)

	admins := db.NewAdminStore(pool)
	playerStore := db.NewPlayerStore(pool)
	twoFactor := auth.NewTwoFactor(db.NewTOTPStore(pool), auth.NewTOTP(cfg.TOTPIssuer), log.Named("2fa"))
	authenticator := auth.NewAuthenticator(admins, twoFactor, sessions, cfg.AdminID, log.Named("auth"))

	if err := bootstrapAdmin(ctx, admins, cfg, log); err != nil {
		log.Fatal("admin bootstrap failed", zap.Error(err))
	}

	router := api.NewRouter(cfg, log, api.Deps{
		Auth:      authenticator,
		Sessions:  sessions,
		TwoFactor: twoFactor,
		Players:   players.NewService(playerStore, storageCipher, log.Named("players")),
		Admins:    admins,
		DB:        playerStore,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
		return
	}
	log.Info("server exited")
}

// bootstrapAdmin crée le compte ADMIN_USER/ADMIN_PASS si la table est vide.
func bootstrapAdmin(ctx context.Context, admins *db.AdminStore, cfg *config.Config, log *zap.Logger) error {
	if cfg.AdminUser == "" || cfg.AdminPass == "" {
		return nil
	}
	count, err := admins.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.AdminPass)
	if err != nil {
		return err
	}
	a, err := admins.Create(ctx, cfg.AdminUser, hash)
	if err != nil {
		return err
	}
	log.Info("admin account created", zap.String("username", a.Username), zap.Int64("id", a.ID))
	return nil
}
