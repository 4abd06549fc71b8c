package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rank-roster/backend/internal/auth"
	"github.com/rank-roster/backend/internal/models"
)

// ─── Adaptateurs vers les interfaces du cœur ────────────────────────────────

// AdminStore implémente auth.AdminVerifier.
type AdminStore struct {
	pool *pgxpool.Pool
}

func NewAdminStore(pool *pgxpool.Pool) *AdminStore {
	return &AdminStore{pool: pool}
}

func (s *AdminStore) VerifyAdmin(ctx context.Context, username, password string) (bool, error) {
	a, err := GetAdminByUsername(ctx, s.pool, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return auth.ComparePassword(password, a.Password)
}

func (s *AdminStore) Count(ctx context.Context) (int, error) {
	return CountAdmins(ctx, s.pool)
}

func (s *AdminStore) Create(ctx context.Context, username, password string) (*models.AdminUser, error) {
	return CreateAdmin(ctx, s.pool, username, password)
}

// TOTPStore implémente auth.TwoFactorStore.
type TOTPStore struct {
	pool *pgxpool.Pool
}

func NewTOTPStore(pool *pgxpool.Pool) *TOTPStore {
	return &TOTPStore{pool: pool}
}

func (s *TOTPStore) ActiveSecret(ctx context.Context, userID int64) (string, bool, error) {
	rec, err := GetTOTPRecord(ctx, s.pool, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !rec.IsActive || rec.Secret == "" {
		return "", false, nil
	}
	return rec.Secret, true, nil
}

func (s *TOTPStore) UpsertPendingSecret(ctx context.Context, userID int64, secret string) error {
	return UpsertPendingTOTPSecret(ctx, s.pool, userID, secret)
}

func (s *TOTPStore) ActivateSecret(ctx context.Context, userID int64, secret string) (bool, error) {
	return ActivateTOTPSecret(ctx, s.pool, userID, secret)
}

func (s *TOTPStore) DeleteSecret(ctx context.Context, userID int64) error {
	return DeleteTOTPSecret(ctx, s.pool, userID)
}

// PlayerStore implémente players.Repository.
type PlayerStore struct {
	pool *pgxpool.Pool
}

func NewPlayerStore(pool *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{pool: pool}
}

func (s *PlayerStore) Create(ctx context.Context, p *models.CreatePlayerInput) (*models.Player, error) {
	return CreatePlayer(ctx, s.pool, p)
}

func (s *PlayerStore) CreateBatch(ctx context.Context, ps []*models.CreatePlayerInput) ([]*models.Player, error) {
	return CreatePlayers(ctx, s.pool, ps)
}

func (s *PlayerStore) List(ctx context.Context) ([]*models.Player, error) {
	return ListPlayers(ctx, s.pool)
}

func (s *PlayerStore) GetByNameTag(ctx context.Context, name, tag string) (*models.Player, error) {
	return GetPlayerByNameTag(ctx, s.pool, name, tag)
}

func (s *PlayerStore) Password(ctx context.Context, login, email string) (string, error) {
	return GetPlayerPassword(ctx, s.pool, login, email)
}

func (s *PlayerStore) Delete(ctx context.Context, id string) error {
	return DeletePlayer(ctx, s.pool, id)
}

func (s *PlayerStore) Exists(ctx context.Context, email, login string) (*models.PlayerExists, error) {
	return PlayerExists(ctx, s.pool, email, login)
}

func (s *PlayerStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
