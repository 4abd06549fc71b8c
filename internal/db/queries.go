package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rank-roster/backend/internal/models"
)

// ErrNotFound est retourné quand une opération ne trouve pas la ressource ciblée.
var ErrNotFound = errors.New("not found")

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateLogin = errors.New("login already registered")
)

const uniqueViolation = "23505"

// uniqueErr traduit une violation d'unicité Postgres en erreur métier.
func uniqueErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "login"):
		return ErrDuplicateLogin
	}
	return err
}

// ─── Admins ───────────────────────────────────────────────────────────────────

func GetAdminByUsername(ctx context.Context, pool *pgxpool.Pool, username string) (*models.AdminUser, error) {
	a := &models.AdminUser{}
	err := pool.QueryRow(ctx, `
		SELECT id, username, password FROM admin_users WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &a.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func CreateAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) (*models.AdminUser, error) {
	a := &models.AdminUser{}
	err := pool.QueryRow(ctx, `
		INSERT INTO admin_users (username, password)
		VALUES ($1, $2)
		RETURNING id, username, password
	`, username, password).Scan(&a.ID, &a.Username, &a.Password)
	return a, err
}

func CountAdmins(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&count)
	return count, err
}

// ─── TOTP ──────────────────────────────────────────────────────────────────────

func GetTOTPRecord(ctx context.Context, pool *pgxpool.Pool, userID int64) (*models.TOTPRecord, error) {
	rec := &models.TOTPRecord{}
	err := pool.QueryRow(ctx, `
		SELECT user_id, secret, is_active FROM totp_secrets WHERE user_id = $1
	`, userID).Scan(&rec.UserID, &rec.Secret, &rec.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// UpsertPendingTOTPSecret remplace le secret en attente. Un secret actif
// n'est jamais écrasé : il faut passer par DeleteTOTPSecret (reset).
func UpsertPendingTOTPSecret(ctx context.Context, pool *pgxpool.Pool, userID int64, secret string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO totp_secrets (user_id, secret, is_active) VALUES ($1, $2, FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET secret = EXCLUDED.secret, updated_at = NOW()
		WHERE NOT totp_secrets.is_active
	`, userID, secret)
	return err
}

// ActivateTOTPSecret bascule l'enregistrement en attente si le secret
// correspond. Ne crée jamais de ligne et ne touche pas un secret déjà actif.
func ActivateTOTPSecret(ctx context.Context, pool *pgxpool.Pool, userID int64, secret string) (bool, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE totp_secrets SET is_active = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND secret = $2 AND NOT is_active
	`, userID, secret)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func DeleteTOTPSecret(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	_, err := pool.Exec(ctx, `DELETE FROM totp_secrets WHERE user_id = $1`, userID)
	return err
}

// ─── Players ──────────────────────────────────────────────────────────────────

const playerColumns = `id, name, tag, email, login, password, created_at`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(&p.ID, &p.Name, &p.Tag, &p.Email, &p.Login, &p.Password, &p.CreatedAt)
	return p, err
}

// CreatePlayer attend un mot de passe déjà chiffré.
func CreatePlayer(ctx context.Context, pool *pgxpool.Pool, p *models.CreatePlayerInput) (*models.Player, error) {
	player, err := scanPlayer(pool.QueryRow(ctx, `
		INSERT INTO players (name, tag, email, login, password)
		VALUES ($1, $2, LOWER($3), $4, $5)
		RETURNING `+playerColumns,
		p.Name, p.Tag, p.Email, p.Login, p.Password))
	if err != nil {
		return nil, uniqueErr(err)
	}
	return player, nil
}

// CreatePlayers insère un lot dans une seule transaction : tout ou rien.
func CreatePlayers(ctx context.Context, pool *pgxpool.Pool, inputs []*models.CreatePlayerInput) ([]*models.Player, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	players := make([]*models.Player, 0, len(inputs))
	for _, p := range inputs {
		player, err := scanPlayer(tx.QueryRow(ctx, `
			INSERT INTO players (name, tag, email, login, password)
			VALUES ($1, $2, LOWER($3), $4, $5)
			RETURNING `+playerColumns,
			p.Name, p.Tag, p.Email, p.Login, p.Password))
		if err != nil {
			return nil, uniqueErr(err)
		}
		players = append(players, player)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return players, nil
}

func ListPlayers(ctx context.Context, pool *pgxpool.Pool) ([]*models.Player, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+playerColumns+` FROM players ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func GetPlayerByNameTag(ctx context.Context, pool *pgxpool.Pool, name, tag string) (*models.Player, error) {
	p, err := scanPlayer(pool.QueryRow(ctx, `
		SELECT `+playerColumns+` FROM players
		WHERE LOWER(name) = LOWER($1) AND LOWER(tag) = LOWER($2)
		ORDER BY created_at ASC LIMIT 1
	`, name, tag))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetPlayerPassword retourne le blob chiffré, comparaison insensible à la casse.
func GetPlayerPassword(ctx context.Context, pool *pgxpool.Pool, login, email string) (string, error) {
	var password string
	err := pool.QueryRow(ctx, `
		SELECT password FROM players
		WHERE LOWER(login) = LOWER($1) AND LOWER(email) = LOWER($2)
	`, login, email).Scan(&password)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return password, err
}

func DeletePlayer(ctx context.Context, pool *pgxpool.Pool, id string) error {
	tag, err := pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func PlayerExists(ctx context.Context, pool *pgxpool.Pool, email, login string) (*models.PlayerExists, error) {
	res := &models.PlayerExists{}
	if email != "" {
		if err := pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM players WHERE LOWER(email) = LOWER($1))
		`, email).Scan(&res.EmailExists); err != nil {
			return nil, err
		}
	}
	if login != "" {
		if err := pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM players WHERE LOWER(login) = LOWER($1))
		`, login).Scan(&res.LoginExists); err != nil {
			return nil, err
		}
	}
	return res, nil
}
