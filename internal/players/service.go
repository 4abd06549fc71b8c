// Package players gère le roster de joueurs. Les mots de passe des comptes
// sont chiffrés au repos avec une clé distincte de celle des sessions.
package players

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/rank-roster/backend/internal/auth"
	"github.com/rank-roster/backend/internal/db"
	"github.com/rank-roster/backend/internal/models"
)

var ErrInvalidPlayer = errors.New("invalid player")

const (
	maxTagLen     = 5
	rankLookupURL = "https://www.valking.gg/player"
)

type Repository interface {
	Create(ctx context.Context, p *models.CreatePlayerInput) (*models.Player, error)
	CreateBatch(ctx context.Context, ps []*models.CreatePlayerInput) ([]*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	GetByNameTag(ctx context.Context, name, tag string) (*models.Player, error)
	Password(ctx context.Context, login, email string) (string, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, email, login string) (*models.PlayerExists, error)
}

type Rank struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// RankResult : Found=false quand le joueur n'est pas dans le roster,
// le lien de consultation est quand même fourni.
type RankResult struct {
	Found    bool   `json:"found"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Tag      string `json:"tag"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Password string `json:"password,omitempty"` // déchiffré
	Rank     Rank   `json:"rank"`
}

type Service struct {
	repo   Repository
	cipher *auth.Cipher
	log    *zap.Logger
}

func NewService(repo Repository, storage *auth.Cipher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, cipher: storage, log: log}
}

// ─── Validation ───────────────────────────────────────────────────────────────

// NormalizeNameTag applique les règles Riot ID : nom sans '#', tag de 1 à 5 caractères.
func NormalizeNameTag(name, tag string) (string, string, error) {
	name = strings.TrimSpace(name)
	tag = strings.TrimSpace(tag)
	if name == "" || strings.Contains(name, "#") {
		return "", "", fmt.Errorf("%w: malformed name", ErrInvalidPlayer)
	}
	if tag == "" || len([]rune(tag)) > maxTagLen {
		return "", "", fmt.Errorf("%w: malformed tag", ErrInvalidPlayer)
	}
	return name, tag, nil
}

func validate(p *models.CreatePlayerInput) (*models.CreatePlayerInput, error) {
	name, tag, err := NormalizeNameTag(p.Name, p.Tag)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	login := strings.TrimSpace(p.Login)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidPlayer)
	}
	if login == "" {
		return nil, fmt.Errorf("%w: login required", ErrInvalidPlayer)
	}
	if p.Password == "" {
		return nil, fmt.Errorf("%w: password required", ErrInvalidPlayer)
	}
	return &models.CreatePlayerInput{
		Name: name, Tag: tag, Email: email, Login: login, Password: p.Password,
	}, nil
}

func (s *Service) sealed(p *models.CreatePlayerInput) (*models.CreatePlayerInput, error) {
	v, err := validate(p)
	if err != nil {
		return nil, err
	}
	enc, err := s.cipher.Encrypt(v.Password)
	if err != nil {
		return nil, fmt.Errorf("encrypt player password: %w", err)
	}
	v.Password = enc
	return v, nil
}

func summary(p *models.Player) models.PlayerSummary {
	return models.PlayerSummary{ID: p.ID, Name: p.Name, Tag: p.Tag}
}

// ─── Opérations ───────────────────────────────────────────────────────────────

func (s *Service) Add(ctx context.Context, in *models.CreatePlayerInput) (*models.PlayerSummary, error) {
	v, err := s.sealed(in)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, v.Email, v.Login)
	if err != nil {
		return nil, err
	}
	if exists.EmailExists {
		return nil, db.ErrDuplicateEmail
	}
	if exists.LoginExists {
		return nil, db.ErrDuplicateLogin
	}

	p, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	s.log.Info("player added", zap.String("player", p.Name+"#"+p.Tag), zap.String("id", p.ID))
	out := summary(p)
	return &out, nil
}

func (s *Service) AddBatch(ctx context.Context, ins []*models.CreatePlayerInput) ([]models.PlayerSummary, error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidPlayer)
	}
	sealed := make([]*models.CreatePlayerInput, 0, len(ins))
	for i, in := range ins {
		v, err := s.sealed(in)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		sealed = append(sealed, v)
	}

	created, err := s.repo.CreateBatch(ctx, sealed)
	if err != nil {
		return nil, err
	}
	out := make([]models.PlayerSummary, 0, len(created))
	for _, p := range created {
		out = append(out, summary(p))
	}
	s.log.Info("player batch added", zap.Int("count", len(out)))
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]models.PlayerSummary, error) {
	ps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PlayerSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, summary(p))
	}
	return out, nil
}

// Rank ne consulte pas de service externe : il renvoie le lien de consultation.
func (s *Service) Rank(ctx context.Context, name, tag string) (*RankResult, error) {
	name, tag, err := NormalizeNameTag(name, tag)
	if err != nil {
		return nil, err
	}
	res := &RankResult{
		Name: name,
		Tag:  tag,
		Rank: Rank{
			Message: "Check the current rank at:",
			URL:     rankLookupURL + "?username=" + url.QueryEscape(name) + "%23" + url.QueryEscape(tag),
		},
	}

	p, err := s.repo.GetByNameTag(ctx, name, tag)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return res, nil
	case err != nil:
		return nil, err
	}
	plain, err := s.cipher.Decrypt(p.Password)
	if err != nil {
		return nil, fmt.Errorf("decrypt player password: %w", err)
	}
	res.Found = true
	res.ID = p.ID
	res.Email = p.Email
	res.Login = p.Login
	res.Password = plain
	return res, nil
}

// VerifyCredentials retourne le mot de passe en clair du compte login+email.
func (s *Service) VerifyCredentials(ctx context.Context, login, email string) (string, error) {
	if strings.TrimSpace(login) == "" || strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: login and email required", ErrInvalidPlayer)
	}
	blob, err := s.repo.Password(ctx, login, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.log.Warn("credentials not found", zap.String("login", login))
		}
		return "", err
	}
	plain, err := s.cipher.Decrypt(blob)
	if err != nil {
		return "", fmt.Errorf("decrypt player password: %w", err)
	}
	s.log.Info("credentials verified", zap.String("login", login))
	return plain, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("player deleted", zap.String("id", id))
	return nil
}

func (s *Service) Exists(ctx context.Context, email, login string) (*models.PlayerExists, error) {
	email = strings.TrimSpace(email)
	login = strings.TrimSpace(login)
	if email == "" && login == "" {
		return &models.PlayerExists{}, nil
	}
	return s.repo.Exists(ctx, email, login)
}
