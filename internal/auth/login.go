package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AdminVerifier vérifie un couple identifiant / mot de passe administrateur.
type AdminVerifier interface {
	VerifyAdmin(ctx context.Context, username, password string) (bool, error)
}

// DefaultAdminID est l'identité unique de l'administrateur pour la 2FA.
const DefaultAdminID int64 = 1

type LoginRequest struct {
	Username string
	Password string
	Code     string
}

type LoginResult struct {
	Token         string
	ExpirySeconds int
}

// Authenticator compose vérification des identifiants, 2FA et émission du token.
type Authenticator struct {
	admins    AdminVerifier
	twoFactor *TwoFactor
	sessions  *SessionManager
	adminID   int64
	log       *zap.Logger
}

func NewAuthenticator(admins AdminVerifier, tf *TwoFactor, sessions *SessionManager, adminID int64, log *zap.Logger) *Authenticator {
	if adminID <= 0 {
		adminID = DefaultAdminID
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{
		admins:    admins,
		twoFactor: tf,
		sessions:  sessions,
		adminID:   adminID,
		log:       log,
	}
}

func (a *Authenticator) AdminID() int64 { return a.adminID }

// Login : identifiants → (2FA si active) → token.
func (a *Authenticator) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	log := a.log.With(zap.String("username", req.Username))

	ok, err := a.admins.VerifyAdmin(ctx, req.Username, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify admin: %w", err)
	}
	if !ok {
		log.Warn("login with invalid credentials")
		return nil, ErrInvalidCredentials
	}

	secret, active, err := a.twoFactor.ActiveSecret(ctx, a.adminID)
	if err != nil {
		return nil, fmt.Errorf("read 2FA secret: %w", err)
	}
	if active {
		if req.Code == "" {
			log.Warn("login without 2FA code")
			return nil, ErrTwoFactorRequired
		}
		if !a.twoFactor.VerifyLoginCode(secret, req.Code) {
			log.Warn("login with invalid 2FA code")
			return nil, ErrInvalidTwoFactorCode
		}
	}

	token, err := a.sessions.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	log.Info("login succeeded")
	return &LoginResult{
		Token:         token,
		ExpirySeconds: int(a.sessions.TTL().Seconds()),
	}, nil
}
