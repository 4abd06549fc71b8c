package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// usedCodeTTL couvre la fenêtre d'acceptation d'un code (courante ± 1 pas).
const usedCodeTTL = 90 * time.Second

// TwoFactorStore persiste un enregistrement {secret, is_active} par utilisateur.
// Les écritures sont des upserts atomiques.
type TwoFactorStore interface {
	// ActiveSecret retourne le secret uniquement s'il est actif.
	ActiveSecret(ctx context.Context, userID int64) (secret string, ok bool, err error)
	UpsertPendingSecret(ctx context.Context, userID int64, secret string) error
	// ActivateSecret n'active que l'enregistrement en attente dont le secret
	// correspond ; activated=false si aucun ne correspond.
	ActivateSecret(ctx context.Context, userID int64, secret string) (activated bool, err error)
	DeleteSecret(ctx context.Context, userID int64) error
}

type TwoFactorStatus struct {
	Configured bool
	// Secret n'est renseigné que pendant l'enrôlement.
	Secret string
}

// TwoFactor orchestre l'enrôlement, l'activation et la vérification TOTP.
type TwoFactor struct {
	store TwoFactorStore
	totp  *TOTP
	log   *zap.Logger

	// Anti-rejeu : "secret:code" → expiration
	mu        sync.Mutex
	usedCodes map[string]time.Time
}

func NewTwoFactor(store TwoFactorStore, t *TOTP, log *zap.Logger) *TwoFactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &TwoFactor{store: store, totp: t, log: log, usedCodes: make(map[string]time.Time)}
}

// CheckStatus retourne Configured=true si un secret actif existe ; sinon un
// nouveau secret est généré et enregistré comme inactif (écrase l'ancien
// secret en attente).
func (f *TwoFactor) CheckStatus(ctx context.Context, userID int64) (*TwoFactorStatus, error) {
	_, active, err := f.store.ActiveSecret(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read 2FA status: %w", err)
	}
	if active {
		return &TwoFactorStatus{Configured: true}, nil
	}

	secret, err := f.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := f.store.UpsertPendingSecret(ctx, userID, secret); err != nil {
		return nil, fmt.Errorf("save pending 2FA secret: %w", err)
	}
	f.log.Info("2FA enrollment started", zap.Int64("user_id", userID))
	return &TwoFactorStatus{Secret: secret}, nil
}

// Activate active le secret en attente si le code prouve sa possession.
// Un code invalide, un secret jamais émis par CheckStatus ou un
// enregistrement déjà actif retournent ErrInvalidCode sans rien écrire.
func (f *TwoFactor) Activate(ctx context.Context, userID int64, secret, code string) error {
	if !f.totp.Verify(secret, code) {
		f.log.Warn("invalid 2FA setup code", zap.Int64("user_id", userID))
		return ErrInvalidCode
	}
	activated, err := f.store.ActivateSecret(ctx, userID, secret)
	if err != nil {
		return fmt.Errorf("activate 2FA: %w", err)
	}
	if !activated {
		f.log.Warn("2FA activation for a secret that is not pending", zap.Int64("user_id", userID))
		return ErrInvalidCode
	}
	f.log.Info("2FA activated", zap.Int64("user_id", userID))
	return nil
}

func (f *TwoFactor) ActiveSecret(ctx context.Context, userID int64) (string, bool, error) {
	return f.store.ActiveSecret(ctx, userID)
}

// VerifyLoginCode accepte un code valide une seule fois : le même code
// rejoué pendant sa fenêtre de validité est refusé.
func (f *TwoFactor) VerifyLoginCode(secret, code string) bool {
	now := f.totp.now()
	key := secret + ":" + strings.TrimSpace(code)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeUsedLocked(now)

	if !f.totp.Verify(secret, code) {
		return false
	}
	if _, used := f.usedCodes[key]; used {
		f.log.Warn("2FA code replay rejected")
		return false
	}
	f.usedCodes[key] = now.Add(usedCodeTTL)
	return true
}

func (f *TwoFactor) purgeUsedLocked(now time.Time) {
	for k, exp := range f.usedCodes {
		if !now.Before(exp) {
			delete(f.usedCodes, k)
		}
	}
}

// Reset supprime l'enregistrement ; le prochain CheckStatus ré-enrôle.
func (f *TwoFactor) Reset(ctx context.Context, userID int64) error {
	if err := f.store.DeleteSecret(ctx, userID); err != nil {
		return fmt.Errorf("reset 2FA: %w", err)
	}
	f.log.Info("2FA reset", zap.Int64("user_id", userID))
	return nil
}

func (f *TwoFactor) ProvisioningURI(accountLabel, secret string) (string, error) {
	return f.totp.ProvisioningURI(accountLabel, secret)
}
