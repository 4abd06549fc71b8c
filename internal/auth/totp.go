package auth

import (
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultTOTPIssuer est le nom affiché par les applications d'authentification.
const DefaultTOTPIssuer = "ValorantAccounts"

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1, // fenêtre courante ± 1 pas
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// TOTP génère et vérifie les codes à usage unique (RFC 6238).
type TOTP struct {
	issuer string
	now    func() time.Time
}

type TOTPOption func(*TOTP)

// WithClock remplace l'horloge utilisée pour calculer la fenêtre courante.
func WithClock(now func() time.Time) TOTPOption {
	return func(t *TOTP) { t.now = now }
}

func NewTOTP(issuer string, opts ...TOTPOption) *TOTP {
	if issuer == "" {
		issuer = DefaultTOTPIssuer
	}
	t := &TOTP{issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TOTP) Issuer() string { return t.issuer }

// GenerateSecret retourne un nouveau secret base32 (20 octets aléatoires).
func (t *TOTP) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: "enrollment",
		Period:      totpOpts.Period,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

// ProvisioningURI construit l'URI otpauth:// pour un secret existant
// (le QR est dérivé de cette URI).
func (t *TOTP) ProvisioningURI(accountLabel, secret string) (string, error) {
	if accountLabel == "" {
		return "", fmt.Errorf("%w: empty account label", ErrInvalidInput)
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: accountLabel,
		Period:      totpOpts.Period,
		Secret:      raw,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return key.URL(), nil
}

// Verify ne retourne jamais d'erreur : secret ou code mal formé → false.
func (t *TOTP) Verify(secret, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" || secret == "" {
		return false
	}
	if _, err := decodeSecret(secret); err != nil {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, t.now().UTC(), totpOpts)
	return err == nil && ok
}

// Code retourne le code valide pour la fenêtre courante.
func (t *TOTP) Code(secret string) (string, error) {
	return t.CodeAt(secret, t.now())
}

func (t *TOTP) CodeAt(secret string, at time.Time) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	code, err := totp.GenerateCodeCustom(secret, at.UTC(), totpOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return code, nil
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, fmt.Errorf("%w: empty totp secret", ErrInvalidInput)
	}
	raw, err := b32NoPadding.DecodeString(s)
	if err != nil || len(raw) == 0 {
		return nil, fmt.Errorf("%w: totp secret is not base32", ErrInvalidInput)
	}
	return raw, nil
}
