package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenTTL est la durée de vie d'un token de session.
const TokenTTL = 60 * time.Second

// SessionManager émet des tokens opaques (horodatage chiffré) et garde
// en mémoire l'ensemble des tokens encore valides. Un redémarrage du
// processus invalide toutes les sessions.
type SessionManager struct {
	cipher *Cipher
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger

	mu     sync.Mutex
	tokens map[string]struct{}
}

type SessionOption func(*SessionManager)

func WithTTL(ttl time.Duration) SessionOption {
	return func(m *SessionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

func WithSessionLogger(log *zap.Logger) SessionOption {
	return func(m *SessionManager) { m.log = log }
}

func NewSessionManager(c *Cipher, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		cipher: c,
		ttl:    TokenTTL,
		now:    time.Now,
		log:    zap.NewNop(),
		tokens: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue chiffre l'heure courante et enregistre le token.
func (m *SessionManager) Issue() (string, error) {
	token, err := m.cipher.Encrypt(formatTimestamp(m.now()))
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tokens[token] = struct{}{}
	m.mu.Unlock()

	m.log.Info("session token issued", zap.Duration("ttl", m.ttl))
	return token, nil
}

// Validate retourne false pour un token vide, inconnu, illisible ou expiré.
// Un token expiré est retiré de l'ensemble au premier contrôle.
func (m *SessionManager) Validate(token string) bool {
	if token == "" {
		m.log.Warn("empty session token")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[token]; !ok {
		m.log.Warn("session token not tracked")
		return false
	}

	issuedAt, err := m.issuedAt(token)
	if err != nil {
		m.log.Error("cannot decode session token", zap.Error(err))
		return false
	}
	if m.now().Sub(issuedAt) >= m.ttl {
		delete(m.tokens, token)
		m.log.Warn("expired session token removed")
		return false
	}
	return true
}

// Revoke retire un token (logout). Sans effet si le token est inconnu.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
}

// Sweep purge tous les tokens expirés et retourne le nombre retiré.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token := range m.tokens {
		issuedAt, err := m.issuedAt(token)
		if err != nil || now.Sub(issuedAt) >= m.ttl {
			delete(m.tokens, token)
			removed++
		}
	}
	return removed
}

// Run appelle Sweep périodiquement jusqu'à l'annulation du contexte.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Debug("expired session tokens swept", zap.Int("count", n))
			}
		}
	}
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *SessionManager) issuedAt(token string) (time.Time, error) {
	plain, err := m.cipher.Decrypt(token)
	if err != nil {
		return time.Time{}, err
	}
	return parseTimestamp(plain)
}

// Format "secondes.microsecondes".
func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

func parseTimestamp(s string) (time.Time, error) {
	secStr, fracStr, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, ErrTokenInvalidOrExpired
	}
	var usec int64
	if fracStr != "" {
		if len(fracStr) > 6 {
			fracStr = fracStr[:6]
		}
		fracStr += strings.Repeat("0", 6-len(fracStr))
		if usec, err = strconv.ParseInt(fracStr, 10, 64); err != nil {
			return time.Time{}, ErrTokenInvalidOrExpired
		}
	}
	return time.Unix(sec, usec*1000), nil
}
