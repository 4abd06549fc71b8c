package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type totpRecord struct {
	secret string
	active bool
}

// memTwoFactorStore est une implémentation en mémoire de TwoFactorStore.
type memTwoFactorStore struct {
	mu      sync.Mutex
	records map[int64]totpRecord
	err     error
}

func newMemTwoFactorStore() *memTwoFactorStore {
	return &memTwoFactorStore{records: make(map[int64]totpRecord)}
}

func (s *memTwoFactorStore) ActiveSecret(_ context.Context, userID int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	rec, ok := s.records[userID]
	if !ok || !rec.active {
		return "", false, nil
	}
	return rec.secret, true, nil
}

func (s *memTwoFactorStore) UpsertPendingSecret(_ context.Context, userID int64, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; !ok || !rec.active {
		s.records[userID] = totpRecord{secret: secret}
	}
	return s.err
}

func (s *memTwoFactorStore) ActivateSecret(_ context.Context, userID int64, secret string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	rec, ok := s.records[userID]
	if !ok || rec.active || rec.secret != secret {
		return false, nil
	}
	s.records[userID] = totpRecord{secret: secret, active: true}
	return true, nil
}

// enable enregistre directement un secret actif.
func (s *memTwoFactorStore) enable(userID int64, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = totpRecord{secret: secret, active: true}
}

func (s *memTwoFactorStore) DeleteSecret(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return s.err
}

func (s *memTwoFactorStore) record(userID int64) (totpRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	return rec, ok
}

func TestTwoFactorEnrollmentFlow(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))
	store := newMemTwoFactorStore()
	tf := NewTwoFactor(store, tp, nil)

	status, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)
	assert.False(t, status.Configured)
	require.NotEmpty(t, status.Secret)

	rec, ok := store.record(1)
	require.True(t, ok)
	assert.Equal(t, status.Secret, rec.secret)
	assert.False(t, rec.active, "pending secret is inactive")

	code, err := tp.Code(status.Secret)
	require.NoError(t, err)
	require.NoError(t, tf.Activate(ctx, 1, status.Secret, code))

	status, err = tf.CheckStatus(ctx, 1)
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.Empty(t, status.Secret)

	secret, active, err := tf.ActiveSecret(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)
	assert.True(t, tf.VerifyLoginCode(secret, code))
}

func TestTwoFactorCheckStatusOverwritesPending(t *testing.T) {
	ctx := context.Background()
	store := newMemTwoFactorStore()
	tf := NewTwoFactor(store, NewTOTP(""), nil)

	first, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)
	second, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.Secret, second.Secret)
	rec, _ := store.record(1)
	assert.Equal(t, second.Secret, rec.secret)
}

func TestTwoFactorActivateInvalidCode(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))
	store := newMemTwoFactorStore()
	tf := NewTwoFactor(store, tp, nil)

	status, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)

	code, err := tp.Code(status.Secret)
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	err = tf.Activate(ctx, 1, status.Secret, wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	rec, _ := store.record(1)
	assert.False(t, rec.active, "invalid code writes nothing")
}

func TestTwoFactorReset(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))
	store := newMemTwoFactorStore()
	tf := NewTwoFactor(store, tp, nil)

	store.enable(1, rfcSecret)
	require.NoError(t, tf.Reset(ctx, 1))

	_, ok := store.record(1)
	assert.False(t, ok)

	status, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)
	assert.False(t, status.Configured)
	assert.NotEmpty(t, status.Secret)
}

func TestTwoFactorStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemTwoFactorStore()
	store.err = errors.New("connection refused")
	tf := NewTwoFactor(store, NewTOTP(""), nil)

	_, err := tf.CheckStatus(ctx, 1)
	assert.ErrorIs(t, err, store.err)

	assert.ErrorIs(t, tf.Reset(ctx, 1), store.err)
}

func TestTwoFactorActivateRequiresIssuedPendingSecret(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))
	store := newMemTwoFactorStore()
	tf := NewTwoFactor(store, tp, nil)

	code, err := tp.Code(rfcSecret)
	require.NoError(t, err)

	// Secret jamais émis : refusé même avec un code valide.
	assert.ErrorIs(t, tf.Activate(ctx, 1, rfcSecret, code), ErrInvalidCode)
	_, ok := store.record(1)
	assert.False(t, ok, "no record created")

	// Secret différent de celui en attente : refusé.
	status, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, tf.Activate(ctx, 1, rfcSecret, code), ErrInvalidCode)
	rec, _ := store.record(1)
	assert.Equal(t, status.Secret, rec.secret)
	assert.False(t, rec.active)
}

func TestTwoFactorActiveSecretCannotBeReplaced(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))
	store := newMemTwoFactorStore()
	tf := NewTwoFactor(store, tp, nil)

	status, err := tf.CheckStatus(ctx, 1)
	require.NoError(t, err)
	code, err := tp.Code(status.Secret)
	require.NoError(t, err)
	require.NoError(t, tf.Activate(ctx, 1, status.Secret, code))

	other, err := tp.GenerateSecret()
	require.NoError(t, err)
	otherCode, err := tp.Code(other)
	require.NoError(t, err)
	assert.ErrorIs(t, tf.Activate(ctx, 1, other, otherCode), ErrInvalidCode)

	// Une seconde activation du même secret ne réécrit rien non plus.
	assert.ErrorIs(t, tf.Activate(ctx, 1, status.Secret, code), ErrInvalidCode)

	secret, active, err := tf.ActiveSecret(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, status.Secret, secret)
}

func TestTwoFactorVerifyLoginCodeOnce(t *testing.T) {
	clock := newFakeClock()
	tp := NewTOTP("", WithClock(clock.Now))
	tf := NewTwoFactor(newMemTwoFactorStore(), tp, nil)

	code, err := tp.Code(rfcSecret)
	require.NoError(t, err)

	assert.False(t, tf.VerifyLoginCode(rfcSecret, "000000x"))
	assert.True(t, tf.VerifyLoginCode(rfcSecret, code))
	assert.False(t, tf.VerifyLoginCode(rfcSecret, code))
	assert.False(t, tf.VerifyLoginCode(rfcSecret, " "+code+" "))

	// Un code invalide n'est jamais mémorisé
	tf.mu.Lock()
	assert.Len(t, tf.usedCodes, 1)
	tf.mu.Unlock()

	// Les entrées expirées sont purgées
	clock.Advance(5 * time.Minute)
	assert.False(t, tf.VerifyLoginCode(rfcSecret, code), "stale code")
	tf.mu.Lock()
	assert.Empty(t, tf.usedCodes)
	tf.mu.Unlock()
}
