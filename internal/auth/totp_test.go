package auth

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Vecteur RFC 6238 (SHA1) : secret "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTOTPGenerateSecret(t *testing.T) {
	tp := NewTOTP("")
	assert.Equal(t, DefaultTOTPIssuer, tp.Issuer())

	secret, err := tp.GenerateSecret()
	require.NoError(t, err)
	raw, err := decodeSecret(secret)
	require.NoError(t, err)
	assert.Len(t, raw, 20)

	other, err := tp.GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestTOTPKnownVector(t *testing.T) {
	at := time.Unix(59, 0)
	tp := NewTOTP("", WithClock(fixedClock(at)))

	code, err := tp.CodeAt(rfcSecret, at)
	require.NoError(t, err)
	assert.Equal(t, "287082", code)
	assert.True(t, tp.Verify(rfcSecret, "287082"))
}

func TestTOTPVerifyWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))

	current, err := tp.Code(rfcSecret)
	require.NoError(t, err)
	assert.True(t, tp.Verify(rfcSecret, current))

	previous, err := tp.CodeAt(rfcSecret, now.Add(-30*time.Second))
	require.NoError(t, err)
	assert.True(t, tp.Verify(rfcSecret, previous), "adjacent window accepted")

	stale, err := tp.CodeAt(rfcSecret, now.Add(-5*time.Minute))
	require.NoError(t, err)
	if stale != current && stale != previous {
		assert.False(t, tp.Verify(rfcSecret, stale))
	}
}

func TestTOTPVerifyRejectsGarbage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tp := NewTOTP("", WithClock(fixedClock(now)))

	current, err := tp.Code(rfcSecret)
	require.NoError(t, err)
	if current != "000000" {
		assert.False(t, tp.Verify(rfcSecret, "000000"))
	}

	assert.False(t, tp.Verify(rfcSecret, ""))
	assert.False(t, tp.Verify(rfcSecret, "12345"))
	assert.False(t, tp.Verify(rfcSecret, "abcdef"))
	assert.False(t, tp.Verify("", current))
	assert.False(t, tp.Verify("not base32 !!", current))
}

func TestTOTPProvisioningURI(t *testing.T) {
	tp := NewTOTP("Rank Roster")

	uri, err := tp.ProvisioningURI("admin", rfcSecret)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "Rank%20Roster")

	u, err := url.Parse(uri)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, rfcSecret, q.Get("secret"))
	assert.Equal(t, "Rank Roster", q.Get("issuer"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.True(t, strings.HasSuffix(u.Path, ":admin"))
}

func TestTOTPProvisioningURIInvalid(t *testing.T) {
	tp := NewTOTP("")

	_, err := tp.ProvisioningURI("", rfcSecret)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tp.ProvisioningURI("admin", "###")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQRCodeDataURL(t *testing.T) {
	uri, err := NewTOTP("").ProvisioningURI("admin", rfcSecret)
	require.NoError(t, err)

	data, err := QRCodeDataURL(uri)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data:image/png;base64,"))
	assert.Greater(t, len(data), 100)
}
