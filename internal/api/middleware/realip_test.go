package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clientIPSeen(t *testing.T, proxies []netip.Prefix, remote string, headers map[string]string) string {
	t.Helper()
	var seen string
	h := TrustedRealIP(proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return seen
}

func TestTrustedRealIPIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	headers := map[string]string{
		"X-Forwarded-For": "203.0.113.50",
		"X-Real-IP":       "203.0.113.51",
		"True-Client-IP":  "203.0.113.52",
	}

	assert.Equal(t, "198.51.100.7", clientIPSeen(t, nil, "198.51.100.7:40000", headers))

	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	assert.Equal(t, "198.51.100.7", clientIPSeen(t, proxies, "198.51.100.7:40000", headers))
}

func TestTrustedRealIPHonoursConfiguredProxy(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	got := clientIPSeen(t, proxies, "10.1.2.3:40000", map[string]string{"X-Real-IP": "203.0.113.9"})
	assert.Equal(t, "203.0.113.9", got)

	got = clientIPSeen(t, proxies, "10.1.2.3:40000", nil)
	assert.Equal(t, "10.1.2.3", got)
}
