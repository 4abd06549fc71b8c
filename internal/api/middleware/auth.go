package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const TokenContextKey contextKey = "session_token"

// TokenValidator est satisfait par auth.SessionManager.
type TokenValidator interface {
	Validate(token string) bool
}

// TokenFromHeader accepte "Bearer <token>" et, par compatibilité, le token brut.
func TokenFromHeader(header string) string {
	if !strings.Contains(header, "Bearer") {
		return strings.TrimSpace(header)
	}
	_, token, found := strings.Cut(header, " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func Authenticate(sessions TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, `{"error":"token missing"}`, http.StatusUnauthorized)
				return
			}

			token := TokenFromHeader(header)
			if !sessions.Validate(token) {
				LoggerFrom(r).Warn("request with invalid session token")
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), TokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetToken(r *http.Request) string {
	token, _ := r.Context().Value(TokenContextKey).(string)
	return token
}
