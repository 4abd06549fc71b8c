package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const loggerContextKey contextKey = "logger"

// RequestLogger remplace middleware.Logger de chi : une ligne zap par requête,
// et un logger enrichi du request_id disponible via LoggerFrom.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With(
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := context.WithValue(r.Context(), loggerContextKey, reqLog)

			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLog.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// LoggerFrom retourne le logger de la requête, ou un logger muet.
func LoggerFrom(r *http.Request) *zap.Logger {
	if log, ok := r.Context().Value(loggerContextKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}
