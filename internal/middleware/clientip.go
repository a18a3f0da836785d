package middleware

import (
	"context"
	"net/http"
)

const clientIPContextKey contextKey = "client_ip"

// WithClientIP resolves the caller's address once, from the proxy headers
// via GetClientIP, and stores it in the context for the request logger
// and rate limiter. The headers are spoofable; only deploy behind a
// proxy that overwrites them.
func WithClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPContextKey, GetClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIPFromContext returns the address stored by WithClientIP, or
// an empty string when the middleware did not run.
func GetClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPContextKey).(string); ok {
		return ip
	}
	return ""
}
