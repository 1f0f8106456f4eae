package router

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
)

// MiddlewareRateLimit throttles a route per client IP using the given limiter.
//
// Intended as a per-route middleware on high-abuse endpoints.
func MiddlewareRateLimit(limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(key); err == nil {
				key = host
			}

			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
			}
			if !ok {
				writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
