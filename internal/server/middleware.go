package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/doghouse/doghouse/internal/auth"
	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/models"
	"github.com/doghouse/doghouse/internal/server/ratelimit"
	"github.com/doghouse/doghouse/internal/storage"
)

// RequireAuth validates the bearer credential and adds the resolved user to
// the request context. Missing, malformed, expired and unresolvable tokens
// all fail with 401 before the handler runs.
func RequireAuth(cfg *Config, issuer *auth.Issuer, userService *storage.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, cfg, http.StatusUnauthorized, apierrors.ErrUnauthenticated, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, cfg, http.StatusUnauthorized, apierrors.ErrUnauthenticated, "Invalid authorization header")
				return
			}

			userID, err := issuer.Verify(parts[1])
			if err != nil {
				writeError(w, cfg, http.StatusUnauthorized, apierrors.ErrUnauthenticated, "Invalid token")
				return
			}

			// The token may outlive its user.
			user, err := userService.GetByID(userID)
			if err != nil {
				writeError(w, cfg, http.StatusUnauthorized, apierrors.ErrUnauthenticated, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), models.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit applies a per-client-IP token bucket in front of next.
func RateLimit(cfg *Config, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Allow(clientIP(r))
			ratelimit.WriteHeaders(w, result)
			if !result.Allowed {
				writeError(w, cfg, http.StatusTooManyRequests, apierrors.ErrRateLimited, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LogRequests logs every request with method, path, status and duration.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.InfoContext(r.Context(), "Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
			"ip", clientIP(r))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap returns the underlying ResponseWriter for middleware that needs it.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// clientIP extracts the client IP from an HTTP request, checking
// X-Forwarded-For and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2".
	// The leftmost IP is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr, stripping port if present.
	addr := r.RemoteAddr
	// Handle IPv6 addresses like [::1]:8080.
	if strings.HasPrefix(addr, "[") {
		if host, _, found := strings.Cut(addr, "]:"); found {
			return host[1:]
		}
		return strings.Trim(addr, "[]")
	}
	if host, _, found := strings.Cut(addr, ":"); found {
		return host
	}
	return addr
}
