// Package server wires handlers, middleware and the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/doghouse/doghouse/internal/auth"
	apierrors "github.com/doghouse/doghouse/internal/errors"
	"github.com/doghouse/doghouse/internal/server/handlers"
	"github.com/doghouse/doghouse/internal/server/ratelimit"
	"github.com/doghouse/doghouse/internal/storage"
)

// Services holds the backing services the router dispatches to.
type Services struct {
	Users  *storage.UserService
	Dogs   *storage.DogService
	Issuer *auth.Issuer
}

// Config holds router-level configuration.
type Config struct {
	// Production replaces error detail with generic status text in responses.
	Production bool

	// RateLimits configures per-IP throttling; zero values disable it.
	RateLimits storage.RateLimits
}

// NewRouter creates and configures the HTTP router.
func NewRouter(svc *Services, cfg *Config) http.Handler {
	mux := http.NewServeMux()

	userHandler := handlers.NewUserHandler(svc.Users, svc.Issuer)
	dogHandler := handlers.NewDogHandler(svc.Dogs)

	requireAuth := RequireAuth(cfg, svc.Issuer, svc.Users)

	// Signup and login are throttled per client IP; everything else is not.
	limitAuth := func(h http.Handler) http.Handler { return h }
	if cfg.RateLimits.AuthRatePerMin > 0 {
		limiter := ratelimit.NewLimiter(cfg.RateLimits.AuthRatePerMin, time.Minute, cfg.RateLimits.AuthRatePerMin)
		limitAuth = RateLimit(cfg, limiter)
	}

	// Health check
	mux.Handle("GET /health", Wrap(cfg, http.StatusOK, handlers.Health))

	// User endpoints
	mux.Handle("POST /user/signup", limitAuth(Wrap(cfg, http.StatusCreated, userHandler.Signup)))
	mux.Handle("POST /user/login", limitAuth(Wrap(cfg, http.StatusOK, userHandler.Login)))
	mux.Handle("GET /user/{id}", Wrap(cfg, http.StatusOK, userHandler.GetUser))
	mux.Handle("PUT /user/{id}", requireAuth(Wrap(cfg, http.StatusOK, userHandler.UpdateUser)))
	mux.Handle("DELETE /user/{id}", requireAuth(Wrap(cfg, http.StatusNoContent, userHandler.DeleteUser)))

	// Dog endpoints
	mux.Handle("GET /dogs", Wrap(cfg, http.StatusOK, dogHandler.ListDogs))
	mux.Handle("GET /dogs/{id}", Wrap(cfg, http.StatusOK, dogHandler.GetDog))
	mux.Handle("POST /dogs", requireAuth(Wrap(cfg, http.StatusCreated, dogHandler.CreateDog)))
	mux.Handle("PUT /dogs/{id}", requireAuth(Wrap(cfg, http.StatusOK, dogHandler.UpdateDog)))
	mux.Handle("DELETE /dogs/{id}", requireAuth(Wrap(cfg, http.StatusNoContent, dogHandler.DeleteDog)))

	// Everything else is a 404 with the canonical body.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, nil, http.StatusNotFound, apierrors.ErrNotFound, "Not found")
	})

	return LogRequests(mux)
}
