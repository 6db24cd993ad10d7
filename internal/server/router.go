// Package server wires the HTTP API: routing, auth, and rate limiting.
package server

import (
	"net/http"
	"time"

	"github.com/rosterd/rosterd/internal/server/handlers"
	"github.com/rosterd/rosterd/internal/server/ratelimit"
	"github.com/rosterd/rosterd/internal/storage"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(db *storage.Database, jwtSecret []byte, loginLimiter *ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(db, jwtSecret)

	// Health check
	mux.Handle("GET /api/health", Wrap(h.Health))

	// Auth
	mux.Handle("POST /api/login", ratelimit.Middleware(loginLimiter, Wrap(h.Login)))
	mux.Handle("GET /api/me", Wrap(h.Me))

	// Users (admin)
	mux.Handle("GET /api/users", RequireAdmin(Wrap(h.ListUsers)))
	mux.Handle("POST /api/users", RequireAdmin(WrapStatus(http.StatusCreated, h.CreateUser)))
	mux.Handle("DELETE /api/users/{id}", RequireAdmin(Wrap(h.DeleteUser)))

	// Characters
	mux.Handle("GET /api/characters", Wrap(h.ListCharacters))
	mux.Handle("GET /api/characters/by-user/{userId}", RequireAdmin(Wrap(h.CharactersByUser)))
	mux.Handle("POST /api/characters", RequireAdmin(http.HandlerFunc(h.CreateCharacter)))
	mux.Handle("PUT /api/characters/{id}", RequireAdmin(http.HandlerFunc(h.UpdateCharacter)))
	mux.Handle("DELETE /api/characters/{id}", RequireAdmin(Wrap(h.DeleteCharacter)))
	mux.Handle("GET /api/characters/{id}/portrait", http.HandlerFunc(h.Portrait))

	// Session log
	mux.Handle("GET /api/sessions", Wrap(h.ListSessions))
	mux.Handle("POST /api/sessions", RequireAdmin(WrapStatus(http.StatusCreated, h.CreateSession)))
	mux.Handle("PUT /api/sessions/{id}", RequireAdmin(Wrap(h.UpdateSession)))
	mux.Handle("DELETE /api/sessions/{id}", RequireAdmin(Wrap(h.DeleteSession)))

	// Planned sessions
	mux.Handle("GET /api/upcoming-sessions", Wrap(h.ListUpcomingSessions))
	mux.Handle("POST /api/upcoming-sessions", RequireAdmin(WrapStatus(http.StatusCreated, h.CreateUpcomingSession)))
	mux.Handle("PUT /api/upcoming-sessions/{id}", RequireAdmin(Wrap(h.UpdateUpcomingSession)))
	mux.Handle("DELETE /api/upcoming-sessions/{id}", RequireAdmin(Wrap(h.DeleteUpcomingSession)))

	// Locally uploaded character images; the remote medium serves portraits
	// through the API endpoint instead.
	if uploads := db.Uploads(); uploads != nil {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir()))))
	}

	return AuthMiddleware(jwtSecret)(mux)
}

// NewLoginLimiter creates the rate limiter guarding the login endpoint.
func NewLoginLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(10, time.Minute, 10)
}
