package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// routes builds the router. The scenario catalog, script source, parse
// endpoint, and auth endpoints are public; everything touching sessions
// requires a token.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recovery(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Public routes are limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(rateLimitRequests(s.limiter, s.logger))

			r.Get("/scenarios", s.handleScenarios)
			r.Get("/scenarios/{id}/script", s.handleScriptSource)
			r.Post("/parse", s.handleParse)

			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		// Session routes run auth first so the limiter keys on user id.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth(s.tokens))
			r.Use(rateLimitRequests(s.limiter, s.logger))

			r.Post("/start", s.handleStart)
			r.Post("/chat", s.handleChat)
			r.Delete("/sessions/{id}", s.handleEndSession)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}
