package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Bridge lifecycle
			r.Route("/bridges", func(r chi.Router) {
				r.Get("/", s.handleListBridges)
				r.Post("/", s.handleRegisterBridge)
				r.Post("/discover", s.handleDiscoverBridges)
				r.Post("/pair", s.handlePairBridge)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetBridge)
					r.Delete("/", s.handleDeregisterBridge)
					r.Post("/refresh", s.handleRefreshBridge)
				})
			})

			// Aggregate grid view
			r.Get("/grid", s.handleGetGrid)
			r.Post("/grid/refresh", s.handleRefreshGrid)

			// Lamp state
			r.Route("/lamps", func(r chi.Router) {
				r.Put("/state", s.handleSetLampStates)

				r.Route("/{ref}", func(r chi.Router) {
					r.Get("/state", s.handleGetLampState)
					r.Put("/state", s.handleSetLampState)
				})
			})

			// Group actions
			r.Route("/groups/{ref}", func(r chi.Router) {
				r.Get("/", s.handleGetGroup)
				r.Put("/action", s.handleGroupAction)
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
		"bridges": len(s.coordinator.ListBridges()),
	}
	if !s.startedAt.IsZero() {
		body["uptime_seconds"] = int(time.Since(s.startedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, body)
}
