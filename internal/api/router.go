package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trubochisty/culvert-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Open endpoints
		r.Get("/health", s.handleHealth)
		r.Post("/auth/sign-up", s.handleSignUp)
		r.Post("/auth/sign-in", s.handleSignIn)
		r.Post("/auth/validate", s.handleValidate)
		r.Post("/auth/refresh", s.handleRefresh)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/logout", s.handleLogout)

			r.Route("/culverts", func(r chi.Router) {
				r.With(s.requireOperation(auth.OpCulvertRead)).Get("/", s.handleListCulverts)
				r.With(s.requireOperation(auth.OpCulvertCreate)).Post("/", s.handleCreateCulvert)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requireOperation(auth.OpCulvertRead)).Get("/", s.handleGetCulvert)
					r.With(s.requireOperation(auth.OpCulvertUpdate)).Put("/", s.handleUpdateCulvert)
					r.With(s.requireOperation(auth.OpCulvertDelete)).Delete("/", s.handleDeleteCulvert)
				})
			})

			r.With(s.requireOperation(auth.OpUserList)).Get("/users", s.handleListUsers)
			r.With(s.requireOperation(auth.OpAuditRead)).Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
