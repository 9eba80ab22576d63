package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"face-profile/internal/profile"
	"face-profile/internal/web/handlers"
	"face-profile/internal/web/middleware"
)

func (s *Server) setupRoutes(ctx context.Context) error {
	// Create handlers
	authHandler, err := handlers.NewAuthHandler(ctx, s.config.OIDC, s.sessionManager)
	if err != nil {
		return fmt.Errorf("setting up auth handler: %w", err)
	}

	workflow := profile.NewWorkflow(s.services.Directory, s.services.Faces, s.services.Blobs)
	profileHandler := handlers.NewProfileHandler(s.services.Directory, workflow, s.services.Blobs, s.config.Countries)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes drive the browser through the code flow
		r.Get("/auth/login", authHandler.Login)
		r.Get("/auth/callback", authHandler.Callback)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Everything else requires a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			r.Get("/profile", profileHandler.Get)
			r.Get("/profile/edit", profileHandler.EditForm)

			// Mutations additionally need the session's CSRF token
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCSRF())

				r.Post("/profile", profileHandler.Update)
				r.Delete("/profile/picture", profileHandler.DeletePicture)
			})
		})
	})

	s.router.Get("/", s.serveHome)
	return nil
}

// serveHome serves a minimal landing page pointing at the login flow.
func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Face Profile</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Face Profile</h1>
        <p><a href="/api/v1/auth/login">Sign in</a> to manage your profile and picture.</p>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
