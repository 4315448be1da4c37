package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hoverlearn/hoverlearn/internal/config"
	"github.com/hoverlearn/hoverlearn/internal/identity"
)

// NewRouter wires the chi router: public lookup and catalog routes, and
// bearer-token protected routes for everything tied to a user.
func NewRouter(h *Handler, cfg config.ServerConfig, authSecret []byte, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(newLogMiddleware(logger))
	r.Use(newCORSMiddleware(cfg.CORS))

	r.Get("/health", h.HealthCheck)
	r.Get("/get-def/{word}", h.GetDefinition)
	r.Get("/videos", h.ListVideos)

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(authSecret))

		r.Post("/save-word/{word}", h.SaveWord)
		r.Delete("/words/{word}", h.DeleteSavedWord)
		r.Get("/my-list", h.MyList)

		r.Get("/videos/{id}/watch", h.Watch)
		r.Post("/videos/{id}/notes", h.CreateNote)
		r.Delete("/notes/{id}", h.DeleteNote)
		r.Post("/update-history", h.UpdateHistory)
		r.Post("/videos/{id}/vote/{type}", h.VoteVideo)
	})

	return r
}
