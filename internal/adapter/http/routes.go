package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the control surface on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.WS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Get("/status", h.Status)
		r.Get("/languages", h.Languages)
		r.Post("/reindex", h.Reindex)

		// Open documents (notebook cells, unsaved buffers)
		r.Put("/documents", h.PutDocument)
		r.Delete("/documents", h.DeleteDocument)
	})
}
