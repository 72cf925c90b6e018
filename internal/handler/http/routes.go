package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withLoggerContext)
	router.Use(h.withLogging)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.listItems)
			r.Put("/{id}", h.upsertItem)
			r.Delete("/{id}", h.deleteItem)
		})
	})

	return router
}
