package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/zettel/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.FilterByTags)
		r.Post("/", h.CreateNote)
		r.Get("/recent", h.Recent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Get("/tags", h.NoteTags)
			r.Post("/tags", h.AddTag)
			r.Delete("/tags/{tag}", h.RemoveTag)
			r.Post("/promote", h.Promote)
		})
	})

	r.Get("/search", h.Search)
	r.Get("/tags", h.SearchTags)
	r.Get("/articles", h.Articles)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
