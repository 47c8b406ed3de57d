package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerLibrary) }

func registerLibrary(r chi.Router, d deps.Deps) {
	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.AddBookmark(d))
		r.Delete("/", handlers.RemoveBookmark(d))
		r.Post("/toggle", handlers.ToggleBookmark(d))
		r.Get("/check", handlers.CheckBookmark(d))
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", handlers.ListHistory(d))
		r.Post("/", handlers.AddHistory(d))
		r.Delete("/", handlers.RemoveHistory(d))
		r.Get("/progress", handlers.LastProgress(d))
	})
}
