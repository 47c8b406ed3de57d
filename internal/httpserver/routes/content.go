package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerContent) }

func registerContent(r chi.Router, d deps.Deps) {
	r.Get("/home", handlers.Home(d))
	r.Get("/search", handlers.Search(d))

	r.Route("/komik", func(r chi.Router) {
		r.Get("/latest", handlers.KomikLatest(d))
		r.Get("/popular", handlers.KomikPopular(d))
		r.Get("/recommended", handlers.KomikRecommended(d))
		r.Get("/images/{chapterId}", handlers.KomikImages(d))
		r.Get("/{mangaId}", handlers.KomikDetail(d))
		r.Get("/{mangaId}/chapters", handlers.KomikChapters(d))
	})

	r.Route("/anime", func(r chi.Router) {
		r.Get("/latest", handlers.AnimeLatest(d))
		r.Get("/recommended", handlers.AnimeRecommended(d))
		r.Get("/movies", handlers.AnimeMovies(d))
		r.Get("/video", handlers.AnimeVideo(d))
		r.Get("/{urlId}", handlers.AnimeDetail(d))
	})
}
