package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

func AnimeLatest(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: d.Content.AnimeLatest(r.Context())})
	}
}

func AnimeRecommended(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Content.AnimeRecommended(r.Context(), queryInt(r, "page", 1))
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: list})
	}
}

func AnimeMovies(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: d.Content.AnimeMovies(r.Context())})
	}
}

func AnimeDetail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := d.Content.AnimeDetail(r.Context(), chi.URLParam(r, "urlId"))
		if a == nil {
			writeError(w, d.Logger, http.StatusNotFound, "anime not found")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: a})
	}
}

// AnimeVideo resolves the stream of ?chapterUrlId at the preferred ?reso.
// The selection is returned unwrapped so players can read url directly.
func AnimeVideo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		episodeID := strings.TrimSpace(q.Get("chapterUrlId"))
		if episodeID == "" {
			writeError(w, d.Logger, http.StatusBadRequest, "missing chapterUrlId parameter")
			return
		}

		sel := d.Content.AnimeVideo(r.Context(), episodeID, q.Get("reso"))
		if sel == nil {
			d.Logger.Debug("video not found", logger.String("episode", episodeID))
			writeError(w, d.Logger, http.StatusNotFound, "video not found")
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, d.Logger, http.StatusOK, sel)
	}
}
