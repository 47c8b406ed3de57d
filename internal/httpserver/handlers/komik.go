package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
)

// KomikLatest lists the latest updates. ?type selects the feed variant.
func KomikLatest(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Content.KomikLatest(r.Context(), r.URL.Query().Get("type"))
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: list})
	}
}

func KomikPopular(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Content.KomikPopular(r.Context(), queryInt(r, "page", 1))
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: list})
	}
}

// KomikRecommended lists recommendations. ?type is manhwa, manhua or manga.
func KomikRecommended(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Content.KomikRecommended(r.Context(), r.URL.Query().Get("type"))
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: list})
	}
}

func KomikDetail(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k := d.Content.KomikDetail(r.Context(), chi.URLParam(r, "mangaId"))
		if k == nil {
			writeError(w, d.Logger, http.StatusNotFound, "komik not found")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: k})
	}
}

func KomikChapters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Content.KomikChapters(r.Context(), chi.URLParam(r, "mangaId"))
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: list})
	}
}

func KomikImages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Content.KomikImages(r.Context(), chi.URLParam(r, "chapterId"))
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: list})
	}
}
