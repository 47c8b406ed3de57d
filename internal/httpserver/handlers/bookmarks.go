package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

type bookmarkRequest struct {
	Type      string `json:"type"`
	ItemID    string `json:"itemId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

type bookmarksResponse struct {
	Bookmarks []domain.BookmarkEntry `json:"bookmarks"`
}

type bookmarkedResponse struct {
	Bookmarked bool `json:"bookmarked"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// ListBookmarks returns the bookmarks, newest first. ?type filters by domain.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Library.Bookmarks(r.Context())

		if raw := r.URL.Query().Get("type"); raw != "" {
			t, err := domain.ParseContentType(raw)
			if err != nil {
				writeError(w, d.Logger, http.StatusBadRequest, "invalid type, must be 'komik' or 'anime'")
				return
			}
			filtered := make([]domain.BookmarkEntry, 0, len(list))
			for _, b := range list {
				if b.Type == t {
					filtered = append(filtered, b)
				}
			}
			list = filtered
		}

		writeJSON(w, d.Logger, http.StatusOK, bookmarksResponse{Bookmarks: list})
	}
}

func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, t, ok := readBookmark(w, r, d)
		if !ok {
			return
		}

		d.Library.AddBookmark(r.Context(), t, req.ItemID, req.Title, req.Thumbnail)
		d.Logger.Info("bookmark added",
			logger.String("type", string(t)),
			logger.String("item", req.ItemID))

		writeJSON(w, d.Logger, http.StatusCreated, bookmarkedResponse{Bookmarked: true})
	}
}

// RemoveBookmark deletes every bookmark of ?type and ?itemId.
func RemoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		t, itemID, err := itemKey(q.Get("type"), q.Get("itemId"))
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		d.Library.RemoveBookmark(r.Context(), t, itemID)
		writeJSON(w, d.Logger, http.StatusOK, successResponse{Success: true})
	}
}

// ToggleBookmark adds the item when absent and removes it otherwise, and
// reports the resulting state.
func ToggleBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, t, ok := readBookmark(w, r, d)
		if !ok {
			return
		}

		on := d.Library.ToggleBookmark(r.Context(), t, req.ItemID, req.Title, req.Thumbnail)
		writeJSON(w, d.Logger, http.StatusOK, bookmarkedResponse{Bookmarked: on})
	}
}

func CheckBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		t, itemID, err := itemKey(q.Get("type"), q.Get("itemId"))
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, d.Logger, http.StatusOK, bookmarkedResponse{
			Bookmarked: d.Library.IsBookmarked(r.Context(), t, itemID),
		})
	}
}

// readBookmark decodes and validates a bookmark body. On failure the error
// response is already written.
func readBookmark(w http.ResponseWriter, r *http.Request, d deps.Deps) (bookmarkRequest, domain.ContentType, bool) {
	var req bookmarkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, d.Logger, http.StatusBadRequest, err.Error())
		return req, "", false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Type == "" || strings.TrimSpace(req.ItemID) == "" || req.Title == "" {
		writeError(w, d.Logger, http.StatusBadRequest, "missing required fields: type, itemId, title")
		return req, "", false
	}

	t, itemID, err := itemKey(req.Type, req.ItemID)
	if err != nil {
		writeError(w, d.Logger, http.StatusBadRequest, err.Error())
		return req, "", false
	}
	req.ItemID = itemID
	return req, t, true
}
