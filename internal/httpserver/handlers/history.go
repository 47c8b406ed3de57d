package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/library"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

type historyResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

type progressResponse struct {
	Progress string `json:"progress"`
	Found    bool   `json:"found"`
}

// ListHistory returns the history, most recent first.
//
//	GET /api/history?type=komik|anime&limit=50
func ListHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var only domain.ContentType
		if raw := r.URL.Query().Get("type"); raw != "" {
			t, err := domain.ParseContentType(raw)
			if err != nil {
				writeError(w, d.Logger, http.StatusBadRequest, "invalid type, must be 'komik' or 'anime'")
				return
			}
			only = t
		}

		limit := queryInt(r, "limit", library.MaxHistoryEntries)
		if limit <= 0 || limit > library.MaxHistoryEntries {
			limit = library.MaxHistoryEntries
		}

		list := make([]domain.HistoryEntry, 0, limit)
		for _, h := range d.Library.History(r.Context()) {
			if len(list) == limit {
				break
			}
			if only == "" || h.Type == only {
				list = append(list, h)
			}
		}

		writeJSON(w, d.Logger, http.StatusOK, historyResponse{History: list})
	}
}

// AddHistory records progress on an item, moving it to the front.
func AddHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type          string `json:"type"`
			ItemID        string `json:"itemId"`
			Title         string `json:"title"`
			Thumbnail     string `json:"thumbnail"`
			Progress      string `json:"progress"`
			ProgressTitle string `json:"progressTitle"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		req.Title = strings.TrimSpace(req.Title)
		req.Progress = strings.TrimSpace(req.Progress)
		if req.Type == "" || strings.TrimSpace(req.ItemID) == "" || req.Title == "" || req.Progress == "" {
			writeError(w, d.Logger, http.StatusBadRequest, "missing required fields: type, itemId, title, progress")
			return
		}

		t, itemID, err := itemKey(req.Type, req.ItemID)
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		d.Library.AddToHistory(r.Context(), domain.HistoryInput{
			Type:          t,
			ItemID:        itemID,
			Title:         req.Title,
			Thumbnail:     req.Thumbnail,
			Progress:      req.Progress,
			ProgressTitle: req.ProgressTitle,
		})
		d.Logger.Debug("history updated",
			logger.String("type", string(t)),
			logger.String("item", itemID),
			logger.String("progress", req.Progress))

		writeJSON(w, d.Logger, http.StatusCreated, successResponse{Success: true})
	}
}

// RemoveHistory deletes one entry (?type&itemId) or, with ?clearAll=true,
// the whole history. clearAll combined with ?type only clears that domain.
func RemoveHistory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		ctx := r.Context()

		if q.Get("clearAll") == "true" {
			raw := q.Get("type")
			if raw == "" {
				d.Library.ClearHistory(ctx)
				writeJSON(w, d.Logger, http.StatusOK, successResponse{Success: true})
				return
			}

			t, err := domain.ParseContentType(raw)
			if err != nil {
				writeError(w, d.Logger, http.StatusBadRequest, "invalid type, must be 'komik' or 'anime'")
				return
			}
			for _, h := range d.Library.History(ctx) {
				if h.Type == t {
					d.Library.RemoveFromHistory(ctx, t, h.ItemID)
				}
			}
			writeJSON(w, d.Logger, http.StatusOK, successResponse{Success: true})
			return
		}

		t, itemID, err := itemKey(q.Get("type"), q.Get("itemId"))
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, err.Error()+" (or clearAll=true)")
			return
		}

		d.Library.RemoveFromHistory(ctx, t, itemID)
		writeJSON(w, d.Logger, http.StatusOK, successResponse{Success: true})
	}
}

// LastProgress returns where the user stopped on ?type and ?itemId.
func LastProgress(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		t, itemID, err := itemKey(q.Get("type"), q.Get("itemId"))
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}

		p, found := d.Library.GetLastProgress(r.Context(), t, itemID)
		writeJSON(w, d.Logger, http.StatusOK, progressResponse{Progress: p, Found: found})
	}
}
