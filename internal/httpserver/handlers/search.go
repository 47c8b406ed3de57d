package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/logger"
	"github.com/MrSnakeDoc/komiku/internal/upstream"
)

const shortQueryMessage = "Query must be at least 2 characters"

type searchResponse struct {
	Query   string                `json:"query,omitempty"`
	Type    string                `json:"type,omitempty"`
	Count   int                   `json:"count"`
	Results []domain.SearchResult `json:"results"`
	Message string                `json:"message,omitempty"`
}

// Search runs the combined search.
//
//	GET /api/search?q=<query>&type=anime|komik&limit=20
//
// Without type both domains are searched and share the limit.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		query, ok := upstream.NormalizeQuery(q.Get("q"))
		if !ok {
			writeJSON(w, d.Logger, http.StatusOK, searchResponse{
				Results: []domain.SearchResult{},
				Message: shortQueryMessage,
			})
			return
		}

		var only domain.ContentType
		label := "all"
		if raw := strings.TrimSpace(q.Get("type")); raw != "" && raw != "all" {
			t, err := domain.ParseContentType(raw)
			if err != nil {
				writeError(w, d.Logger, http.StatusBadRequest, "invalid type, must be 'komik' or 'anime'")
				return
			}
			only, label = t, string(t)
		}

		limit := upstream.NormalizeLimit(queryInt(r, "limit", upstream.DefaultSearchLimit))
		results := d.Content.Search(r.Context(), query, only, limit)

		d.Logger.Info("search request",
			logger.String("query", query),
			logger.String("type", label),
			logger.Int("results", len(results)))

		writeJSON(w, d.Logger, http.StatusOK, searchResponse{
			Query:   query,
			Type:    label,
			Count:   len(results),
			Results: results,
		})
	}
}
