package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

type revalidateResponse struct {
	Revalidated   bool     `json:"revalidated"`
	Tags          []string `json:"tags"`
	Entries       int      `json:"entries"`
	WarmTriggered bool     `json:"warmTriggered"`
}

// Revalidate drops every cached response carrying one of the ?tag values
// (repeatable or comma separated), then asks the warmer to refill the
// homepage feeds.
func Revalidate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags := parseTags(r.URL.Query()["tag"])
		if len(tags) == 0 {
			writeError(w, d.Logger, http.StatusBadRequest, "missing tag parameter")
			return
		}

		n, err := d.Content.Invalidate(r.Context(), tags...)
		if err != nil {
			d.Logger.Error("revalidation failed",
				logger.Strings("tags", tags),
				logger.String("remote_ip", r.RemoteAddr),
				logger.Error(err))
			writeError(w, d.Logger, http.StatusInternalServerError, "failed to invalidate cache")
			return
		}

		warmed := false
		if d.WarmTrigger != nil {
			select {
			case d.WarmTrigger <- struct{}{}:
				warmed = true
			default:
				d.Logger.Debug("homepage warm already pending")
			}
		}

		d.Logger.Info("revalidation triggered via endpoint",
			logger.Strings("tags", tags),
			logger.Int("entries", n),
			logger.Bool("warm_triggered", warmed),
			logger.String("remote_ip", r.RemoteAddr))

		writeJSON(w, d.Logger, http.StatusOK, revalidateResponse{
			Revalidated:   true,
			Tags:          tags,
			Entries:       n,
			WarmTriggered: warmed,
		})
	}
}

func parseTags(values []string) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0, len(values))
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}
