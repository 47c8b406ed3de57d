package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode string                     `json:"serving_mode"`
	Components  map[string]componentStatus `json:"components"`
}

// impacts describes what users lose when a probed component is down.
var impacts = map[string]string{
	"redis":  "cache-and-library-unavailable",
	"sqlite": "library-not-persisted",
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := runProbes(r.Context(), d.Probes)

		components := map[string]componentStatus{
			"cache":   {OK: true, Mode: d.CacheBackend},
			"library": {OK: true, Mode: d.LibraryBackend},
		}
		for _, name := range sortedKeys(results) {
			if err := results[name]; err != nil {
				components[name] = componentStatus{
					OK:     false,
					Mode:   "degraded",
					Impact: impacts[name],
					Error:  err.Error(),
				}
				continue
			}
			components[name] = componentStatus{OK: true, Mode: "optimal"}
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			ServingMode: determineServingMode(components),
			Components:  components,
		})
	}
}

// determineServingMode is "degraded" when any component is down. The
// upstream API is not probed: its failures already degrade per request.
func determineServingMode(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "optimal"
}
