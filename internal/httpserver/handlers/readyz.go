package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

const probeTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Readyz reports ready when every registered probe answers. An instance
// without probes (memory backends only) is always ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := runProbes(r.Context(), d.Probes)

		resp := readyzResponse{Ready: true, Checks: map[string]string{}}
		for name, err := range results {
			if err != nil {
				resp.Ready = false
				resp.Checks[name] = err.Error()
				d.Logger.Warn("readiness probe failed", logger.String("component", name), logger.Error(err))
				continue
			}
			resp.Checks[name] = "ok"
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, d.Logger, status, resp)
	}
}

// runProbes runs every probe concurrently, each bounded by probeTimeout.
func runProbes(ctx context.Context, probes map[string]deps.Probe) map[string]error {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(probes))
	)

	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe deps.Probe) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			err := probe(pctx)

			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, probe)
	}
	wg.Wait()
	return results
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
