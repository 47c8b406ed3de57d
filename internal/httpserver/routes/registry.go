package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/mw"
)

// APIPrefix is where the public content and library routes are mounted.
const APIPrefix = "/api"

// rateLimitMaxEntries bounds the per-IP bucket map of the public API.
const rateLimitMaxEntries = 10_000

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var (
	registry    []entry
	apiRegistry []Registrar
)

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAPI adds a registrar to the rate limited /api group.
func RegisterAPI(reg Registrar) {
	apiRegistry = append(apiRegistry, reg)
}

// Called once from httpserver.NewRouter()
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(e.mws...) // apply per-route middlewares
		e.reg(sub, d)
	}

	if len(apiRegistry) == 0 {
		return
	}

	// One limiter for the whole group so every /api route draws from the
	// same per-IP bucket.
	r.Route(APIPrefix, func(api chi.Router) {
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateBurst,
			RefillPerIPPerMin: d.RatePerMin,
			MaxEntries:        rateLimitMaxEntries,
			TrustProxy:        d.TrustProxy,
		}))
		for _, reg := range apiRegistry {
			reg(api, d)
		}
	})
}
