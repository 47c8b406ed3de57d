package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/komiku/internal/httpserver/mw"
)

func init() { Register(registerRevalidate) }

func registerRevalidate(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/revalidate", handlers.Revalidate(d))
}
