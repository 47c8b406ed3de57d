package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/komiku/internal/httpserver/deps"
)

// Home returns every landing page feed in one document. A feed that could
// not be loaded is an empty list.
func Home(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, dataResponse{Data: d.Content.Homepage(r.Context())})
	}
}
