package handlers

import (
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/internal/providers"
)

// HandleRoot answers the service banner.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]string{"message": "PDF Highlight API is running"})
}

// HandleHealthcheck reports service health. Detection is flagged as
// degraded when no credentialed provider is configured; conversion and
// simulation still work in that state.
func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	detection := "ok"
	if !providers.AnyConfigured() {
		detection = "degraded: no detection provider configured"
	}

	h.writeJSON(w, map[string]string{
		"status":    "ok",
		"detection": detection,
	})
}
