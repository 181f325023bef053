package httpapi

import (
	"net/http"

	"recruit-intake/internal/events"
	"recruit-intake/internal/session"
)

type HealthHandler struct {
	Sessions *session.Store
	Hub      *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{"ok": true}
	if h.Sessions != nil {
		out["live_forms"] = h.Sessions.Len()
	}
	if h.Hub != nil {
		out["subscribers"] = h.Hub.Subscribers()
	}
	writeJSON(w, out)
}
