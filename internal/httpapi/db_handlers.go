package httpapi

import (
	"net"
	"net/http"

	"recruit-intake/internal/store"
)

type DBHandler struct {
	DB *store.DB
}

// Checkpoint folds the WAL into the main database file. Loopback only.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	if h.DB == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "no_database", "ledger is not open")
		return
	}

	if err := h.DB.Checkpoint(r.Context()); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "checkpoint_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
