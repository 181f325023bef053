package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"recruit-intake/internal/store"
)

type SubmissionsHandler struct {
	DB *store.DB
}

// List returns recorded attempts, newest first. Supports ?form= and ?limit=.
func (h SubmissionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		writeJSON(w, []store.Submission{})
		return
	}
	q := r.URL.Query()
	opts := store.ListOpts{FormID: q.Get("form")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	subs, err := h.DB.ListSubmissions(r.Context(), opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if subs == nil {
		subs = []store.Submission{}
	}
	writeJSON(w, subs)
}

func (h SubmissionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", "submission not found")
		return
	}
	s, err := h.DB.GetSubmission(r.Context(), muxVar(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "submission not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, s)
}
