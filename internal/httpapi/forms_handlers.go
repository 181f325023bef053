package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"recruit-intake/internal/events"
	"recruit-intake/internal/form"
	"recruit-intake/internal/metrics"
	"recruit-intake/internal/session"
	"recruit-intake/internal/submit"
	"recruit-intake/internal/tagset"
)

type FormsHandler struct {
	Sessions *session.Store
	Hub      *events.Hub
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

type tagFieldView struct {
	Field      string        `json:"field"`
	Label      string        `json:"label"`
	Required   bool          `json:"required"`
	Chips      []tagset.Chip `json:"chips"`
	Serialized string        `json:"serialized"`
}

type formView struct {
	ID     string         `json:"id"`
	Tags   []tagFieldView `json:"tags"`
	Submit submit.View    `json:"submit"`
}

type outcomeView struct {
	Kind        string `json:"kind"`
	RequestID   string `json:"request_id,omitempty"`
	Message     string `json:"message,omitempty"`
	Unreachable bool   `json:"unreachable,omitempty"`
}

type submitResponse struct {
	AttemptID string       `json:"attempt_id,omitempty"`
	State     submit.State `json:"state"`
	Outcome   *outcomeView `json:"outcome,omitempty"`
	View      submit.View  `json:"view"`
}

type confirmTagReq struct {
	Entry string `json:"entry"`
}

type submitReq struct {
	Fields map[string]string `json:"fields"`
}

func tagView(f *form.Form, name string) (tagFieldView, error) {
	ts, err := f.Tags(name)
	if err != nil {
		return tagFieldView{}, err
	}
	fd, _ := f.Field(name)
	return tagFieldView{
		Field:      name,
		Label:      fd.Label,
		Required:   fd.Required,
		Chips:      ts.Chips(),
		Serialized: ts.Serialize(),
	}, nil
}

func viewOf(e *session.Entry) formView {
	v := formView{ID: e.Form.ID, Tags: []tagFieldView{}, Submit: e.Pipeline.View()}
	for _, ts := range e.Form.TagSets() {
		tv, _ := tagView(e.Form, ts.FieldKey())
		v.Tags = append(v.Tags, tv)
	}
	return v
}

func outcomeOf(o submit.Outcome) *outcomeView {
	if o == nil {
		return nil
	}
	ov := &outcomeView{Kind: o.Kind()}
	switch x := o.(type) {
	case submit.Success:
		ov.RequestID = x.RequestID
	case submit.Failure:
		ov.Message = x.Message
	case submit.TransportError:
		ov.Message = o.Err().Error()
		ov.Unreachable = x.Unreachable
	}
	return ov
}

func (h FormsHandler) entry(w http.ResponseWriter, r *http.Request) (*session.Entry, bool) {
	e, err := h.Sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "form_not_found", err.Error())
		return nil, false
	}
	return e, true
}

// New starts a blank form and sends the browser to it.
func (h FormsHandler) New(w http.ResponseWriter, r *http.Request) {
	e := h.Sessions.Create()
	http.Redirect(w, r, "/forms/"+e.Form.ID, http.StatusSeeOther)
}

func (h FormsHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, viewOf(e))
}

func (h FormsHandler) ConfirmTag(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	field := mux.Vars(r)["field"]

	var req confirmTagReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	added, err := e.Form.Confirm(field, req.Entry)
	switch {
	case errors.Is(err, form.ErrUnknownField):
		WriteError(w, r, http.StatusNotFound, "unknown_field", err.Error())
		return
	case errors.Is(err, tagset.ErrDelimiter):
		WriteError(w, r, http.StatusBadRequest, "invalid_entry", err.Error())
		return
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	tv, _ := tagView(e.Form, field)
	writeJSON(w, map[string]any{"added": added, "tags": tv})
}

func (h FormsHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	field := vars["field"]

	removed, err := e.Form.Remove(field, vars["token"])
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "unknown_field", err.Error())
		return
	}
	tv, _ := tagView(e.Form, field)
	writeJSON(w, map[string]any{"removed": removed, "tags": tv})
}

func (h FormsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}

	var req submitReq
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Fields == nil {
		req.Fields = map[string]string{}
	}

	res, err := e.Pipeline.Submit(r.Context(), req.Fields)

	var verr *submit.ValidationError
	switch {
	case errors.As(err, &verr):
		if h.Metrics != nil {
			h.Metrics.ValidationBlocks.WithLabelValues(verr.Field).Inc()
		}
		writeErrorField(w, r, http.StatusUnprocessableEntity, "validation_failed", verr.Error(), verr.Field)
		return
	case errors.Is(err, submit.ErrInFlight):
		WriteError(w, r, http.StatusConflict, "submission_in_flight", err.Error())
		return
	case errors.Is(err, submit.ErrAlreadySubmitted):
		WriteError(w, r, http.StatusConflict, "already_submitted", err.Error())
		return
	case errors.Is(err, submit.ErrRetired):
		WriteError(w, r, http.StatusConflict, "form_reset", err.Error())
		return
	}

	// remote rejections and transport failures are reported in the body
	writeJSON(w, submitResponse{
		AttemptID: res.AttemptID,
		State:     res.State,
		Outcome:   outcomeOf(res.Outcome),
		View:      e.Pipeline.View(),
	})
}

func (h FormsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, err := h.Sessions.Reset(id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "form_not_found", err.Error())
		return
	case errors.Is(err, submit.ErrInFlight):
		WriteError(w, r, http.StatusConflict, "submission_in_flight", err.Error())
		return
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if h.Hub != nil {
		h.Hub.Publish(id, events.MakeEvent(RequestIDFrom(r.Context()), id, events.TypeFormReset, 1, nil))
	}
	writeJSON(w, viewOf(e))
}

// Create starts a blank form for API clients.
func (h FormsHandler) Create(w http.ResponseWriter, r *http.Request) {
	e := h.Sessions.Create()
	WriteJSON(w, http.StatusCreated, viewOf(e))
}
