package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"recruit-intake/internal/config"
	"recruit-intake/internal/events"
	"recruit-intake/internal/form"
	"recruit-intake/internal/metrics"
	"recruit-intake/internal/session"
	"recruit-intake/internal/store"
	"recruit-intake/internal/submit"
	"recruit-intake/internal/tagset"
)

const ledgerWriteTimeout = 5 * time.Second

// Wiring connects new forms to the hub, metrics and ledger.
type Wiring struct {
	Fields  func() []config.Field
	Sender  submit.Sender
	Hub     *events.Hub
	DB      *store.DB
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Factory builds session entries whose tag sets and pipelines report to w.
func (w Wiring) Factory() session.Factory {
	return func(id string) *session.Entry {
		f := form.New(id, w.Fields())
		f.Observe(func(c tagset.Change) { w.tagChanged(id, c) })
		p := submit.NewPipeline(f, w.Sender, submit.Hooks{
			Transition: func(formID string, to submit.State) {
				w.publish(formID, events.TypeSubmissionState, map[string]any{"state": to})
			},
			Finished: w.finished,
		})
		return &session.Entry{Form: f, Pipeline: p}
	}
}

func (w Wiring) tagChanged(formID string, c tagset.Change) {
	if w.Metrics != nil {
		w.Metrics.TagMutations.WithLabelValues(c.Field, string(c.Op)).Inc()
	}
	typ := events.TypeTagAdded
	if c.Op == tagset.OpRemoved {
		typ = events.TypeTagRemoved
	}
	w.publish(formID, typ, c)
}

func (w Wiring) publish(formID, typ string, data any) {
	if w.Hub == nil {
		return
	}
	w.Hub.Publish(formID, events.MakeEvent("", formID, typ, 1, data))
}

func (w Wiring) finished(ctx context.Context, formID string, res submit.Result) {
	kind := res.Outcome.Kind()
	if w.Metrics != nil {
		w.Metrics.Submissions.WithLabelValues(kind).Inc()
		w.Metrics.SubmitDuration.Observe(res.Duration.Seconds())
	}

	rec := store.Submission{
		ID:         res.AttemptID,
		FormID:     formID,
		State:      string(res.State),
		Outcome:    kind,
		DurationMS: res.Duration.Milliseconds(),
	}
	switch o := res.Outcome.(type) {
	case submit.Success:
		rec.RequestID = o.RequestID
	case submit.Failure:
		rec.Message = o.Message
	case submit.TransportError:
		rec.Message = o.Detail
	}
	if res.Payload != nil {
		if b, err := json.Marshal(res.Payload); err == nil {
			rec.Payload = b
		}
	}

	ev := w.Log.Info()
	if res.State == submit.StateFailed {
		ev = w.Log.Error()
	}
	ev.Str("form_id", formID).
		Str("attempt_id", res.AttemptID).
		Str("state", string(res.State)).
		Str("outcome", kind).
		Str("request_id", rec.RequestID).
		Str("message", rec.Message).
		Dur("took", res.Duration).
		Msg("campaign submission finished")

	if w.DB != nil {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
		defer cancel()
		if err := w.DB.InsertSubmission(lctx, rec); err != nil {
			w.Log.Error().Err(err).Str("form_id", formID).Msg("ledger write failed")
		}
	}

	w.publish(formID, events.TypeSubmissionState, map[string]any{
		"state":      res.State,
		"outcome":    kind,
		"request_id": rec.RequestID,
		"message":    rec.Message,
	})
}
