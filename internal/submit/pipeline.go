// Package submit runs a campaign form through validation and delivery to the
// automation webhook.
package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"recruit-intake/internal/form"
)

// Sender delivers a payload. *Client is the production implementation.
type Sender interface {
	Send(ctx context.Context, p *form.Payload) Outcome
}

// Hooks observe a pipeline. Transition runs with the pipeline locked and
// must not block or call back into it.
type Hooks struct {
	Transition func(formID string, to State)
	Finished   func(ctx context.Context, formID string, res Result)
}

// Result describes one submit attempt.
type Result struct {
	AttemptID string        `json:"attempt_id,omitempty"`
	State     State         `json:"state"`
	Outcome   Outcome       `json:"-"`
	Payload   *form.Payload `json:"-"`
	Duration  time.Duration `json:"-"`
}

// View is what the page should show for the form's submit area.
type View struct {
	State          State  `json:"state"`
	SubmitDisabled bool   `json:"submit_disabled"`
	Loading        bool   `json:"loading"`
	SuccessVisible bool   `json:"success_visible"`
	RequestID      string `json:"request_id,omitempty"`
	Notice         string `json:"notice,omitempty"`
	FocusField     string `json:"focus_field,omitempty"`
}

type Pipeline struct {
	form   *form.Form
	sender Sender
	hooks  Hooks

	mu      sync.Mutex
	state   State
	retired bool
	last    Outcome
	notice  string
	focus   string
}

func NewPipeline(f *form.Form, sender Sender, hooks Hooks) *Pipeline {
	return &Pipeline{form: f, sender: sender, hooks: hooks, state: StateIdle}
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{State: p.state, Notice: p.notice, FocusField: p.focus}
	switch p.state {
	case StateValidating, StateSubmitting:
		v.SubmitDisabled = true
		v.Loading = p.state == StateSubmitting
	case StateSucceeded:
		v.SubmitDisabled = true
		v.SuccessVisible = true
		if s, ok := p.last.(Success); ok {
			v.RequestID = s.RequestID
		}
	}
	return v
}

// Submit validates the form against values and, when valid, sends it.
//
// A *ValidationError leaves the pipeline Idle without any network call.
// Failed deliveries return the Result together with a *RemoteRejection or
// *TransportFailure. The send is not canceled when ctx is.
func (p *Pipeline) Submit(ctx context.Context, values map[string]string) (Result, error) {
	p.mu.Lock()
	if p.retired {
		p.mu.Unlock()
		return Result{State: p.state}, ErrRetired
	}
	switch p.state {
	case StateSubmitting, StateValidating:
		p.mu.Unlock()
		return Result{State: StateSubmitting}, ErrInFlight
	case StateSucceeded:
		p.mu.Unlock()
		return Result{State: StateSucceeded}, ErrAlreadySubmitted
	}

	p.setState(StateValidating)
	// tags must not change between the required check and the payload
	var (
		verr    *ValidationError
		payload *form.Payload
	)
	p.form.Freeze(func() {
		if verr = p.validate(values); verr == nil {
			payload = p.form.Payload(values)
		}
	})
	if verr != nil {
		p.notice = verr.Error()
		p.focus = verr.Field
		p.setState(StateIdle)
		p.mu.Unlock()
		return Result{State: StateIdle}, verr
	}

	res := Result{
		AttemptID: uuid.NewString(),
		Payload:   payload,
	}
	p.notice, p.focus = "", ""
	p.setState(StateSubmitting)
	p.mu.Unlock()

	start := time.Now()
	outcome := p.sender.Send(context.WithoutCancel(ctx), res.Payload)
	res.Duration = time.Since(start)
	res.Outcome = outcome

	p.mu.Lock()
	p.last = outcome
	if outcome.Err() == nil {
		p.setState(StateSucceeded)
	} else {
		p.notice = outcome.Err().Error()
		p.setState(StateFailed)
	}
	res.State = p.state
	p.mu.Unlock()

	if p.hooks.Finished != nil {
		p.hooks.Finished(ctx, p.form.ID, res)
	}
	return res, outcome.Err()
}

// Retire stops the pipeline from accepting submits, so its form can be
// discarded. It fails with ErrInFlight while an attempt is running.
func (p *Pipeline) Retire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateValidating || p.state == StateSubmitting {
		return ErrInFlight
	}
	p.retired = true
	return nil
}

func (p *Pipeline) validate(values map[string]string) *ValidationError {
	for _, fd := range p.form.Fields() {
		if !fd.Required {
			continue
		}
		label := fd.Label
		if label == "" {
			label = fd.Name
		}
		if fd.IsTags() {
			ts, err := p.form.Tags(fd.Name)
			if err == nil && ts.IsEmpty() {
				return &ValidationError{Field: fd.Name, Label: label, Tags: true}
			}
			continue
		}
		if form.Blank(values[fd.Name]) {
			return &ValidationError{Field: fd.Name, Label: label}
		}
	}
	return nil
}

func (p *Pipeline) setState(s State) {
	p.state = s
	if p.hooks.Transition != nil {
		p.hooks.Transition(p.form.ID, s)
	}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
