package submit

import (
	"errors"
	"fmt"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

const (
	msgRemoteFallback = "Campaign failed to start"
	msgUnreachable    = "Unable to connect to the recruitment system. Please check the webhook URL and try again."
)

var (
	ErrInFlight         = errors.New("a submission for this form is already in flight")
	ErrAlreadySubmitted = errors.New("this form has already been submitted")
	ErrRetired          = errors.New("this form was reset; reload it to continue")
)

// Outcome is one of Success, Failure or TransportError.
type Outcome interface {
	Kind() string
	// Err is nil for Success.
	Err() error
}

type Success struct {
	RequestID string `json:"request_id"`
}

type Failure struct {
	Message string `json:"message"`
}

type TransportError struct {
	Detail      string `json:"detail"`
	Unreachable bool   `json:"unreachable"`
	cause       error
}

func (Success) Kind() string        { return "success" }
func (Failure) Kind() string        { return "failure" }
func (TransportError) Kind() string { return "transport_error" }

func (Success) Err() error { return nil }
func (o Failure) Err() error {
	return &RemoteRejection{Message: o.Message}
}
func (o TransportError) Err() error {
	return &TransportFailure{Detail: o.Detail, Unreachable: o.Unreachable, Cause: o.cause}
}

// ValidationError means a required field was empty; no request was made.
type ValidationError struct {
	Field string
	Label string
	Tags  bool
}

func (e *ValidationError) Error() string {
	if e.Tags {
		return fmt.Sprintf("Please add at least one entry to %s", e.Label)
	}
	return fmt.Sprintf("%s is required", e.Label)
}

// RemoteRejection means the endpoint answered but did not report success.
type RemoteRejection struct {
	Message string
}

func (e *RemoteRejection) Error() string { return e.Message }

// TransportFailure means the request could not be completed.
type TransportFailure struct {
	Detail      string
	Unreachable bool
	Cause       error
}

func (e *TransportFailure) Error() string { return e.Detail }
func (e *TransportFailure) Unwrap() error { return e.Cause }
