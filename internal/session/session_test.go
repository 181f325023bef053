package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-intake/internal/config"
	"recruit-intake/internal/form"
	"recruit-intake/internal/submit"
)

type okSender struct{}

func (okSender) Send(context.Context, *form.Payload) submit.Outcome {
	return submit.Success{RequestID: "id"}
}

func newStore(ttl time.Duration) *Store {
	fields := []config.Field{{Name: "required_skills", Kind: config.KindTags, Required: true}}
	return New(10, ttl, func(id string) *Entry {
		f := form.New(id, fields)
		return &Entry{Form: f, Pipeline: submit.NewPipeline(f, okSender{}, submit.Hooks{})}
	})
}

func TestStore_CreateGet(t *testing.T) {
	s := newStore(time.Minute)
	defer s.Stop()

	e := s.Create()
	got, err := s.Get(e.Form.ID)
	require.NoError(t, err)
	assert.Same(t, e, got)

	_, err = s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Expiry(t *testing.T) {
	s := newStore(20 * time.Millisecond)
	defer s.Stop()

	e := s.Create()
	time.Sleep(40 * time.Millisecond)

	_, err := s.Get(e.Form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ResetDiscardsTags(t *testing.T) {
	s := newStore(time.Minute)
	defer s.Stop()

	e := s.Create()
	_, _ = e.Form.Confirm("required_skills", "Go")
	_, err := e.Pipeline.Submit(context.Background(), nil)
	require.NoError(t, err)

	fresh, err := s.Reset(e.Form.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Form.ID, fresh.Form.ID)
	assert.Equal(t, submit.StateIdle, fresh.Pipeline.State())

	ts, _ := fresh.Form.Tags("required_skills")
	assert.True(t, ts.IsEmpty())

	got, _ := s.Get(e.Form.ID)
	assert.Same(t, fresh, got)
}

func TestStore_ResetRetiresOldPipeline(t *testing.T) {
	s := newStore(time.Minute)
	defer s.Stop()

	old := s.Create()
	_, _ = old.Form.Confirm("required_skills", "Go")

	fresh, err := s.Reset(old.Form.ID)
	require.NoError(t, err)

	// a request still holding the old entry cannot submit it
	_, err = old.Pipeline.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, submit.ErrRetired)

	_, _ = fresh.Form.Confirm("required_skills", "Go")
	_, err = fresh.Pipeline.Submit(context.Background(), nil)
	assert.NoError(t, err)
}

func TestStore_ResetRefusedWhileSubmitting(t *testing.T) {
	fields := []config.Field{{Name: "required_skills", Kind: config.KindTags, Required: true}}
	block := make(chan struct{})
	entered := make(chan struct{})
	s := New(10, time.Minute, func(id string) *Entry {
		f := form.New(id, fields)
		sender := blockingSender{block: block, entered: entered}
		return &Entry{Form: f, Pipeline: submit.NewPipeline(f, sender, submit.Hooks{})}
	})
	defer s.Stop()

	e := s.Create()
	_, _ = e.Form.Confirm("required_skills", "Go")
	done := make(chan error, 1)
	go func() {
		_, err := e.Pipeline.Submit(context.Background(), nil)
		done <- err
	}()
	<-entered

	_, err := s.Reset(e.Form.ID)
	assert.ErrorIs(t, err, submit.ErrInFlight)

	close(block)
	require.NoError(t, <-done)
	got, err := s.Get(e.Form.ID)
	require.NoError(t, err)
	assert.Same(t, e, got)
}

type blockingSender struct {
	block   chan struct{}
	entered chan struct{}
}

func (b blockingSender) Send(context.Context, *form.Payload) submit.Outcome {
	close(b.entered)
	<-b.block
	return submit.Success{RequestID: "late"}
}
