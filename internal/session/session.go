// Package session keeps live campaign forms in memory with a sliding TTL.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v2"

	"recruit-intake/internal/form"
	"recruit-intake/internal/submit"
)

var ErrNotFound = errors.New("form not found or expired")

// Entry is one operator's form and the pipeline that submits it.
type Entry struct {
	Form     *form.Form
	Pipeline *submit.Pipeline
}

// Factory builds a fresh entry for id.
type Factory func(id string) *Entry

type Store struct {
	cache   *ccache.Cache
	ttl     time.Duration
	factory Factory
}

func New(maxForms int, ttl time.Duration, factory Factory) *Store {
	prune := uint32(maxForms / 10)
	if prune == 0 {
		prune = 1
	}
	return &Store{
		cache:   ccache.New(ccache.Configure().MaxSize(int64(maxForms)).ItemsToPrune(prune)),
		ttl:     ttl,
		factory: factory,
	}
}

func (s *Store) Create() *Entry {
	e := s.factory(uuid.NewString())
	s.cache.Set(e.Form.ID, e, s.ttl)
	return e
}

// Get returns the entry for id and extends its lifetime.
func (s *Store) Get(id string) (*Entry, error) {
	item := s.cache.Get(id)
	if item == nil || item.Expired() {
		return nil, ErrNotFound
	}
	item.Extend(s.ttl)
	return item.Value().(*Entry), nil
}

// Reset discards the form's tag sets and pipeline state, keeping its id.
// A form with a submission in flight is left alone; once retired, the old
// pipeline refuses further submits.
func (s *Store) Reset(id string) (*Entry, error) {
	cur, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := cur.Pipeline.Retire(); err != nil {
		return nil, err
	}
	e := s.factory(id)
	s.cache.Replace(id, e)
	return e, nil
}

func (s *Store) Delete(id string) bool { return s.cache.Delete(id) }

func (s *Store) Len() int { return s.cache.ItemCount() }

func (s *Store) Stop() { s.cache.Stop() }
