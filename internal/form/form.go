// Package form holds one operator's in-progress campaign form: the scalar
// field definitions and one TagSet per tags field.
package form

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"recruit-intake/internal/config"
	"recruit-intake/internal/tagset"
)

var ErrUnknownField = errors.New("unknown tags field")

type Form struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	fields []config.Field
	tags   map[string]*tagset.TagSet
}

// New builds an empty form. fields is copied.
func New(id string, fields []config.Field) *Form {
	f := &Form{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		fields:    append([]config.Field(nil), fields...),
		tags:      make(map[string]*tagset.TagSet),
	}
	for _, fd := range f.fields {
		if fd.IsTags() {
			f.tags[fd.Name] = tagset.New(fd.Name)
		}
	}
	return f
}

func (f *Form) Fields() []config.Field {
	return append([]config.Field(nil), f.fields...)
}

// Field looks up a field definition by name.
func (f *Form) Field(name string) (config.Field, bool) {
	for _, fd := range f.fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return config.Field{}, false
}

// Tags returns the TagSet backing field name.
func (f *Form) Tags(name string) (*tagset.TagSet, error) {
	ts, ok := f.tags[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return ts, nil
}

// TagSets returns every TagSet in field order.
func (f *Form) TagSets() []*tagset.TagSet {
	var out []*tagset.TagSet
	for _, fd := range f.fields {
		if ts, ok := f.tags[fd.Name]; ok {
			out = append(out, ts)
		}
	}
	return out
}

// Observe registers fn on every TagSet of the form.
func (f *Form) Observe(fn func(tagset.Change)) {
	for _, ts := range f.tags {
		ts.Observe(fn)
	}
}

// Confirm confirms raw into field's TagSet. Mutations of one form are
// applied one at a time.
func (f *Form) Confirm(field, raw string) (bool, error) {
	ts, err := f.Tags(field)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return ts.ConfirmEntry(raw)
}

func (f *Form) Remove(field, token string) (bool, error) {
	ts, err := f.Tags(field)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return ts.RemoveEntry(token), nil
}

// Freeze runs fn with every tag mutation of f held off until it returns.
func (f *Form) Freeze(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

// Payload assembles the webhook body: every configured scalar field present
// in values, then every TagSet's serialized value under its name. Values are
// sent as typed.
func (f *Form) Payload(values map[string]string) *Payload {
	p := NewPayload()
	for _, fd := range f.fields {
		if fd.IsTags() {
			continue
		}
		if v, ok := values[fd.Name]; ok {
			p.Set(fd.Name, v)
		}
	}
	for _, ts := range f.TagSets() {
		p.Set(ts.FieldKey(), ts.Serialize())
	}
	return p
}

// Blank reports whether a scalar value is empty or only whitespace.
func Blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
