// Package tagset keeps the deduplicated, case-insensitive token sets that back
// multi-value form fields (required skills, preferred skills, ...).
package tagset

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Delimiter joins tokens in a serialized TagSet. It is rejected inside tokens.
const Delimiter = ","

var ErrDelimiter = errors.New("entry must not contain " + `"` + Delimiter + `"`)

// Chip is one rendered member of a TagSet.
type Chip struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

type Op string

const (
	OpAdded   Op = "added"
	OpRemoved Op = "removed"
)

// Change is passed to the observer after every mutation.
type Change struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Chip  Chip   `json:"chip"`
}

// TagSet mutations are expected to be serialized by the owning form; the
// mutex only keeps readers consistent. The observer runs while the set is
// still applying the mutation, and any ConfirmEntry/RemoveEntry it makes is
// ignored.
type TagSet struct {
	mu       sync.Mutex
	fieldKey string
	order    []string
	display  map[string]string
	applying bool
	observe  func(Change)
}

func New(fieldKey string) *TagSet {
	return &TagSet{
		fieldKey: fieldKey,
		display:  make(map[string]string),
	}
}

// Observe registers fn to be told about every add/remove.
func (s *TagSet) Observe(fn func(Change)) {
	s.mu.Lock()
	s.observe = fn
	s.mu.Unlock()
}

func (s *TagSet) FieldKey() string { return s.fieldKey }

// Normalize trims surrounding whitespace and lower-cases. Inner whitespace is kept.
func Normalize(raw string) string {
	// a Caser is stateful, so one per call
	return cases.Lower(language.Und).String(strings.TrimSpace(raw))
}

// ConfirmEntry adds raw to the set unless it is blank or already present.
func (s *TagSet) ConfirmEntry(raw string) (bool, error) {
	display := strings.TrimSpace(raw)
	if display == "" {
		return false, nil
	}
	if strings.Contains(display, Delimiter) {
		return false, ErrDelimiter
	}
	token := Normalize(display)

	s.mu.Lock()
	if s.applying {
		s.mu.Unlock()
		return false, nil
	}
	if _, ok := s.display[token]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.order = append(s.order, token)
	s.display[token] = display
	s.applying = true
	fn := s.observe
	s.mu.Unlock()

	s.notify(fn, Change{Field: s.fieldKey, Op: OpAdded, Chip: Chip{Token: token, Label: display}})
	return true, nil
}

// RemoveEntry drops token (compared after normalization). It reports whether
// anything was removed.
func (s *TagSet) RemoveEntry(token string) bool {
	token = Normalize(token)

	s.mu.Lock()
	if s.applying {
		s.mu.Unlock()
		return false
	}
	label, ok := s.display[token]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.display, token)
	for i, t := range s.order {
		if t == token {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.applying = true
	fn := s.observe
	s.mu.Unlock()

	s.notify(fn, Change{Field: s.fieldKey, Op: OpRemoved, Chip: Chip{Token: token, Label: label}})
	return true
}

func (s *TagSet) notify(fn func(Change), c Change) {
	defer func() {
		s.mu.Lock()
		s.applying = false
		s.mu.Unlock()
	}()
	if fn != nil {
		fn(c)
	}
}

// Serialize returns the tokens in insertion order joined by Delimiter.
func (s *TagSet) Serialize() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.order, Delimiter)
}

func (s *TagSet) IsEmpty() bool { return s.Len() == 0 }

func (s *TagSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *TagSet) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Chips returns what should be rendered, in the same order as Serialize.
func (s *TagSet) Chips() []Chip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Chip, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, Chip{Token: t, Label: s.display[t]})
	}
	return out
}

// Split reverses Serialize.
func Split(serialized string) []string {
	if serialized == "" {
		return []string{}
	}
	return strings.Split(serialized, Delimiter)
}
