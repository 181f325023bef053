package form

import (
	jsoniter "github.com/json-iterator/go"
)

// Payload is an insertion-ordered string map that marshals to a JSON object
// in the same order.
type Payload struct {
	keys []string
	vals map[string]string
}

func NewPayload() *Payload {
	return &Payload{vals: make(map[string]string)}
}

// Set overwrites an existing key in place, otherwise appends.
func (p *Payload) Set(k, v string) {
	if _, ok := p.vals[k]; !ok {
		p.keys = append(p.keys, k)
	}
	p.vals[k] = v
}

func (p *Payload) Get(k string) (string, bool) {
	v, ok := p.vals[k]
	return v, ok
}

func (p *Payload) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p *Payload) Len() int { return len(p.keys) }

// Map returns an unordered copy.
func (p *Payload) Map() map[string]string {
	out := make(map[string]string, len(p.vals))
	for k, v := range p.vals {
		out[k] = v
	}
	return out
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	api := jsoniter.ConfigCompatibleWithStandardLibrary
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, k := range p.keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(k)
		stream.WriteString(p.vals[k])
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}
