package events

import (
	"encoding/json"
	"time"
)

const (
	TypePing            = "ping"
	TypeTagAdded        = "tag_added"
	TypeTagRemoved      = "tag_removed"
	TypeSubmissionState = "submission_state"
	TypeFormReset       = "form_reset"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	FormID    string          `json:"form_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, formID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		FormID:    formID,
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
