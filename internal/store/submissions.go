package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Submission is one finished attempt to start a campaign.
type Submission struct {
	ID         string          `json:"id"`
	FormID     string          `json:"form_id"`
	State      string          `json:"state"`
	Outcome    string          `json:"outcome"`
	RequestID  string          `json:"request_id,omitempty"`
	Message    string          `json:"message,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type ListOpts struct {
	FormID string
	Limit  int
}

func (d *DB) InsertSubmission(ctx context.Context, s Submission) error {
	if len(s.Payload) == 0 {
		s.Payload = json.RawMessage(`{}`)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO submissions(id, form_id, state, outcome, request_id, message, payload, duration_ms, created_at)
VALUES(?,?,?,?,?,?,?,?,?);`,
		s.ID, s.FormID, s.State, s.Outcome, s.RequestID, s.Message, string(s.Payload), s.DurationMS,
		s.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (d *DB) ListSubmissions(ctx context.Context, o ListOpts) ([]Submission, error) {
	if o.Limit <= 0 || o.Limit > 1000 {
		o.Limit = 200
	}

	q := `
SELECT id, form_id, state, outcome, request_id, message, payload, duration_ms, created_at
FROM submissions`
	args := []any{}
	if o.FormID != "" {
		q += ` WHERE form_id = ?`
		args = append(args, o.FormID)
	}
	q += ` ORDER BY created_at DESC LIMIT ?;`
	args = append(args, o.Limit)

	rows, err := d.Pool.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		var s Submission
		var payload, created string
		if err := rows.Scan(&s.ID, &s.FormID, &s.State, &s.Outcome, &s.RequestID, &s.Message, &payload, &s.DurationMS, &created); err != nil {
			return nil, err
		}
		s.Payload = json.RawMessage(payload)
		s.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneBefore deletes attempts older than cutoff and reports how many went.
func (d *DB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.Pool.ExecContext(ctx,
		`DELETE FROM submissions WHERE created_at < ?;`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) GetSubmission(ctx context.Context, id string) (Submission, error) {
	var s Submission
	var payload, created string
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, form_id, state, outcome, request_id, message, payload, duration_ms, created_at
FROM submissions WHERE id = ? LIMIT 1;`, id).
		Scan(&s.ID, &s.FormID, &s.State, &s.Outcome, &s.RequestID, &s.Message, &payload, &s.DurationMS, &created)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Payload = json.RawMessage(payload)
	s.CreatedAt, _ = time.Parse(timeLayout, created)
	return s, nil
}
