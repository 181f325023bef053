package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTest(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestSubmissions_InsertListGet(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.InsertSubmission(ctx, Submission{
		ID: "a1", FormID: "f1", State: "failed", Outcome: "failure", Message: "quota exceeded",
		Payload: json.RawMessage(`{"job_title":"x"}`), CreatedAt: base,
	}))
	require.NoError(t, db.InsertSubmission(ctx, Submission{
		ID: "a2", FormID: "f1", State: "succeeded", Outcome: "success", RequestID: "abc123",
		CreatedAt: base.Add(500 * time.Millisecond),
	}))
	require.NoError(t, db.InsertSubmission(ctx, Submission{
		ID: "b1", FormID: "f2", State: "failed", Outcome: "transport_error", CreatedAt: base.Add(time.Second),
	}))

	all, err := db.ListSubmissions(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b1", "a2", "a1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	f1, err := db.ListSubmissions(ctx, ListOpts{FormID: "f1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, f1, 1)
	assert.Equal(t, "abc123", f1[0].RequestID)
	assert.JSONEq(t, `{}`, string(f1[0].Payload))

	got, err := db.GetSubmission(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "quota exceeded", got.Message)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.JSONEq(t, `{"job_title":"x"}`, string(got.Payload))

	_, err = db.GetSubmission(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPruneBefore(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.InsertSubmission(ctx, Submission{ID: "old", FormID: "f", State: "failed", Outcome: "failure", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, db.InsertSubmission(ctx, Submission{ID: "new", FormID: "f", State: "succeeded", Outcome: "success", CreatedAt: now}))

	n, err := db.PruneBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := db.ListSubmissions(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].ID)
	require.NoError(t, db.Checkpoint(ctx))
}
