package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"recruit-intake/internal/config"
	"recruit-intake/internal/events"
	"recruit-intake/internal/form"
	"recruit-intake/internal/metrics"
	"recruit-intake/internal/session"
	"recruit-intake/internal/store"
	"recruit-intake/internal/submit"
)

type recordingSender struct {
	mu       sync.Mutex
	outcome  submit.Outcome
	payloads []map[string]string
}

func (s *recordingSender) Send(_ context.Context, p *form.Payload) submit.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p.Map())
	return s.outcome
}

func (s *recordingSender) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

type testEnv struct {
	deps    Deps
	handler http.Handler
	sender  *recordingSender
	cfgPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "intake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Default()
	cfg.Webhook.URL = "https://automation.example.com/webhook/recruit"
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, config.SaveAtomic(cfgPath, cfg))

	sender := &recordingSender{outcome: submit.Success{RequestID: "abc123"}}
	hub := events.NewHub()
	log := zerolog.Nop()

	var sessions *session.Store
	m := metrics.New(func() float64 { return float64(sessions.Len()) })
	w := Wiring{
		Fields:  func() []config.Field { return cfgVal.Load().(config.Config).Form.Fields },
		Sender:  sender,
		Hub:     hub,
		DB:      db,
		Metrics: m,
		Log:     log,
	}
	sessions = session.New(100, time.Hour, w.Factory())
	t.Cleanup(sessions.Stop)

	d := Deps{
		DB:          db,
		Hub:         hub,
		Sessions:    sessions,
		Metrics:     m,
		Log:         log,
		CfgVal:      &cfgVal,
		UserCfgPath: cfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(cfgPath) },
	}
	return &testEnv{deps: d, handler: NewRouter(d), sender: sender, cfgPath: cfgPath}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) newForm(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/forms", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v formView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func completeFields() map[string]string {
	return map[string]string{
		"job_title":       "Senior React Developer",
		"company_name":    "TechCorp Inc.",
		"location":        "San Francisco, CA",
		"salary_range":    "$120,000 - $150,000",
		"recruiter_name":  "Jane Smith",
		"recruiter_email": "jane@techcorp.com",
	}
}

func mustField(t *testing.T, raw json.RawMessage, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	v, ok := m[key]
	require.True(t, ok, "missing %q in %s", key, raw)
	return v
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func mustEntry(t *testing.T, env *testEnv, id string) *session.Entry {
	t.Helper()
	e, err := env.deps.Sessions.Get(id)
	require.NoError(t, err)
	return e
}
