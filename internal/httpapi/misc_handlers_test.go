package httpapi

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-intake/internal/config"
	"recruit-intake/internal/events"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.newForm(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["ok"])
	assert.EqualValues(t, 1, body["live_forms"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decode[APIError](t, rec)
	assert.Equal(t, "not_found", apiErr.Error.Code)
	assert.Equal(t, "req-1", apiErr.Error.RequestID)
}

func TestConfig_GetValidatePut(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[config.Config](t, rec)
	assert.Equal(t, "https://automation.example.com/webhook/recruit", cfg.Webhook.URL)

	rec = env.do(t, http.MethodGet, "/config/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[config.Validation](t, rec).Errors)

	bad := cfg
	bad.Webhook.URL = "not a url"
	rec = env.do(t, http.MethodPut, "/config", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[config.Validation](t, rec).Errors)

	good := cfg
	good.Form.Title = "Hire faster"
	rec = env.do(t, http.MethodPut, "/config", good)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Hire faster", env.deps.config().Form.Title)
}

func TestMetricsExposeTagMutations(t *testing.T) {
	env := newTestEnv(t)
	id := env.newForm(t)
	env.do(t, http.MethodPost, "/api/forms/"+id+"/tags/required_skills", confirmTagReq{Entry: "Go"})

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `recruit_intake_tags_mutations_total{field="required_skills",op="added"} 1`)
}

func TestCheckpoint_LoopbackOnly(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEvents_StreamsFormTopic(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?form=f1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	assert.Contains(t, readData(), `"type":"ping"`)

	env.deps.Hub.Publish("other", events.MakeEvent("", "other", events.TypeFormReset, 1, nil))
	env.deps.Hub.Publish("f1", events.MakeEvent("", "f1", events.TypeFormReset, 1, nil))
	got := readData()
	assert.Contains(t, got, `"form_id":"f1"`)
	assert.Contains(t, got, `"type":"form_reset"`)
}
