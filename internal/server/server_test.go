package server_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/centinela/internal/analyzer"
	"github.com/raysh454/centinela/internal/app"
	"github.com/raysh454/centinela/internal/model"
	"github.com/raysh454/centinela/internal/server"
	"github.com/raysh454/centinela/internal/testutil"
)

const okBody = `{"url":"https://example.com","title":"Example","summary":"Hola","score":0.1,"label":"LOW"}`

func newTestServer(t *testing.T, wc *testutil.DummyWebClient, healthSpec string) *server.Server {
	t.Helper()
	logger := &testutil.DummyLogger{}

	cfg := app.DefaultConfig()
	cfg.HealthCheckSpec = healthSpec

	an, err := analyzer.NewHTTPAnalyzer(cfg.APIBaseURL, wc, logger)
	require.NoError(t, err)
	application, err := app.NewApplication(cfg, nil, logger, an)
	require.NoError(t, err)

	s, err := server.NewServer(server.Config{ListenAddr: ":0", Logger: logger}, application)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Orch.Close() })
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) model.SessionState {
	t.Helper()
	var st model.SessionState
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
	return st
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{}, "")

	rec := doJSON(t, s, http.MethodGet, "/session", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CORS_Preflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{}, "")

	rec := doJSON(t, s, http.MethodOptions, "/session/submit", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))
}

// ─── Session ───────────────────────────────────────────────────────────

func TestServer_GetSession_Idle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{}, "")

	rec := doJSON(t, s, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PhaseIdle, decodeState(t, rec).Phase)
}

func TestServer_Submit_Validation(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{Body: []byte(okBody)}
	s := newTestServer(t, wc, "")

	rec := doJSON(t, s, http.MethodPost, "/session/submit", `{"url":"   "}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	st := decodeState(t, rec)
	assert.Equal(t, model.PhaseError, st.Phase)
	assert.Equal(t, app.ValidationMessage, st.ErrorMessage)
	assert.Equal(t, 0, wc.Calls())
}

func TestServer_Submit_BadJSON(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{}, "")

	rec := doJSON(t, s, http.MethodPost, "/session/submit", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var er server.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&er))
	assert.Equal(t, "invalid JSON", er.Error)
}

func TestServer_Submit_AcceptedThenConflict(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{Body: []byte(okBody), Gate: make(chan struct{})}
	s := newTestServer(t, wc, "")
	started := wc.Started()

	rec := doJSON(t, s, http.MethodPost, "/session/submit", `{"url":" https://example.com "}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	first := decodeState(t, rec)
	assert.Equal(t, model.PhaseSubmitting, first.Phase)
	assert.Nil(t, first.Result)
	<-started

	rec = doJSON(t, s, http.MethodPost, "/session/submit", `{"url":"https://other.example"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, first.AttemptID, decodeState(t, rec).AttemptID)

	close(wc.Gate)
	s.Orchestrator().Wait()

	rec = doJSON(t, s, http.MethodGet, "/session", "")
	st := decodeState(t, rec)
	assert.Equal(t, model.PhaseSuccess, st.Phase)
	require.NotNil(t, st.Result)
	assert.Equal(t, model.LabelLow, st.Result.Label)
	assert.Equal(t, 1, wc.Calls())
}

func TestServer_Submit_BackendError(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{StatusCode: 500, Body: []byte("Internal Server Error")}
	s := newTestServer(t, wc, "")

	rec := doJSON(t, s, http.MethodPost, "/session/submit", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	s.Orchestrator().Wait()

	st := decodeState(t, doJSON(t, s, http.MethodGet, "/session", ""))
	assert.Equal(t, model.PhaseError, st.Phase)
	assert.Equal(t, "Error del backend: 500 - Internal Server Error", st.ErrorMessage)
}

func TestServer_Submit_AfterCloseIsUnavailable(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{Body: []byte(okBody)}
	s := newTestServer(t, wc, "")
	require.NoError(t, s.Orchestrator().Close())

	rec := doJSON(t, s, http.MethodPost, "/session/submit", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, model.PhaseIdle, decodeState(t, rec).Phase)
	assert.Equal(t, 0, wc.Calls())
}

// ─── Health ────────────────────────────────────────────────────────────

func TestServer_Health(t *testing.T) {
	t.Parallel()
	for _, spec := range []string{"", "@every 1h"} {
		s := newTestServer(t, &testutil.DummyWebClient{Body: []byte(`{"status":"ok"}`)}, spec)

		rec := doJSON(t, s, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code, spec)
		var hr server.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&hr))
		assert.Equal(t, "ok", hr.Status)
		assert.Equal(t, "ok", hr.Analysis.Status)
		assert.Empty(t, hr.Analysis.Error)
	}
}

func TestServer_Health_Unreachable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{Err: errors.New("connection refused")}, "@every 1h")

	rec := doJSON(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var hr server.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hr))
	assert.Equal(t, "unreachable", hr.Analysis.Status)
	assert.Equal(t, "connection refused", hr.Analysis.Error)
}

// ─── Swagger ───────────────────────────────────────────────────────────

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{}, "")

	rec := doJSON(t, s, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Centinela API")
	assert.Contains(t, rec.Body.String(), "/session/submit")
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_SessionWS(t *testing.T) {
	t.Parallel()
	wc := &testutil.DummyWebClient{Body: []byte(okBody)}
	s := newTestServer(t, wc, "")
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/session", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var st model.SessionState
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, model.PhaseIdle, st.Phase)

	resp, err := http.Post(ts.URL+"/session/submit", "application/json", strings.NewReader(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var phases []model.Phase
	for len(phases) < 2 {
		require.NoError(t, conn.ReadJSON(&st))
		phases = append(phases, st.Phase)
	}
	assert.Equal(t, []model.Phase{model.PhaseSubmitting, model.PhaseSuccess}, phases)
	assert.Equal(t, "Example", st.Result.Title)
}

// ─── Metrics ───────────────────────────────────────────────────────────

func TestServer_Metrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &testutil.DummyWebClient{Body: []byte(okBody)}, "")

	doJSON(t, s, http.MethodGet, "/session", "")
	doJSON(t, s, http.MethodGet, "/session", "")
	rec := doJSON(t, s, http.MethodPost, "/session/submit", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	s.Orchestrator().Wait()
	doJSON(t, s, http.MethodGet, "/no/such/route", "")

	rec = doJSON(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `centinela_http_requests_total{endpoint="/session",method="GET"} 2`)
	assert.Contains(t, body, `centinela_http_requests_total{endpoint="/session/submit",method="POST"} 1`)
	assert.Contains(t, body, `centinela_http_requests_total{endpoint="unmatched",method="GET"} 1`)
	assert.Contains(t, body, `centinela_analyze_seconds_count{outcome="success"} 1`)
}
