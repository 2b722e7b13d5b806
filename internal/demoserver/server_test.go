package demoserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/centinela/internal/analyzer"
	"github.com/raysh454/centinela/internal/app"
	"github.com/raysh454/centinela/internal/demoserver"
	"github.com/raysh454/centinela/internal/model"
	"github.com/raysh454/centinela/internal/testutil"
	"github.com/raysh454/centinela/internal/webclient"
)

const page = `<html><head><title>Gana un premio</title></head><body>
<p>Haz clic aquí para reclamar tu premio gratuito antes de que termine la promoción de hoy.</p>
</body></html>`

func newDemo(t *testing.T, fetcher webclient.WebClient) *demoserver.DemoServer {
	t.Helper()
	logger := &testutil.DummyLogger{}
	store, err := demoserver.OpenStore(":memory:", logger)
	require.NoError(t, err)
	s, err := demoserver.NewDemoServer(demoserver.DefaultConfig(), fetcher, store, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["detail"]
}

func TestDemoServer_Health(t *testing.T) {
	t.Parallel()
	s := newDemo(t, &testutil.DummyWebClient{})
	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDemoServer_Analyze(t *testing.T) {
	t.Parallel()
	fetcher := &testutil.DummyWebClient{Body: []byte(page)}
	s := newDemo(t, fetcher)

	rec := post(t, s, "/analyze", `{"url":"http://promo.example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.AnalysisResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "http://promo.example.com/", res.URL)
	assert.Equal(t, "Gana un premio", res.Title)
	assert.Contains(t, res.Summary, "reclamar tu premio")
	assert.InDelta(t, 0.6, res.Score, 1e-9)
	assert.Equal(t, model.LabelMedium, res.Label)

	assert.Equal(t, "http://promo.example.com/", fetcher.LastRequest().URL)

	list := get(t, s, "/analyses?limit=5")
	require.Equal(t, http.StatusOK, list.Code)
	var records []demoserver.Record
	require.NoError(t, json.NewDecoder(list.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, res, records[0].AnalysisResult)
	assert.Equal(t, "http://promo.example.com/", records[0].CanonicalURL)
}

func TestDemoServer_Analyze_ScoresCanonicalURL(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"fragment": "https://example.com/#free",
		"userinfo": "https://win@example.com/",
		"port":     "https://EXAMPLE.com:443/",
	}
	for name, raw := range cases {
		name, raw := name, raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := newDemo(t, &testutil.DummyWebClient{Body: []byte(page)})

			rec := post(t, s, "/analyze", `{"url":"`+raw+`"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res model.AnalysisResult
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
			assert.Equal(t, "https://example.com/", res.URL)
			assert.Zero(t, res.Score)
			assert.Equal(t, model.LabelLow, res.Label)
		})
	}
}

func TestDemoServer_Analyze_InvalidInput(t *testing.T) {
	t.Parallel()
	fetcher := &testutil.DummyWebClient{Body: []byte(page)}
	s := newDemo(t, fetcher)

	for _, body := range []string{`not json`, `{"url":""}`, `{"url":"ftp://example.com"}`, `{"url":"example.com"}`} {
		rec := post(t, s, "/analyze", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		assert.NotEmpty(t, detail(t, rec), body)
	}
	assert.Equal(t, 0, fetcher.Calls())
}

func TestDemoServer_Analyze_FetchFailure(t *testing.T) {
	t.Parallel()
	s := newDemo(t, &testutil.DummyWebClient{Err: errors.New("dial tcp: no such host")})

	rec := post(t, s, "/analyze", `{"url":"https://nowhere.example"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "No se pudo obtener la URL: dial tcp: no such host", detail(t, rec))
}

func TestDemoServer_Analyze_UpstreamStatus(t *testing.T) {
	t.Parallel()
	s := newDemo(t, &testutil.DummyWebClient{StatusCode: http.StatusNotFound, Body: []byte("nope")})

	rec := post(t, s, "/analyze", `{"url":"https://example.com/missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "La URL respondió con código 404", detail(t, rec))
}

func TestDemoServer_ListAnalyses_BadLimit(t *testing.T) {
	t.Parallel()
	s := newDemo(t, &testutil.DummyWebClient{})
	for _, q := range []string{"limit=0", "limit=-3", "limit=abc"} {
		rec := get(t, s, "/analyses?"+q)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, q)
	}
	rec := get(t, s, "/analyses")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDemoServer_Validate(t *testing.T) {
	t.Parallel()
	fetcher := &testutil.DummyWebClient{}
	s := newDemo(t, fetcher)

	rec := post(t, s, "/validate", `{"url":"http://admin@10.0.0.1/login"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report demoserver.URLReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.True(t, report.Valid)
	assert.False(t, report.Blacklist.Listed)
	assert.Len(t, report.Patterns.Findings, 2)
	assert.Equal(t, 40, report.Patterns.RiskScore)
	assert.False(t, report.Structure.HTTPS)

	rec = post(t, s, "/validate", `{"url":"javascript:alert(1)"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, fetcher.Calls(), "validation never fetches")
}

func TestNewDemoServer_RequiresParts(t *testing.T) {
	t.Parallel()
	_, err := demoserver.NewDemoServer(demoserver.DefaultConfig(), nil, nil, &testutil.DummyLogger{})
	assert.Error(t, err)
}

// The real client stack against the demo service, with the analyzed page
// served by a separate upstream.
func TestDemoServer_EndToEnd(t *testing.T) {
	t.Parallel()
	logger := &testutil.DummyLogger{}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	}))
	defer upstream.Close()

	fetcher, err := webclient.NewNetHTTPClient(webclient.Config{}, logger, upstream.Client())
	require.NoError(t, err)
	demo := httptest.NewServer(newDemo(t, fetcher))
	defer demo.Close()

	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logger, demo.Client())
	require.NoError(t, err)
	an, err := analyzer.NewHTTPAnalyzer(demo.URL, wc, logger)
	require.NoError(t, err)
	orch := app.NewOrchestrator(an, logger)
	defer orch.Close()

	s, outcome := orch.Submit(context.Background(), "  "+upstream.URL+"/free  ")
	require.Equal(t, app.OutcomeDispatched, outcome)
	require.Equal(t, model.PhaseSuccess, s.Phase, s.ErrorMessage)
	assert.Equal(t, upstream.URL+"/free", s.Result.URL)
	assert.Equal(t, "Gana un premio", s.Result.Title)
	// http + 127.0.0.1 has three dots + "free"
	assert.InDelta(t, 0.8, s.Result.Score, 1e-9)
	assert.Equal(t, model.LabelHigh, s.Result.Label)

	s, _ = orch.Submit(context.Background(), "ftp://example.com")
	assert.Equal(t, model.PhaseError, s.Phase)
	assert.True(t, strings.HasPrefix(s.ErrorMessage, "Error del backend: 422 - "), s.ErrorMessage)
}
