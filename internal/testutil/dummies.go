// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/model"
	"github.com/raysh454/centinela/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns how many warnings were logged so far.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
//
// By default it answers 200 with Body. Err forces a transport error. When Gate
// is non-nil every call blocks until Gate is closed (or the context ends),
// which lets tests observe the in-flight window.
type DummyWebClient struct {
	StatusCode int
	Body       []byte
	Err        error
	Gate       chan struct{}

	mu       sync.Mutex
	Requests []*webclient.Request
	started  chan struct{}
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if req == nil {
		return nil, webclient.ErrNilRequest
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	started := d.started
	d.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}

	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if d.Err != nil {
		return nil, d.Err
	}
	status := d.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &webclient.Response{
		Request:    req,
		Body:       d.Body,
		Headers:    http.Header{},
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// Started returns a channel that receives once per Do call, as soon as the
// request has been recorded. Call it before the request is issued.
func (d *DummyWebClient) Started() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started == nil {
		d.started = make(chan struct{}, 16)
	}
	return d.started
}

// Calls returns how many requests were issued.
func (d *DummyWebClient) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Requests)
}

// LastRequest returns the most recent request, or nil.
func (d *DummyWebClient) LastRequest() *webclient.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Requests) == 0 {
		return nil
	}
	return d.Requests[len(d.Requests)-1]
}

// ─── Analyzer ──────────────────────────────────────────────────────────

// DummyAnalyzer implements analyzer.Analyzer without any transport.
type DummyAnalyzer struct {
	Result    *model.AnalysisResult
	Err       error
	HealthErr error

	mu     sync.Mutex
	URLs   []string
	Checks int
}

func (a *DummyAnalyzer) Analyze(_ context.Context, url string) (*model.AnalysisResult, error) {
	a.mu.Lock()
	a.URLs = append(a.URLs, url)
	a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	if a.Result == nil {
		return nil, errors.New("dummy analyzer has no result")
	}
	r := *a.Result
	return &r, nil
}

func (a *DummyAnalyzer) Health(context.Context) (string, error) {
	a.mu.Lock()
	a.Checks++
	a.mu.Unlock()
	if a.HealthErr != nil {
		return "", a.HealthErr
	}
	return "ok", nil
}

func (a *DummyAnalyzer) Close() error { return nil }

// HealthChecks returns how many times Health was called.
func (a *DummyAnalyzer) HealthChecks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Checks
}
