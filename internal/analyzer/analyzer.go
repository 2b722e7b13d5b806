package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/model"
	"github.com/raysh454/centinela/internal/webclient"
)

// Analyzer is the client side of the Analysis Service contract.
//
// Analyze returns *NetworkError, *BackendError or *ParseError on failure so
// callers can tell the categories apart with errors.As.
type Analyzer interface {
	// Analyze submits url for analysis and waits for the classification.
	Analyze(ctx context.Context, url string) (*model.AnalysisResult, error)

	// Health reports the service's self-declared status.
	Health(ctx context.Context) (string, error)

	// Close releases any resources held by the analyzer.
	Close() error
}

type attemptKey struct{}

// WithAttemptID tags ctx so the request carries id as X-Request-ID.
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptKey{}, id)
}

func attemptID(ctx context.Context) string {
	if id, ok := ctx.Value(attemptKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// HTTPAnalyzer talks to the Analysis Service over a webclient.WebClient.
type HTTPAnalyzer struct {
	base   string
	client webclient.WebClient
	logger logging.Logger
}

// NewHTTPAnalyzer validates baseURL once; it is immutable afterwards.
func NewHTTPAnalyzer(baseURL string, client webclient.WebClient, logger logging.Logger) (*HTTPAnalyzer, error) {
	base, err := normalizeBase(baseURL)
	if err != nil {
		return nil, fmt.Errorf("NewHTTPAnalyzer: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("NewHTTPAnalyzer: %w", ErrNilWebClient)
	}

	componentLogger := logger.With(logging.Field{Key: "component", Value: "analyzer"})
	componentLogger.Info("created analyzer", logging.Field{Key: "base_url", Value: base})

	return &HTTPAnalyzer{
		base:   base,
		client: client,
		logger: componentLogger,
	}, nil
}

func normalizeBase(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidBaseURL
	}
	return strings.TrimRight(raw, "/"), nil
}

// Analyze issues exactly one POST <base>/analyze.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, target string) (*model.AnalysisResult, error) {
	payload, err := json.Marshal(model.AnalyzePayload{URL: target})
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("encode request: %w", err)}
	}

	id := attemptID(ctx)
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	headers.Set("X-Request-ID", id)

	a.logger.Info("submitting analysis",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "attempt_id", Value: id})

	resp, err := a.client.Do(ctx, &webclient.Request{
		Method:  http.MethodPost,
		URL:     a.base + "/analyze",
		Headers: headers,
		Body:    payload,
	})
	if err != nil {
		a.logger.Warn("analysis transport failure",
			logging.Field{Key: "attempt_id", Value: id},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, &NetworkError{Err: err}
	}

	if !resp.OK() {
		a.logger.Warn("analysis rejected by backend",
			logging.Field{Key: "attempt_id", Value: id},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return nil, &BackendError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	result, err := decodeResult(resp.Body)
	if err != nil {
		a.logger.Warn("malformed analysis response",
			logging.Field{Key: "attempt_id", Value: id},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, &ParseError{Err: err}
	}

	a.logger.Info("analysis completed",
		logging.Field{Key: "attempt_id", Value: id},
		logging.Field{Key: "label", Value: string(result.Label)},
		logging.Field{Key: "score", Value: result.Score})
	return result, nil
}

// Health calls GET <base>/health.
func (a *HTTPAnalyzer) Health(ctx context.Context) (string, error) {
	resp, err := a.client.Do(ctx, &webclient.Request{
		Method: http.MethodGet,
		URL:    a.base + "/health",
	})
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	if !resp.OK() {
		return "", &BackendError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var h healthResponse
	if err := json.Unmarshal(resp.Body, &h); err != nil {
		return "", &ParseError{Err: err}
	}
	if h.Status == "" {
		return "", &ParseError{Err: fmt.Errorf("missing field %q", "status")}
	}
	a.logger.Debug("health check", logging.Field{Key: "status", Value: h.Status})
	return h.Status, nil
}

// Close releases the underlying webclient.
func (a *HTTPAnalyzer) Close() error {
	a.logger.Info("closing analyzer")
	return a.client.Close()
}
