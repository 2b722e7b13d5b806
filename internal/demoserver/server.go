package demoserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/model"
	"github.com/raysh454/centinela/internal/utils"
	"github.com/raysh454/centinela/internal/webclient"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// DemoServer is a self-contained Analysis Service: it fetches the submitted
// page, scores the URL and stores the outcome.
type DemoServer struct {
	cfg     Config
	router  chi.Router
	fetcher webclient.WebClient
	store   *Store
	logger  logging.Logger
}

// NewDemoServer wires the routes around an existing fetcher and store.
func NewDemoServer(cfg Config, fetcher webclient.WebClient, store *Store, logger logging.Logger) (*DemoServer, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if cfg.SummaryMaxRunes <= 0 {
		cfg.SummaryMaxRunes = DefaultConfig().SummaryMaxRunes
	}

	s := &DemoServer{
		cfg:     cfg,
		router:  chi.NewRouter(),
		fetcher: fetcher,
		store:   store,
		logger:  logger.With(logging.Field{Key: "component", Value: "demoserver"}),
	}
	s.routes()
	return s, nil
}

func (s *DemoServer) routes() {
	r := s.router
	r.Use(middleware.Recoverer)

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/health", s.handleHealth)
	r.Get("/analyses", s.handleListAnalyses)
	r.Post("/validate", s.handleValidate)
}

// ServeHTTP implements http.Handler.
func (s *DemoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *DemoServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Close releases the fetcher and the store.
func (s *DemoServer) Close() error {
	return errors.Join(s.fetcher.Close(), s.store.Close())
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// --- HTTP handlers ---

func (s *DemoServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload model.AnalyzePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	pageURL, err := utils.Canonicalize(payload.URL, utils.CanonicalizeOptions{})
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("URL inválida: %v", err))
		return
	}
	key, _ := utils.Canonicalize(payload.URL, utils.CanonicalizeOptions{DropTrackingParams: true, StripTrailingSlash: true})

	resp, err := s.fetcher.Get(r.Context(), pageURL)
	if err != nil {
		s.logger.Warn("fetching page", logging.Field{Key: "url", Value: pageURL}, logging.Field{Key: "error", Value: err.Error()})
		writeDetail(w, http.StatusBadGateway, fmt.Sprintf("No se pudo obtener la URL: %v", err))
		return
	}
	if resp.StatusCode >= 400 {
		writeDetail(w, resp.StatusCode, fmt.Sprintf("La URL respondió con código %d", resp.StatusCode))
		return
	}

	canonical, err := url.Parse(pageURL)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("URL inválida: %v", err))
		return
	}
	title, summary := extractTitleAndSummary(resp.Body, canonical, s.cfg.SummaryMaxRunes)
	score := RiskScore(canonical)
	result := model.AnalysisResult{
		URL:     pageURL,
		Title:   title,
		Summary: summary,
		Score:   score,
		Label:   LabelFor(score),
	}

	rec := &Record{AnalysisResult: result, CanonicalURL: key}
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.logger.Error("saving analysis", logging.Field{Key: "error", Value: err.Error()})
		writeDetail(w, http.StatusInternalServerError, "No se pudo guardar el análisis")
		return
	}

	s.logger.Info("analyzed url",
		logging.Field{Key: "id", Value: rec.ID},
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "label", Value: string(result.Label)})
	writeJSON(w, http.StatusOK, result)
}

// handleValidate inspects a URL without fetching or storing anything.
func (s *DemoServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	var payload model.AnalyzePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	target, err := utils.ParseHTTPURL(payload.URL)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("URL inválida: %v", err))
		return
	}
	report := InspectURL(target)
	if report.Blacklist.Listed || report.Patterns.Suspicious {
		s.logger.Warn("suspicious url",
			logging.Field{Key: "url", Value: report.URL},
			logging.Field{Key: "risk_score", Value: report.Patterns.RiskScore})
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *DemoServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *DemoServer) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		v, err := strconv.Atoi(ls)
		if err != nil || v <= 0 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = min(v, maxListLimit)
	}

	var key string
	if raw := r.URL.Query().Get("url"); raw != "" {
		k, err := utils.Canonicalize(raw, utils.CanonicalizeOptions{DropTrackingParams: true, StripTrailingSlash: true})
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("URL inválida: %v", err))
			return
		}
		key = k
	}

	records, err := s.store.List(r.Context(), key, limit)
	if err != nil {
		s.logger.Error("listing analyses", logging.Field{Key: "error", Value: err.Error()})
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}
