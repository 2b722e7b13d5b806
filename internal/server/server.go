package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/centinela/internal/app"
	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/monitor"
	_ "github.com/raysh454/centinela/internal/server/docs" // swagger spec
)

const wsBuffer = 16

// Server is the HTTP + WebSocket API surface for a Centinela session.
type Server struct {
	cfg      Config
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer exposes application's session over HTTP.
func NewServer(cfg Config, application *app.Application) (*Server, error) {
	if application == nil || application.Orch == nil {
		return nil, errors.New("application with an orchestrator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:    cfg,
		app:    application,
		router: r,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to configured origins once the frontend is served from a fixed host
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.app.Orch
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/session", s.optionsHandler("GET"))
	r.Options("/session/submit", s.optionsHandler("POST"))
	r.Options("/health", s.optionsHandler("GET"))

	r.Get("/session", s.handleGetSession)
	r.Post("/session/submit", s.handleSubmit)
	r.Get("/health", s.handleHealth)

	// WebSocket for session transitions
	r.Get("/ws/session", s.handleSessionWS)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Method(http.MethodGet, "/metrics", s.app.Metrics.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)
	s.app.Metrics.ObserveRequest(s.endpoint(r), r.Method)

	s.router.ServeHTTP(w, r)
}

// endpoint maps r to its route pattern so metric labels stay bounded.
func (s *Server) endpoint(r *http.Request) string {
	rctx := chi.NewRouteContext()
	if !s.router.Match(rctx, r.Method, r.URL.Path) {
		return "unmatched"
	}
	return rctx.RoutePattern()
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

// handleGetSession godoc
// @Summary Current session state
// @Tags session
// @Produce json
// @Success 200 {object} model.SessionState
// @Router /session [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Orch.State())
}

// handleSubmit godoc
// @Summary Submit a URL for analysis
// @Tags session
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Raw input"
// @Success 202 {object} model.SessionState
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} model.SessionState
// @Failure 422 {object} model.SessionState
// @Failure 503 {object} model.SessionState
// @Router /session/submit [post]
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// The request outlives this handler; it ends with the application.
	state, outcome := s.app.Orch.Dispatch(s.app.Context(), req.URL)

	status := http.StatusAccepted
	switch outcome {
	case app.OutcomeInvalid:
		status = http.StatusUnprocessableEntity
	case app.OutcomeBusy:
		status = http.StatusConflict
	case app.OutcomeClosed:
		status = http.StatusServiceUnavailable
	}
	s.logger.Info("submission", logging.Field{Key: "outcome", Value: outcome.String()}, logging.Field{Key: "attempt_id", Value: state.AttemptID})
	writeJSON(w, status, state)
}

// handleHealth godoc
// @Summary Analysis Service health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	hs := s.analysisHealth(r.Context())
	status := http.StatusOK
	if !hs.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: "ok", Analysis: hs})
}

func (s *Server) analysisHealth(ctx context.Context) monitor.HealthStatus {
	if m := s.app.Monitor; m != nil {
		if last := m.Last(); last.Status != monitor.StatusUnknown {
			return last
		}
		return m.CheckNow(ctx)
	}

	status, err := s.app.Analyzer.Health(ctx)
	hs := monitor.HealthStatus{Status: status, CheckedAt: time.Now()}
	if err != nil {
		hs.Status = monitor.StatusUnreachable
		hs.Error = err.Error()
	}
	return hs
}

// WebSockets

// handleSessionWS sends the current state, then one message per transition
// until the client goes away or the application shuts down.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.app.Orch.Subscribe(wsBuffer)
	defer unsubscribe()

	if err := conn.WriteJSON(s.app.Orch.State()); err != nil {
		return
	}

	// Reads only detect the close; clients do not send anything meaningful.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
