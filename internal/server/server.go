package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inboxbrief/inboxbrief/internal/google"
	"github.com/inboxbrief/inboxbrief/internal/instrumentation"
	"github.com/inboxbrief/inboxbrief/internal/llm"
	"github.com/inboxbrief/inboxbrief/internal/run"
)

const (
	// DefaultHTTPAddr is the default listen address for the API server.
	DefaultHTTPAddr = ":8080"

	// maxRequestBody bounds request bodies; runs carry tiny JSON inputs.
	maxRequestBody = 64 << 10
)

// runner is the run controller surface the handlers drive. Tests substitute
// a fake; production uses *run.Controller.
type runner interface {
	RunDigest(ctx context.Context, shape run.Shape, sink run.Sink, body []byte, requestID string)
	RunDraftReply(ctx context.Context, sink run.Sink, body []byte, requestID string)
}

// Config holds the API server settings.
type Config struct {
	Addr             string
	Account          string
	FetchConcurrency int
	MaxItems         int
	Query            string
}

// Server is the HTTP SSE API: three run endpoints plus health probes.
type Server struct {
	sc       *ServerContext
	analyzer llm.Analyzer
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	health   *HealthChecker
	cfg      Config

	httpServer *http.Server

	// runnerFor resolves the run controller for one account. Swapped out
	// in tests.
	runnerFor func(account string) (runner, error)
}

// New creates the API server.
func New(sc *ServerContext, analyzer llm.Analyzer, logger *slog.Logger, metrics *instrumentation.Metrics, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultHTTPAddr
	}
	if cfg.Account == "" {
		cfg.Account = google.DefaultAccount
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sc:       sc,
		analyzer: analyzer,
		logger:   logger,
		metrics:  metrics,
		health:   NewHealthChecker(sc),
		cfg:      cfg,
	}
	s.runnerFor = s.newController
	return s
}

func (s *Server) newController(account string) (runner, error) {
	client := s.sc.GmailClientForAccount(account)
	if client == nil {
		return nil, fmt.Errorf("no Google credentials for account %q", account)
	}
	return run.NewController(client, s.analyzer, s.logger, s.metrics, run.Config{
		FetchConcurrency: s.cfg.FetchConcurrency,
		MaxItems:         s.cfg.MaxItems,
		Query:            s.cfg.Query,
		Account:          account,
	}), nil
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(httpMetrics(s.metrics))

	r.Post("/agent", s.handleRun(run.ShapeAgent))
	r.Post("/narrative", s.handleRun(run.ShapeNarrative))
	r.Post("/draft-reply", s.handleRun(run.ShapeDraftReply))

	s.health.RegisterHealthEndpoints(r)
	return r
}

// handleRun is the shared endpoint body: resolve the account's controller,
// switch the connection to SSE, and drive the requested run shape.
func (s *Server) handleRun(shape run.Shape) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := r.URL.Query().Get("account")
		if account == "" {
			account = s.cfg.Account
		}

		ctrl, err := s.runnerFor(account)
		if err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		sink, err := newSSESink(w, r)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		reqID := requestIDFrom(r.Context())
		if shape == run.ShapeDraftReply {
			ctrl.RunDraftReply(r.Context(), sink, body, reqID)
			return
		}
		ctrl.RunDigest(r.Context(), shape, sink, body, reqID)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Start runs the API server until the listener fails or Shutdown is called.
// SSE responses stream for as long as a run takes; the server carries no
// write timeout.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("starting API server", slog.String("addr", s.cfg.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		s.logger.Info("shutting down API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}
