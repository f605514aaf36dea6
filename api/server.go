package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/docutag/reviewbot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Querier handles one product query
type Querier interface {
	Handle(ctx context.Context, raw string) models.Outcome
}

// Server represents the API server
type Server struct {
	querier      Querier
	queryTimeout time.Duration
	modelID      string
	gatherer     prometheus.Gatherer
	addr         string
	server       *http.Server
	mux          *http.ServeMux
	corsEnabled  bool
	logger       *slog.Logger
}

// Config contains server configuration
type Config struct {
	Addr         string
	CORSEnabled  bool
	QueryTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		CORSEnabled:  true,
		QueryTimeout: 2 * time.Minute,
	}
}

// NewServer creates a new API server. gatherer backs /metrics.
func NewServer(config Config, querier Querier, modelID string, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = DefaultConfig().QueryTimeout
	}

	s := &Server{
		querier:      querier,
		queryTimeout: config.QueryTimeout,
		modelID:      modelID,
		gatherer:     gatherer,
		addr:         config.Addr,
		mux:          http.NewServeMux(),
		corsEnabled:  config.CORSEnabled,
		logger:       logger,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "reviewbot-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: config.QueryTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/query", s.handleQuery)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Skip health checks and scrapes to reduce noise
		quiet := r.URL.Path == "/health" || r.URL.Path == "/metrics"
		start := time.Now()

		next.ServeHTTP(w, r)

		if !quiet {
			s.logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"model":  s.modelID,
		"time":   time.Now(),
	})
}

// handleQuery scores the product page at the requested URL
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	outcome := s.querier.Handle(ctx, req.URL)
	respondJSON(w, http.StatusOK, outcome)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
