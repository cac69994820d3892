// Package api serves the chat demo over a JSON HTTP API.
//
// The surface is deliberately small: one chat endpoint, transcript
// read/clear, database inspection and reset, and the tool catalog.
// All state-changing endpoints operate on process-local state; there is
// no authentication or persistence.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shoptalk-demo/shoptalk/internal/registry"
	"github.com/shoptalk-demo/shoptalk/internal/store"
	"github.com/shoptalk-demo/shoptalk/internal/transcript"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Converser   Converser         // Required
	Transcript  *transcript.Store // Required
	Store       *store.Store      // Required
	Registry    *registry.Registry
	CORSOrigins []string // Allowed origins for CORS
	RateRPS     float64  // Rate limiter refill per IP (0 = default 5/sec)
	RateBurst   int      // Rate limiter burst size per IP (0 = default 10)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Converser == nil {
		return nil, errors.New("converser is required")
	}
	if cfg.Transcript == nil {
		return nil, errors.New("transcript store is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("data store is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		converser:  cfg.Converser,
		transcript: cfg.Transcript,
		store:      cfg.Store,
		registry:   cfg.Registry,
		logger:     logger,
	}

	mux := http.NewServeMux()

	// Chat and transcript
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("GET /api/v1/messages", ch.listMessages)
	mux.HandleFunc("DELETE /api/v1/messages", ch.clearMessages)

	// Database inspection
	mux.HandleFunc("GET /api/v1/db", ch.getDB)
	mux.HandleFunc("POST /api/v1/db/reset", ch.resetDB)

	// Tool catalog
	mux.HandleFunc("GET /api/v1/tools", ch.listTools)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	rl := newRateLimiter(rps, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in
	// log attributes. CORS must be before RateLimit so preflight
	// OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", healthHandler(logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
