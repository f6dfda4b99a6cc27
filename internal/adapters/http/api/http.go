// Package api exposes the bot commands over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/scrollstats/internal/app"
	"github.com/okian/scrollstats/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Dispatch runs one command.
	Dispatch(ctx context.Context, c service.Command) (*service.Result, error)
	// Status reports the dataset cache.
	Status(ctx context.Context) (*service.Result, error)
}

// Server wires HTTP routes for the command API.
type Server struct {
	healthHandler   *HealthHandler
	statusHandler   *StatusHandler
	commandsHandler *CommandsHandler
	logger          logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	s.healthHandler = NewHealthHandler()
	s.statusHandler = NewStatusHandler(deps)
	s.commandsHandler = NewCommandsHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/commands", MetricsMiddleware(s.commandsHandler.HandleList, "commands"))
	mux.HandleFunc("/commands/{name}", MetricsMiddleware(s.commandsHandler.HandleCommand, "command"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps a command error kind to an HTTP status.
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
