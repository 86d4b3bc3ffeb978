package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-door/internal/audit"
	"github.com/nerrad567/gray-logic-door/internal/controller"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-door/internal/infrastructure/logging"
)

// gracefulShutdownTimeout bounds in-flight requests during Close.
const gracefulShutdownTimeout = 5 * time.Second

// SnapshotSource provides the control loop's latest view.
type SnapshotSource interface {
	Snapshot() controller.Snapshot
}

// HealthChecker is implemented by optional backends reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies of the status API.
type Deps struct {
	Config config.APIConfig
	Logger *logging.Logger
	Door   SnapshotSource

	// Events serves /events. Nil when the access log is disabled.
	Events audit.Repository

	// Checks are named backends checked by /health, e.g. "database".
	Checks map[string]HealthChecker

	Version string
}

// Server is the read-only HTTP status API. It has no way to open the door.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	door    SnapshotSource
	events  audit.Repository
	checks  map[string]HealthChecker
	version string

	server   *http.Server
	listener net.Listener
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Door == nil {
		return nil, fmt.Errorf("door snapshot source is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		door:    deps.Door,
		events:  deps.Events,
		checks:  deps.Checks,
		version: deps.Version,
	}, nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
