package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-door/internal/audit"
	"github.com/nerrad567/gray-logic-door/internal/connectivity"
)

// healthCheckTimeout bounds each backend check on /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/door", s.handleDoor)
		r.Get("/events", s.handleListEvents)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "the status API is read-only")
	})

	return r
}

// handleHealth reports "ok" when the broker session is up and every
// backend answers, "degraded" with 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.door.Snapshot()

	status := "ok"
	if snap.Connectivity.Session != connectivity.SessionConnected {
		status = "degraded"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	backends := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()

		if err != nil {
			backends[name] = err.Error()
			status = "degraded"
			continue
		}
		backends[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  s.version,
		"link":     snap.Connectivity.Link,
		"session":  snap.Connectivity.Session,
		"door":     snap.State,
		"backends": backends,
	})
}

// handleDoor returns the latest control loop snapshot.
func (s *Server) handleDoor(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.door.Snapshot())
}

// handleListEvents pages the access log, newest first.
//
// Query params: kind (command|transition), limit (default 50, max 200), offset.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeNotFound(w, "access log is disabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{Kind: audit.Kind(q.Get("kind"))}

	if filter.Kind != "" && !filter.Kind.Valid() {
		writeBadRequest(w, "kind must be command or transition")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.events.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing access events failed", "error", err)
		writeInternalError(w, "failed to list access events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
