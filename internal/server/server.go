// Package server exposes the event router over HTTP to local producers such
// as a browser extension
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ayoisaiah/solvelog/internal/config"
	"github.com/ayoisaiah/solvelog/internal/router"
	"github.com/ayoisaiah/solvelog/internal/session"
	"github.com/ayoisaiah/solvelog/store"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// httpError is an error with the status code it should be reported as.
type httpError struct {
	err    error
	status int
}

func (e *httpError) Error() string {
	return e.err.Error()
}

func (e *httpError) Unwrap() error {
	return e.err
}

func badRequest(err error) error {
	return &httpError{status: http.StatusBadRequest, err: err}
}

type errorHandler func(w http.ResponseWriter, r *http.Request) error

func (h errorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err == nil {
		return
	}

	status := statusOf(err)

	if status >= http.StatusInternalServerError {
		slog.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var he *httpError

	switch {
	case errors.As(err, &he):
		return he.status
	case errors.Is(err, router.ErrInvalidEvent),
		errors.Is(err, router.ErrManualStopDisabled),
		errors.Is(err, session.ErrMissingIdentity),
		errors.Is(err, config.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, router.ErrReadOnlySettings):
		return http.StatusMethodNotAllowed
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))

	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("decoding request body: %w", err))
	}

	return nil
}

// Server serves the router.
type Server struct {
	router *router.Router
}

// New returns a Server for rt.
func New(rt *router.Router) *Server {
	return &Server{router: rt}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /events", errorHandler(s.postEvent))
	mux.Handle("GET /sessions", errorHandler(s.listSessions))
	mux.Handle("DELETE /sessions", errorHandler(s.clearSessions))
	mux.Handle("GET /sessions/{platform}/{problemID}", errorHandler(s.getSession))
	mux.Handle("GET /settings", errorHandler(s.getSettings))
	mux.Handle("PUT /settings", errorHandler(s.putSettings))

	return mux
}

func (s *Server) postEvent(w http.ResponseWriter, r *http.Request) error {
	var ev router.Event
	if err := decode(r, &ev); err != nil {
		return err
	}

	rec, err := s.router.Handle(r.Context(), ev)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, rec)

	return nil
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) error {
	recs, err := s.router.Sessions(r.Context())
	if err != nil {
		return err
	}

	if recs == nil {
		recs = []session.Record{}
	}

	writeJSON(w, http.StatusOK, recs)

	return nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) error {
	rec, err := s.router.Session(
		r.Context(),
		r.PathValue("platform"),
		r.PathValue("problemID"),
	)
	if err != nil {
		return err
	}

	if rec == nil {
		return &httpError{
			status: http.StatusNotFound,
			err:    errors.New("no session for this problem"),
		}
	}

	writeJSON(w, http.StatusOK, rec)

	return nil
}

func (s *Server) clearSessions(w http.ResponseWriter, r *http.Request) error {
	if err := s.router.ClearSessions(r.Context()); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) error {
	settings, err := s.router.Settings(r.Context())
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, settings)

	return nil
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) error {
	var settings config.Settings
	if err := decode(r, &settings); err != nil {
		return err
	}

	if err := s.router.UpdateSettings(r.Context(), settings); err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, settings)

	return nil
}

// ListenAndServe serves on 127.0.0.1:port until ctx ends, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port uint) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", strconv.FormatUint(uint64(port), 10)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
