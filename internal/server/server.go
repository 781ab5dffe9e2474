// Package server exposes report views over HTTP.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"grocerybi/internal/observability"
	"grocerybi/internal/report"
	"grocerybi/pkg/errors"

	"github.com/gorilla/mux"
)

// ReportSource produces the report served by the API
type ReportSource func(ctx context.Context) (*report.Report, error)

// Config holds server settings
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the JSON API, health and metrics endpoints
type Server struct {
	config Config
	source ReportSource
	health *observability.HealthManager
	router *mux.Router
	logger *observability.Logger
}

// New wires the routes; health may be nil
func New(config Config, source ReportSource, health *observability.HealthManager) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 15 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 60 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		config: config,
		source: source,
		health: health,
		router: mux.NewRouter(),
		logger: observability.GetDefaultLogger().WithField("component", "server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.instrument)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/views", s.handleViews).Methods(http.MethodGet)
	api.HandleFunc("/views/{name}", s.handleView).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)

	if s.health != nil {
		s.router.Handle("/healthz", s.health.HealthHandler()).Methods(http.MethodGet)
	}
	s.router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to listen").
			WithContext("addr", s.config.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithFields("HTTP server listening", map[string]interface{}{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "HTTP server failed")
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrCodeTimeout, "HTTP server shutdown timed out")
	}
	return nil
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Views())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	rep, err := s.source(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	table, err := rep.View(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == report.FormatJSON {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"run_id":       rep.RunID,
			"generated_at": rep.GeneratedAt,
			"view":         table.ViewInfo,
			"columns":      table.Columns,
			"rows":         table.Rows,
			"data":         table.Data,
		})
		return
	}
	s.writeRendered(w, format, func(opts report.RenderOptions) error {
		return report.RenderTable(w, table, opts)
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.source(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == report.FormatJSON {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	s.writeRendered(w, format, func(opts report.RenderOptions) error {
		return report.RenderReport(w, rep, opts)
	})
}

var contentTypes = map[string]string{
	report.FormatCSV:   "text/csv; charset=utf-8",
	report.FormatYAML:  "application/yaml",
	report.FormatTable: "text/plain; charset=utf-8",
}

func (s *Server) writeRendered(w http.ResponseWriter, format string, render func(report.RenderOptions) error) {
	ct, ok := contentTypes[format]
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeUnknownFormat, "Unknown output format").
			WithContext("format", format))
		return
	}
	w.Header().Set("Content-Type", ct)
	if err := render(report.RenderOptions{Format: format}); err != nil {
		s.logger.WithError(err).Error("Failed to render response")
	}
}

type errorBody struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetErrorCode(err) {
	case errors.ErrCodeViewNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnknownFormat, errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeConnectionFailed, errors.ErrCodeConnectionTimeout, errors.ErrCodeMaxRetriesExceeded:
		status = http.StatusServiceUnavailable
	}

	body := errorBody{Code: string(errors.GetErrorCode(err)), Message: err.Error()}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Message = appErr.Message
		body.Context = appErr.Context
		body.Suggestions = appErr.Suggestions
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, map[string]interface{}{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests by route template and status code
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.DebugWithFields("HTTP request", map[string]interface{}{
			"method":      r.Method,
			"route":       route,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
