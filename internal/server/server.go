// Package server exposes a page source over HTTP.
//
// The wire contract is the one the remote source speaks:
//
//	GET /v1/items?key=<cursor>&limit=<n>  -> {"items": [...], "next": "..." | null}
//	GET /healthz                          -> {"status": "ok", "source": "..."}
//
// Errors are JSON objects of the form {"code": "...", "error": "..."}.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flashlight/pkg/buildinfo"
	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/source"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// Config configures a [Server].
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *log.Logger
}

// Server serves one source.
type Server struct {
	src    source.Source
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New builds a server for src.
func New(src source.Source, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{src: src, cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/items", s.handleItems)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving", "addr", ln.Addr().String(), "source", s.src.Name(), "version", buildinfo.Get().Version)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"source":  s.src.Name(),
		"version": buildinfo.Get().Version,
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cursor := q.Get("key")
	if err := errors.ValidateCursor(cursor); err != nil {
		writeError(w, err)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be an integer"))
			return
		}
		limit = n
	}
	limit, err := source.ValidateLimit(limit)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := s.src.Page(r.Context(), cursor, limit)
	if err != nil {
		loggerFrom(r.Context(), s.logger).Warn("page failed", "cursor", cursor, "err", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := source.EncodePage(w, page); err != nil {
		loggerFrom(r.Context(), s.logger).Error("write page", "err", err)
	}
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCursor, errors.ErrCodeInvalidOptions:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork, errors.ErrCodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	switch {
	case code != "":
	case stderrors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeTimeout
	default:
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorBody{Code: code, Error: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
