package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yuya1213/dental-clinic-app/internal/profile"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Store    Store
	Exporter submission.Exporter
	Sessions *Sessions
	// Notifier may be nil.
	Notifier Notifier
	Profile  profile.Profile
	SPADir   string
	Now      func() time.Time
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the server. mount attaches infrastructure routes such as
// health and metrics.
func New(addr string, logger *slog.Logger, deps Deps, mount func(r chi.Router)) *Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(logger, deps, mount),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if deps.Sessions != nil {
		srv.RegisterOnShutdown(deps.Sessions.Close)
	}
	return &Server{srv: srv, logger: logger}
}

func NewRouter(logger *slog.Logger, deps Deps, mount func(r chi.Router)) chi.Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	if mount != nil {
		mount(r)
	}
	addRoutes(r, logger, deps)
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
