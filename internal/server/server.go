package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nature-catalyst/impact-intake/internal/auth"
	"github.com/nature-catalyst/impact-intake/internal/export"
	"github.com/nature-catalyst/impact-intake/internal/pipeline"
	"github.com/nature-catalyst/impact-intake/internal/repository"
)

// Server owns the HTTP surface: submission pipeline, project review
// operations, exports, and the operational endpoints.
type Server struct {
	addr      string
	processor *pipeline.Processor
	repo      repository.ProjectRepository
	exporter  *export.Service
	codes     *auth.Codes
	log       *slog.Logger

	httpSrv *http.Server
}

func New(addr string, p *pipeline.Processor, repo repository.ProjectRepository, exp *export.Service, codes *auth.Codes, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		addr:      addr,
		processor: p,
		repo:      repo,
		exporter:  exp,
		codes:     codes,
		log:       log,
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router assembles the chi router. Exposed separately so tests can drive the
// handlers through httptest without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Post("/submissions", s.handleSubmission)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Post("/lookup", s.handleCredentialLookup)
			r.Get("/", s.handleListProjects)
			r.Get("/buckets", s.handleBuckets)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Patch("/", s.handleUpdateProject)
				r.Delete("/", s.handleDeleteProject)
				r.Put("/status", s.handleUpdateStatus)
				r.Post("/membership", s.handleMembership)
			})
		})

		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/xlsx", s.handleExportXLSX)
	})

	return r
}

// Start blocks until the context is cancelled, then shuts down gracefully
// within the given timeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server.listening", "addr", s.addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server.shutting_down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
