package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// ReportBuilder builds a report for a request without rendering it.
type ReportBuilder interface {
	Build(ctx context.Context, req domain.ReportRequest) (domain.Report, error)
}

// Renderer turns a built report into a document.
type Renderer interface {
	Render(w io.Writer, rep domain.Report) error
}

// ReportHistory lists previously generated reports, newest first.
type ReportHistory interface {
	List(ctx context.Context, limit int) ([]domain.ReportReady, error)
}

// ModelInfoProvider describes the model behind the prediction API.
type ModelInfoProvider interface {
	ModelInfo(ctx context.Context) (domain.ModelInfo, error)
}

// Deps are the collaborators the API handlers call into. Nil members leave
// their routes unregistered.
type Deps struct {
	Reports   ReportBuilder
	Renderer  Renderer
	History   ReportHistory
	Accidents domain.AccidentSource
	Predictor domain.Predictor
	Model     ModelInfoProvider
	Ready     sharedobs.ReadinessChecker
}

// Server exposes the report API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	router.Get("/healthz", sharedobs.LivenessHandler())
	router.Get("/readyz", sharedobs.ReadinessHandler(deps.Ready))
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(s.logRequests)

		if deps.Reports != nil {
			r.Get("/reports/risk", s.handleRiskReport)
			if deps.Renderer != nil {
				r.Get("/reports/risk.pdf", s.handleRiskReportPDF)
			}
		}
		if deps.History != nil {
			r.Get("/reports", s.handleHistory)
		}
		if deps.Accidents != nil {
			r.Get("/dashboard", s.handleDashboard)
		}
		if deps.Model != nil {
			r.Get("/model-info", s.handleModelInfo)
		}
		if deps.Predictor != nil {
			r.Post("/predict", s.handlePredict)
		}
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
