package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/observability"
	"github.com/tasktrack/tasktrack/internal/platform/httpx"
	"github.com/tasktrack/tasktrack/internal/tasks"
	"github.com/tasktrack/tasktrack/internal/users"
	"github.com/tasktrack/tasktrack/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator *auth.Authenticator
	AuthHandler   *auth.Handler
	UsersHandler  *users.Handler
	TasksHandler  *tasks.Handler
	ReportHandler *report.Handler
	Metrics       *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(params.Authenticator.Require)
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
		r.Route("/tasks", params.TasksHandler.MountRoutes)
	})

	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	return r
}

// MeteredRenderer counts every PDF render attempt by outcome.
type MeteredRenderer struct {
	next    tasks.PDFRenderer
	renders *prometheus.CounterVec
}

// NewMeteredRenderer wraps next and registers its counter with reg.
func NewMeteredRenderer(next tasks.PDFRenderer, reg prometheus.Registerer) (*MeteredRenderer, error) {
	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tasktrack_pdf_exports_total",
		Help: "Task list PDF renders by outcome.",
	}, []string{"outcome"})
	if err := reg.Register(renders); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("app: register pdf metrics: %w", err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("app: register pdf metrics: %w", err)
		}
		renders = existing
	}
	renders.WithLabelValues("ok")
	renders.WithLabelValues("error")
	return &MeteredRenderer{next: next, renders: renders}, nil
}

// RenderTasks implements tasks.PDFRenderer.
func (m *MeteredRenderer) RenderTasks(ctx context.Context, list []tasks.Task) (io.ReadCloser, error) {
	out, err := m.next.RenderTasks(ctx, list)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(outcome).Inc()
	return out, err
}
