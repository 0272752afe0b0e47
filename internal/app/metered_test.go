package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktrack/tasktrack/internal/observability"
	"github.com/tasktrack/tasktrack/internal/tasks"
)

type stubRenderer struct{ err error }

func (s stubRenderer) RenderTasks(ctx context.Context, list []tasks.Task) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader("%PDF")), nil
}

func TestMeteredRendererCountsOutcomes(t *testing.T) {
	metrics := observability.NewMetrics()
	ok, err := NewMeteredRenderer(stubRenderer{}, metrics.Registerer())
	require.NoError(t, err)
	failing, err := NewMeteredRenderer(stubRenderer{err: errors.New("gotenberg down")}, metrics.Registerer())
	require.NoError(t, err, "second renderer reuses the registered counter")

	out, err := ok.RenderTasks(context.Background(), nil)
	require.NoError(t, err)
	_ = out.Close()
	_, err = failing.RenderTasks(context.Background(), nil)
	require.Error(t, err)
	_, _ = failing.RenderTasks(context.Background(), nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `tasktrack_pdf_exports_total{outcome="ok"} 1`)
	assert.Contains(t, rr.Body.String(), `tasktrack_pdf_exports_total{outcome="error"} 2`)
}

func TestMeteredRendererRejectsConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "tasktrack_pdf_exports_total", Help: "conflict"}))

	_, err := NewMeteredRenderer(stubRenderer{}, reg)
	require.Error(t, err)
}
