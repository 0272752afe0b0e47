package report

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertStreamsPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(10<<20))

		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "index.html", header.Filename)
		html, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Contains(t, string(html), "<h1>Task List</h1>")
		assert.Equal(t, "8.27", r.FormValue("paperWidth"))
		_, present := r.MultipartForm.Value["marginTop"]
		assert.False(t, present)

		_, _ = w.Write([]byte("MOCK-PDF-CONTENT"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", srv.Client())
	body, err := client.Convert(context.Background(), "index.html", strings.NewReader("<h1>Task List</h1>"), PageOptions{PaperWidth: "8.27"})
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "MOCK-PDF-CONTENT", string(data))
}

func TestConvertStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid HTML"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).Convert(context.Background(), "index.html", strings.NewReader("x"), PageOptions{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "gotenberg response 400: Invalid HTML")
}

func TestConvertRequiresEndpoint(t *testing.T) {
	_, err := NewClient("", nil).Convert(context.Background(), "index.html", strings.NewReader("x"), PageOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint required")
}

func TestConvertContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, srv.Client()).Convert(ctx, "index.html", strings.NewReader("x"), PageOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPingRoute(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	router := chi.NewRouter()
	NewHandler(NewClient(srv.URL, srv.Client()), nil).MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	healthy.Store(false)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
