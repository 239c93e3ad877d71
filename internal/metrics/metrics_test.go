package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ExposedOnHandler(t *testing.T) {
	m, handler, err := Setup("studio-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordUpstreamRequest(ctx, http.MethodGet, http.StatusOK)
	m.RecordSessionRefresh(ctx, false)
	m.CacheHit(ctx, "publications")
	m.CacheMiss(ctx, "publications")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/publications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", handler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/publications/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "studio_upstream_requests_total")
	assert.Contains(t, text, "studio_session_refreshes_total")
	assert.Contains(t, text, "studio_cache_hits_total")
	assert.Contains(t, text, `route="/publications/{id}"`)
}

func TestSetup_Twice(t *testing.T) {
	_, _, err := Setup("a")
	require.NoError(t, err)
	_, _, err = Setup("b")
	require.NoError(t, err)
}
