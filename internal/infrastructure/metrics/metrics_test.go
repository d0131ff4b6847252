package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest(http.MethodGet, "/api/v1/students", http.StatusOK, 20*time.Millisecond)
	c.ObserveRequest(http.MethodGet, "/api/v1/students", http.StatusOK, 30*time.Millisecond)
	c.ObserveRequest(http.MethodPost, "/api/v1/students", http.StatusCreated, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/v1/students", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.requests.WithLabelValues("POST", "/api/v1/students", "201")))

	c.RequestStarted()
	c.RequestStarted()
	c.RequestFinished()
	assert.Equal(t, float64(1), testutil.ToFloat64(c.inFlight))

	c.ObserveOperation("getById", nil)
	c.ObserveOperation("getById", errors.New("not found"))
	c.ObserveOperation("getById", errors.New("not found"))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.operations.WithLabelValues("getById", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.operations.WithLabelValues("getById", "error")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	c := NewCollector()
	reg, err := NewRegistry(c)
	require.NoError(t, err)

	c.ObserveOperation("add", nil)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `student_records_operations_total{operation="add",outcome="ok"} 1`))
	assert.Contains(t, string(body), "go_goroutines")
}
