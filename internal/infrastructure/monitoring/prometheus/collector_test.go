package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestNewMetricsCollector_GoMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableGoMetrics: true}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "go_goroutines")
}

func TestRegisterCounter_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("things_total", "things", "kind")
	b := c.RegisterCounter("things_total", "things", "kind")

	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Add(2)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_things_total{kind="x"} 3`)
}

func TestRegister_TypeMismatchIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dual", "first as counter")

	g := c.RegisterGauge("dual", "then as gauge")
	assert.IsType(t, noopGaugeVec{}, g)
	g.WithLabelValues().Set(5)
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("in_flight", "in flight", "method")
	g.WithLabelValues("GET").Inc()
	g.WithLabelValues("GET").Inc()
	g.WithLabelValues("GET").Dec()

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_in_flight{method="GET"} 1`)
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "op", nil, "op")

	timer := NewTimer(h.WithLabelValues("classify"))
	d := timer.ObserveDuration()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Contains(t, scrapeMetrics(t, c), `test_unit_op_seconds_count{op="classify"} 1`)

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}
