package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("imgethancer", reg, zap.NewNop())

	c.RecordHTTPRequest("POST", "/api/v1/images/generate", 200, 150*time.Millisecond)
	c.RecordHTTPRequest("POST", "/api/v1/images/generate", 429, 20*time.Millisecond)
	c.RecordGeneration("openrouter", "test/model", "success", 2*time.Second)
	c.RecordImageOperation("created")
	c.RecordImageOperation("deleted")
	c.RecordAuthAttempt("signin", "failure")
	c.SetDBConnections(7, 3)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.httpRequestsTotal.WithLabelValues("POST", "/api/v1/images/generate", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.httpRequestsTotal.WithLabelValues("POST", "/api/v1/images/generate", "429")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.generationsTotal.WithLabelValues("openrouter", "test/model", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.imageRecordsTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.imageRecordsTotal.WithLabelValues("deleted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.authAttemptsTotal.WithLabelValues("signin", "failure")))
	assert.Equal(t, float64(7), testutil.ToFloat64(c.dbConnectionsOpen))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.dbConnectionsIdle))
}

func TestCollectorRegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("imgethancer", reg, zap.NewNop())
	c.RecordHTTPRequest("GET", "/api/v1/images", 200, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
