package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordFit("ols", true)
	r.RecordFit("ols", true)
	r.RecordFit("poly", false)
	r.RecordScenario("api")
	r.RecordError("snapshot")
	r.RecordRefresh(0.5, 7, 2)
	r.RecordLatency("refresh", 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fits.WithLabelValues("ols", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fits.WithLabelValues("poly", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.scenarios.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("snapshot")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.tableRows))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rowFailures))

	n, err := testutil.GatherAndCount(reg, "sumreport_refresh_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
