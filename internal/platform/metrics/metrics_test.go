package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDay(t *testing.T) {
	c := New()
	c.RecordDay(2*time.Millisecond, 900, 80, 20, 5)
	c.RecordDay(3*time.Millisecond, 890, 85, 25, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.daysAdvanced))
	assert.Equal(t, 85.0, testutil.ToFloat64(c.compartments.WithLabelValues("infected")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.newCases))
}

func TestCountersAndHandler(t *testing.T) {
	c := New()
	c.RecordStepError("negative_compartment")
	c.RecordWSConnection(1)
	c.RecordWSConnection(1)
	c.RecordWSConnection(-1)
	c.RecordReportWriteError()
	c.RecordNegativeTolerated()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepErrors.WithLabelValues("negative_compartment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.wsConnections))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "epidemic_step_errors_total{kind=\"negative_compartment\"} 1")
	assert.Contains(t, body, "epidemic_report_write_errors_total 1")
	assert.Contains(t, body, "epidemic_negative_compartments_total 1")
}

func TestGetIsShared(t *testing.T) {
	assert.Same(t, Get(), Get())
}
