// Package metrics provides observability for the simulator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers simulator metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	daysAdvanced      prometheus.Counter
	dayDuration       prometheus.Histogram
	stepErrors        *prometheus.CounterVec
	compartments      *prometheus.GaugeVec
	newCases          prometheus.Gauge
	wsConnections     prometheus.Gauge
	reportWriteErrors prometheus.Counter
	negativeTolerated prometheus.Counter
}

// New creates a collector with all simulator metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		daysAdvanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "epidemic_days_advanced_total",
			Help: "Total simulated days committed",
		}),
		dayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "epidemic_day_duration_seconds",
			Help:    "Time spent computing and committing one simulated day",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "epidemic_step_errors_total",
			Help: "Aborted day advances by error kind",
		}, []string{"kind"}),
		compartments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "epidemic_compartment",
			Help: "Aggregate compartment counts across all regions",
		}, []string{"compartment"}),
		newCases: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "epidemic_new_cases",
			Help: "Change in total infected during the last committed day",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "epidemic_ws_connections",
			Help: "Active WebSocket subscribers",
		}),
		reportWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "epidemic_report_write_errors_total",
			Help: "Failed writes of day reports to an output or of events to storage",
		}),
		negativeTolerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "epidemic_negative_compartments_total",
			Help: "Negative compartments kept under the allow policy",
		}),
	}

	c.registry.MustRegister(
		c.daysAdvanced,
		c.dayDuration,
		c.stepErrors,
		c.compartments,
		c.newCases,
		c.wsConnections,
		c.reportWriteErrors,
		c.negativeTolerated,
	)
	return c
}

// Global collector instance
var collector = New()

// Get returns the process-wide collector.
func Get() *Collector {
	return collector
}

// RecordDay records a committed day.
func (c *Collector) RecordDay(latency time.Duration, susceptible, infected, recovered, newCases int) {
	c.daysAdvanced.Inc()
	c.dayDuration.Observe(latency.Seconds())
	c.compartments.WithLabelValues("susceptible").Set(float64(susceptible))
	c.compartments.WithLabelValues("infected").Set(float64(infected))
	c.compartments.WithLabelValues("recovered").Set(float64(recovered))
	c.newCases.Set(float64(newCases))
}

// RecordStepError records an aborted day advance.
func (c *Collector) RecordStepError(kind string) {
	c.stepErrors.WithLabelValues(kind).Inc()
}

// RecordNegativeTolerated counts a negative compartment kept by the allow policy.
func (c *Collector) RecordNegativeTolerated() {
	c.negativeTolerated.Inc()
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int) {
	c.wsConnections.Add(float64(delta))
}

// RecordReportWriteError records a failed report output or storage write.
func (c *Collector) RecordReportWriteError() {
	c.reportWriteErrors.Inc()
}

// Registry exposes the underlying registry for tests and custom exporters.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
