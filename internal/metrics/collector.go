// Package metrics exposes the outcome of validation runs as Prometheus
// metrics for the monitor command.
//
// Metrics:
//   - prodcheck_runs_total: completed runs by kind and outcome
//   - prodcheck_last_run_timestamp_seconds: start time of the latest run
//   - prodcheck_last_run_duration_seconds: wall time of the latest run
//   - prodcheck_last_status_code: response status of the latest run
//   - prodcheck_last_products: records validated in the latest run
//   - prodcheck_last_defective_products: defective products in the latest run
//   - prodcheck_last_defects: defects of the latest run by category
package metrics

import (
	"net/http"

	"github.com/nao1215/prodcheck/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "prodcheck"

// Run outcomes used as label values.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Collector records run outcomes into a Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	runs              *prometheus.CounterVec
	lastTimestamp     *prometheus.GaugeVec
	lastDuration      *prometheus.GaugeVec
	lastStatusCode    *prometheus.GaugeVec
	lastProducts      *prometheus.GaugeVec
	lastDefective     *prometheus.GaugeVec
	lastDefectsByType *prometheus.GaugeVec
}

// NewCollector creates a collector and registers its metrics with registry.
// A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Total number of completed validation runs",
			},
			[]string{"kind", "outcome"},
		),
		lastTimestamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time at which the latest run started",
			},
			[]string{"kind"},
		),
		lastDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_run_duration_seconds",
				Help:      "Wall time of the latest run in seconds",
			},
			[]string{"kind"},
		),
		lastStatusCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_status_code",
				Help:      "HTTP status of the latest run (0 when the request failed)",
			},
			[]string{"kind"},
		),
		lastProducts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_products",
				Help:      "Number of records validated in the latest run",
			},
			[]string{"kind"},
		),
		lastDefective: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_defective_products",
				Help:      "Number of defective products in the latest run",
			},
			[]string{"kind"},
		),
		lastDefectsByType: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_defects",
				Help:      "Defects of the latest run by summary category",
			},
			[]string{"kind", "category"},
		),
	}

	registry.MustRegister(
		c.runs,
		c.lastTimestamp,
		c.lastDuration,
		c.lastStatusCode,
		c.lastProducts,
		c.lastDefective,
		c.lastDefectsByType,
	)

	return c
}

// Observe records a completed run.
func (c *Collector) Observe(run *model.Run) {
	kind := string(run.Kind)
	report := run.Report
	if report == nil {
		report = model.GenerateReport(run.Defects, len(run.Records))
	}

	outcome := OutcomePass
	if report.TotalDefects > 0 || run.Error != "" {
		outcome = OutcomeFail
	}

	c.runs.WithLabelValues(kind, outcome).Inc()
	c.lastTimestamp.WithLabelValues(kind).Set(float64(run.StartedAt.Unix()))
	c.lastDuration.WithLabelValues(kind).Set(run.Duration.Seconds())
	c.lastStatusCode.WithLabelValues(kind).Set(float64(run.StatusCode))
	c.lastProducts.WithLabelValues(kind).Set(float64(report.TotalProducts))
	c.lastDefective.WithLabelValues(kind).Set(float64(report.DefectiveProducts.Len()))
	for _, category := range model.Categories() {
		c.lastDefectsByType.WithLabelValues(kind, string(category)).Set(float64(report.Summary.Count(category)))
	}
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
