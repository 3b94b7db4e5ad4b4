package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus counters and histograms for the export batch.
// Each Metrics value carries its own registry: a batch job has no scrape
// surface, so metrics are delivered via Pushgateway after the run, and a
// private registry also keeps tests free of "already registered" panics.
type Metrics struct {
	WindowsLoaded   prometheus.Counter
	FiresExported   prometheus.Counter
	FiresSkipped    *prometheus.CounterVec // label: reason={missing_reference,empty_final_geometry,evaluate_error}
	FeaturesWritten prometheus.Counter
	ExportDuration  prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all export metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		WindowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "windows_loaded_total",
			Help:      "Total predicted-window rows loaded from the dataset.",
		}),
		FiresExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "fires_exported_total",
			Help:      "Total fires written to both output artifacts.",
		}),
		FiresSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "fires_skipped_total",
			Help:      "Total fires excluded from output, by reason.",
		}, []string{"reason"}),
		FeaturesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "features_written_total",
			Help:      "Total GeoJSON features written across perimeter files.",
		}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "export_duration_seconds",
			Help:      "Duration of a complete export run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.WindowsLoaded,
		m.FiresExported,
		m.FiresSkipped,
		m.FeaturesWritten,
		m.ExportDuration,
	)

	return m
}

// Push delivers all collected metrics to a Prometheus Pushgateway under the
// fire_perimeter_etl job.
func (m *Metrics) Push(ctx context.Context, gatewayURL string) error {
	return push.New(gatewayURL, "fire_perimeter_etl").Gatherer(m.registry).PushContext(ctx)
}
