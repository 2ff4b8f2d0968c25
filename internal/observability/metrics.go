package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "metar_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the decoding pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Decoder metrics.
	DecodeErrors    *prometheus.CounterVec // labels: kind={mismatch,out_of_range,malformed_missing,trailing_input,empty,other}
	LeftoverReports prometheus.Counter
	FlightCategory  *prometheus.CounterVec // labels: category={VFR,MVFR,IFR,LIFR,unknown}

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Station lookup metrics.
	StationLookups     *prometheus.CounterVec // labels: outcome={success,error,empty}
	StationCache       *prometheus.CounterVec // labels: result={hit,miss}
	StationAPIDuration prometheus.Histogram
	StationLookupOn    prometheus.Gauge

	// Archive and HTTP metrics.
	ArchiveInserts *prometheus.CounterVec // labels: result={inserted,duplicate}
	HTTPRequests   *prometheus.CounterVec // labels: route, code
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total observations written to the configured sinks.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total messages skipped because they did not decode.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "METAR decode failures by error kind.",
		}, []string{"kind"}),
		LeftoverReports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leftover_reports_total",
			Help:      "Reports that decoded with unrecognised trailing text.",
		}),
		FlightCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flight_category_total",
			Help:      "Decoded observations by flight category.",
		}, []string{"category"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_lookups_total",
			Help:      "Station locator API requests by outcome.",
		}, []string{"outcome"}),
		StationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_cache_total",
			Help:      "Station locator cache lookups by result.",
		}, []string{"result"}),
		StationAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "station_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		StationLookupOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_lookup_enabled",
			Help:      "1 when station location enrichment is enabled, 0 otherwise.",
		}),
		ArchiveInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_inserts_total",
			Help:      "SQLite archive inserts by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.DecodeErrors,
		m.LeftoverReports,
		m.FlightCategory,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.StationLookups,
		m.StationCache,
		m.StationAPIDuration,
		m.StationLookupOn,
		m.ArchiveInserts,
		m.HTTPRequests,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
