package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"morsel-sales/models"
)

const namespace = "morsel_sales"

// Metrics holds the collectors updated by the pipeline and the HTTP layer.
type Metrics struct {
	RowsRead      prometheus.Counter
	RowsMatched   prometheus.Counter
	RowsDropped   *prometheus.CounterVec
	Records       prometheus.Gauge
	Builds        *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	Queries       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests that build many pipelines want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Raw rows read from input files.",
		}),
		RowsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_matched_total",
			Help:      "Raw rows whose product matched the target product.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Matched rows dropped during normalization, by reason.",
		}, []string{"reason"}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Canonical records in the current snapshot.",
		}),
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Dataset builds, by result.",
		}, []string{"result"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building a dataset snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Dataset queries served, by region.",
		}, []string{"region"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RowsRead, m.RowsMatched, m.RowsDropped, m.Records,
			m.Builds, m.BuildDuration, m.Queries,
		)
	}
	return m
}

// ObserveSource adds one source's normalization counts.
func (m *Metrics) ObserveSource(s models.SourceStats) {
	m.RowsRead.Add(float64(s.Read))
	m.RowsMatched.Add(float64(s.Matched))
	for reason, n := range s.DropReasons {
		m.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveBuild records the outcome of a build attempt.
func (m *Metrics) ObserveBuild(seconds float64, records int, err error) {
	m.BuildDuration.Observe(seconds)
	if err != nil {
		m.Builds.WithLabelValues("error").Inc()
		return
	}
	m.Builds.WithLabelValues("ok").Inc()
	m.Records.Set(float64(records))
}
