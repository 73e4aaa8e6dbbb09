package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/quote-filter/internal/domain"
)

const metricsNamespace = "quotefilter"

// Metrics holds the prometheus collectors updated by the cleaner.
// Collectors are safe for concurrent use, so one Metrics may be shared by
// every request the HTTP service handles.
type Metrics struct {
	scanned  prometheus.Counter
	emitted  prometheus.Counter
	dropped  *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what one-shot CLI runs use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		scanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_scanned_total",
			Help:      "Records read from input.",
		}),
		emitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_emitted_total",
			Help:      "Records that passed validation and were written.",
		}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_dropped_total",
			Help:      "Records rejected by the cleaning rules.",
		}, []string{"reason"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Cleaning runs by result.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of cleaning runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

func (m *Metrics) recordScanned() {
	if m != nil {
		m.scanned.Inc()
	}
}

func (m *Metrics) recordEmitted() {
	if m != nil {
		m.emitted.Inc()
	}
}

func (m *Metrics) recordDropped(reason domain.RejectReason) {
	if m != nil {
		m.dropped.WithLabelValues(string(reason)).Inc()
	}
}

func (m *Metrics) recordRun(s *Summary, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(s.Duration.Seconds())
}
