package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for bill generation.
type Metrics struct {
	BillsGenerated     prometheus.Counter
	GenerationFailures *prometheus.CounterVec
	FieldsOmitted      *prometheus.CounterVec
	GenerateDuration   prometheus.Histogram
}

// New registers the bill metrics with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BillsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "billing_bills_generated_total",
			Help: "Total number of bills written to disk",
		}),
		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_generation_failures_total",
			Help: "Bill generations that failed, by error kind",
		}, []string{"kind"}),
		FieldsOmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_fields_omitted_total",
			Help: "Numeric fields left out of a bill because they did not parse",
		}, []string{"field"}),
		GenerateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "billing_generate_duration_seconds",
			Help:    "Duration of bill generation including template read and write",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementGenerated records a successful bill generation.
func (m *Metrics) IncrementGenerated() {
	m.BillsGenerated.Inc()
}

// IncrementFailure records a failed generation of the given kind.
func (m *Metrics) IncrementFailure(kind string) {
	m.GenerationFailures.WithLabelValues(kind).Inc()
}

// IncrementOmitted records a numeric field dropped from a bill.
func (m *Metrics) IncrementOmitted(field string) {
	m.FieldsOmitted.WithLabelValues(field).Inc()
}

// ObserveGenerate records the duration of a generation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGenerate(start time.Time) {
	m.GenerateDuration.Observe(time.Since(start).Seconds())
}
