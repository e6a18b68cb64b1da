package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncrementGenerated()
	m.IncrementGenerated()
	m.IncrementFailure("date_parse")
	m.IncrementOmitted("rate")
	m.IncrementOmitted("rate")
	m.IncrementOmitted("roff")
	m.ObserveGenerate(time.Now().Add(-20 * time.Millisecond))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BillsGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationFailures.WithLabelValues("date_parse")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GenerationFailures.WithLabelValues("write")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FieldsOmitted.WithLabelValues("rate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FieldsOmitted.WithLabelValues("roff")))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["billing_bills_generated_total"])
	assert.True(t, names["billing_generate_duration_seconds"])
}

func TestNew_SeparateRegistries(t *testing.T) {
	// a second registry must not panic on duplicate registration
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
