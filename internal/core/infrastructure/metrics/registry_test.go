package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricsconfig "github.com/weisyn/dualchain/internal/config/metrics"
)

func TestSnapshot(t *testing.T) {
	r := New(&metricsconfig.MetricsOptions{Enabled: true, Namespace: "test"})
	assert.True(t, r.Enabled())
	assert.Equal(t, "test", r.Namespace())

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.Namespace(), Subsystem: "fork", Name: "proposals_total", Help: "h",
	}, []string{"outcome"})
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.Namespace(), Subsystem: "fork", Name: "reorg_depth", Help: "h",
	})
	r.Registerer().MustRegister(counter, hist)

	counter.WithLabelValues("accepted").Add(3)
	counter.WithLabelValues("orphan").Inc()
	hist.Observe(2)

	samples, err := Snapshot(r.Gatherer())
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.Equal(t, Sample{Name: "test_fork_proposals_total", Labels: "outcome=accepted", Value: 3}, samples[0])
	assert.Equal(t, Sample{Name: "test_fork_proposals_total", Labels: "outcome=orphan", Value: 1}, samples[1])
	assert.Equal(t, "test_fork_reorg_depth_count", samples[2].Name)
	assert.Equal(t, float64(2), samples[3].Value)
}

func TestDefaults(t *testing.T) {
	r := New(nil)
	assert.False(t, r.Enabled())
	assert.Equal(t, "dualchain", r.Namespace())
}
