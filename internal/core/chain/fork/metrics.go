package fork

import (
	"github.com/prometheus/client_golang/prometheus"

	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/dualchain/pkg/types"
)

// forkMetrics 分叉选择指标；registry 未注入时为 nil，所有方法对 nil 安全
type forkMetrics struct {
	proposals  *prometheus.CounterVec
	reorgs     *prometheus.CounterVec
	reorgDepth *prometheus.HistogramVec
	records    *prometheus.CounterVec
	rollbacks  *prometheus.CounterVec
	orphans    *prometheus.GaugeVec
	readOnly   *prometheus.GaugeVec
}

func newForkMetrics(registry metricsiface.Registry) (*forkMetrics, error) {
	if registry == nil {
		return nil, nil
	}
	ns := registry.Namespace()
	const subsystem = "fork"

	m := &forkMetrics{
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: subsystem,
			Name: "proposals_total",
			Help: "候选区块头裁决次数",
		}, []string{"chain", "outcome"}),
		reorgs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: subsystem,
			Name: "reorgs_total",
			Help: "链重组次数",
		}, []string{"chain"}),
		reorgDepth: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: subsystem,
			Name:    "reorg_depth",
			Help:    "重组撤销的区块数",
			Buckets: []float64{1, 2, 3, 6, 12, 24, 72, 288},
		}, []string{"chain"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: subsystem,
			Name: "change_records_total",
			Help: "写入变更日志的记录数",
		}, []string{"chain", "operation"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: subsystem,
			Name: "rollbacks_total",
			Help: "回滚次数",
		}, []string{"chain"}),
		orphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: subsystem,
			Name: "orphan_pool_size",
			Help: "孤块池中的区块数",
		}, []string{"chain"}),
		readOnly: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: subsystem,
			Name: "read_only",
			Help: "链是否处于只读模式（1 表示只读）",
		}, []string{"chain"}),
	}

	for _, c := range []prometheus.Collector{m.proposals, m.reorgs, m.reorgDepth, m.records, m.rollbacks, m.orphans, m.readOnly} {
		if err := registry.Registerer().Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *forkMetrics) observeProposal(magic types.ChainMagic, result *types.ProposalResult) {
	if m == nil || result == nil {
		return
	}
	m.proposals.WithLabelValues(magic.String(), result.Outcome.String()).Inc()
	if result.ReorgDepth > 0 {
		m.reorgs.WithLabelValues(magic.String()).Inc()
		m.reorgDepth.WithLabelValues(magic.String()).Observe(float64(result.ReorgDepth))
	}
}

func (m *forkMetrics) observeRecords(records []types.ChangeRecord) {
	if m == nil {
		return
	}
	for _, rec := range records {
		m.records.WithLabelValues(rec.ChainIdentifier().String(), rec.Operation().String()).Inc()
	}
}

func (m *forkMetrics) observeRollback(magic types.ChainMagic) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(magic.String()).Inc()
}

func (m *forkMetrics) setOrphans(magic types.ChainMagic, n int) {
	if m == nil {
		return
	}
	m.orphans.WithLabelValues(magic.String()).Set(float64(n))
}

func (m *forkMetrics) setReadOnly(magic types.ChainMagic, readOnly bool) {
	if m == nil {
		return
	}
	v := 0.0
	if readOnly {
		v = 1
	}
	m.readOnly.WithLabelValues(magic.String()).Set(v)
}
