// Package metrics 提供基于 Prometheus 的指标注册表
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	metricsconfig "github.com/weisyn/dualchain/internal/config/metrics"
	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
)

// Registry 实现 metrics.Registry
//
// 每个应用实例持有独立的 prometheus.Registry，测试之间互不干扰。
type Registry struct {
	reg       *prometheus.Registry
	enabled   bool
	namespace string
}

var _ metricsiface.Registry = (*Registry)(nil)

// New 根据配置创建注册表
func New(options *metricsconfig.MetricsOptions) *Registry {
	r := &Registry{reg: prometheus.NewRegistry(), namespace: "dualchain"}
	if options != nil {
		r.enabled = options.Enabled
		if options.Namespace != "" {
			r.namespace = options.Namespace
		}
	}
	return r
}

func (r *Registry) Enabled() bool                     { return r.enabled }
func (r *Registry) Namespace() string                 { return r.namespace }
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }
func (r *Registry) Gatherer() prometheus.Gatherer     { return r.reg }

// Sample 单个指标样本（用于 CLI 展示）
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot 采集并展开所有计数器/仪表盘/直方图样本，按名称排序
//
// 直方图展开为 _count 与 _sum 两个样本。
func Snapshot(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("采集指标失败: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, Sample{Name: mf.GetName(), Labels: labels, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				out = append(out,
					Sample{Name: mf.GetName() + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					Sample{Name: mf.GetName() + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return strings.Join(parts, ",")
}
