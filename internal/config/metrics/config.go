// Package metrics 提供 Prometheus 指标配置
package metrics

import configtypes "github.com/weisyn/dualchain/pkg/types"

// MetricsOptions 指标配置选项
type MetricsOptions struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// Config 指标配置实现
type Config struct {
	options *MetricsOptions
}

// New 创建指标配置实现
func New(userConfig interface{}) *Config {
	options := &MetricsOptions{
		Enabled:   defaultEnabled,
		Namespace: defaultNamespace,
	}
	if m, ok := userConfig.(*configtypes.UserMetricsConfig); ok && m != nil {
		if m.Enabled != nil {
			options.Enabled = *m.Enabled
		}
		if m.Namespace != nil && *m.Namespace != "" {
			options.Namespace = *m.Namespace
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整的指标配置选项
func (c *Config) GetOptions() *MetricsOptions {
	return c.options
}

func (c *Config) IsEnabled() bool      { return c.options.Enabled }
func (c *Config) GetNamespace() string { return c.options.Namespace }
