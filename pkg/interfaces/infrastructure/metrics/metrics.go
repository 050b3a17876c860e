// Package metrics 定义 Prometheus 指标注册接口。
//
// 各核心模块用 Namespace() 构造自己的 collector，并注册到 Registerer()；
// 指标关闭时 Registerer() 指向一个不对外暴露的私有 registry，模块代码无需分支。
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry 指标注册表
type Registry interface {
	// Enabled 是否对外暴露指标
	Enabled() bool

	// Namespace 指标命名空间
	Namespace() string

	// Registerer 注册 collector
	Registerer() prometheus.Registerer

	// Gatherer 采集全部已注册指标
	Gatherer() prometheus.Gatherer
}
