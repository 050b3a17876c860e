package metrics

import (
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
	"go.uber.org/fx"
)

// ModuleInput 指标模块依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
}

// Module 返回 metrics 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(func(in ModuleInput) metricsiface.Registry {
			return New(in.Provider.GetMetrics())
		}),
	)
}
