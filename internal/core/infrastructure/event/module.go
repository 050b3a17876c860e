// Package event 进程内事件总线：链头切换、重组、只读等通知
package event

import (
	"context"

	"go.uber.org/fx"

	eventconfig "github.com/weisyn/dualchain/internal/config/event"
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	eventiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
)

// Params 事件模块依赖
type Params struct {
	fx.In

	Provider  config.Provider
	Logger    log.Logger `optional:"true"`
	Lifecycle fx.Lifecycle
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideEventBus),
	)
}

// ProvideEventBus 按配置创建总线并随应用启停
func ProvideEventBus(p Params) eventiface.EventBus {
	cfg := eventconfig.NewFromOptions(p.Provider.GetEvent())
	bus := New(cfg)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return bus.Start(ctx) },
		OnStop:  func(ctx context.Context) error { return bus.Stop(ctx) },
	})

	if p.Logger != nil {
		p.Logger.Debugf("事件总线 enabled=%v history=%d", cfg.IsEnabled(), cfg.GetHistorySize())
	}
	return bus
}
