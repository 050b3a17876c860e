package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	config "github.com/weisyn/dualchain/internal/config"
	"github.com/weisyn/dualchain/internal/core/chain"
	"github.com/weisyn/dualchain/internal/core/chain/fork"
	"github.com/weisyn/dualchain/internal/core/infrastructure/event"
	corelog "github.com/weisyn/dualchain/internal/core/infrastructure/log"
	"github.com/weisyn/dualchain/internal/core/infrastructure/metrics"
	"github.com/weisyn/dualchain/internal/core/infrastructure/storage"
	"github.com/weisyn/dualchain/internal/core/infrastructure/writegate"
	"github.com/weisyn/dualchain/internal/core/persistence"
	cfgif "github.com/weisyn/dualchain/pkg/interfaces/config"
	eventiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
)

// handles 启动后从容器中取出的服务
type handles struct {
	fx.In

	ForkService *fork.Service
	Backend     *persistence.Backend
	Metrics     metricsiface.Registry
	Logger      log.Logger
}

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts    *options
	fxApp   *fx.App
	handles *handles
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts, handles: &handles{}}
}

// SetupInfrastructureLayer 基础设施层：配置、日志、指标、写门闸、事件
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() cfgif.AppOptions { return b.opts }),
		config.Module(),
		corelog.Module(),
		metrics.Module(),
		writegate.Module(),
		event.Module(),
	}
}

// SetupDataLayer 数据层：键值存储与变更日志后端
func (b *Bootstrap) SetupDataLayer() []fx.Option {
	return []fx.Option{
		storage.Module(),
		persistence.Module(),
	}
}

// SetupBusinessLayer 业务层：分叉选择
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		chain.Module(),
	}
}

// SetupModules 按依赖顺序组合各层模块
func (b *Bootstrap) SetupModules() []fx.Option {
	var all []fx.Option
	all = append(all, b.SetupInfrastructureLayer()...)
	all = append(all, b.SetupDataLayer()...)
	all = append(all, b.SetupBusinessLayer()...)
	return all
}

// CreateFxApp 创建 fx 应用
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(
		fx.Options(b.SetupModules()...),
		fx.NopLogger,
		fx.Populate(b.handles),
		fx.Invoke(func(lifecycle fx.Lifecycle, logger log.Logger, bus eventiface.EventBus) {
			lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					logger.Info("🚀 双链存储已启动")
					bus.Publish(event.SystemStarted, ctx)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					logger.Info("双链存储正在停止")
					bus.Publish(event.SystemStopped, ctx)
					return nil
				},
			})
		}),
	)
	return b.fxApp.Err()
}

// StartApp 启动应用程序
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用程序
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}
