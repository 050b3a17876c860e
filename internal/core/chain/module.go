// Package chain 提供分叉选择模块的 fx 配置
//
// 📦 **导出服务**：
//   - chain.ForkChoice：分叉选择接口
//   - *fork.Service：具体实现（CLI 需要孤块池、只读状态等诊断方法）
package chain

import (
	"fmt"

	"go.uber.org/fx"

	chainconfig "github.com/weisyn/dualchain/internal/config/chain"
	"github.com/weisyn/dualchain/internal/core/chain/fork"
	chainif "github.com/weisyn/dualchain/pkg/interfaces/chain"
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
	"github.com/weisyn/dualchain/pkg/interfaces/persistence"
)

// ModuleInput chain 模块依赖
type ModuleInput struct {
	fx.In

	// ========== 基础设施组件 ==========
	Logger         log.Logger            `optional:"true"`
	ConfigProvider config.Provider       `optional:"false"`
	WriteGate      writegate.WriteGate   `optional:"false"`
	EventBus       event.EventBus        `optional:"true"`
	Metrics        metricsiface.Registry `optional:"true"`

	// ========== 数据层依赖 ==========
	Backend persistence.Backend `optional:"false"`
}

// ModuleOutput chain 模块输出
type ModuleOutput struct {
	fx.Out

	ForkChoice  chainif.ForkChoice
	ForkService *fork.Service
}

// Module 返回 chain 模块
func Module() fx.Option {
	return fx.Module("chain",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建分叉选择服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	var chainLogger log.Logger
	if input.Logger != nil {
		chainLogger = input.Logger.With("module", "chain")
	}

	service, err := fork.NewService(
		input.Backend,
		chainconfig.NewFromOptions(input.ConfigProvider.GetChain()),
		input.WriteGate,
		input.EventBus,
		input.Metrics,
		chainLogger,
	)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建 ForkChoice 失败: %w", err)
	}

	return ModuleOutput{
		ForkChoice:  service,
		ForkService: service,
	}, nil
}
