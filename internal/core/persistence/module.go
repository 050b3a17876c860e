package persistence

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	persistenceif "github.com/weisyn/dualchain/pkg/interfaces/persistence"
)

// ModuleInput persistence 模块依赖
type ModuleInput struct {
	fx.In

	Logger      log.Logger          `optional:"true"`
	BadgerStore storage.BadgerStore `optional:"false"`
	MemoryStore storage.MemoryStore `optional:"true"` // 区块头缓存
}

// ModuleOutput persistence 模块输出
type ModuleOutput struct {
	fx.Out

	Backend       persistenceif.Backend
	ChangeLog     persistenceif.ChangeLog
	BadgerBackend *Backend
}

// Module 返回 persistence 模块
func Module() fx.Option {
	return fx.Module("persistence",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建后端，并在启动时重放上次崩溃遗留的 pending 批次
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	var persistenceLogger log.Logger
	if input.Logger != nil {
		persistenceLogger = input.Logger.With("module", "persistence")
	}

	backend, err := New(input.BadgerStore, input.MemoryStore, persistenceLogger)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建存储后端失败: %w", err)
	}

	replayed, err := backend.Recover(context.Background())
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("启动时重放变更日志失败: %w", err)
	}
	if replayed > 0 && persistenceLogger != nil {
		persistenceLogger.Warnf("🩹 启动时补齐了 %d 条未应用的变更记录", replayed)
	}

	return ModuleOutput{
		Backend:       backend,
		ChangeLog:     backend.ChangeLog(),
		BadgerBackend: backend,
	}, nil
}
