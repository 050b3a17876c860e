// Package storage 提供存储管理功能
package storage

import (
	"context"

	"github.com/weisyn/dualchain/pkg/interfaces/config"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	"go.uber.org/fx"
)

// ModuleParams 定义存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger `optional:"true"`
}

// ModuleOutput 定义存储模块的输出结构
type ModuleOutput struct {
	fx.Out

	BadgerStore storageInterface.BadgerStore
	MemoryStore storageInterface.MemoryStore `optional:"true"`
}

// Module 返回存储模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideServices),
		fx.Invoke(registerLifecycle),
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	BadgerStore storageInterface.BadgerStore
	MemoryStore storageInterface.MemoryStore `optional:"true"`
	Logger      log.Logger                   `optional:"true"`
}

// registerLifecycle 应用停止时先关闭缓存，再关闭BadgerDB
func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if p.MemoryStore != nil {
				if err := p.MemoryStore.Close(); err != nil && p.Logger != nil {
					p.Logger.Warnf("关闭区块头缓存失败: %v", err)
				}
			}
			if err := p.BadgerStore.Close(); err != nil {
				if p.Logger != nil {
					p.Logger.Errorf("关闭BadgerDB存储失败: %v", err)
				}
				return err
			}
			if p.Logger != nil {
				p.Logger.Info("存储服务已安全关闭")
			}
			return nil
		},
	})
}

// ProvideServices 提供存储服务
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	out, err := CreateStorageServices(ServiceInput{
		Provider: params.Provider,
		Logger:   params.Logger,
	})
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		BadgerStore: out.BadgerStore,
		MemoryStore: out.MemoryStore,
	}, nil
}
