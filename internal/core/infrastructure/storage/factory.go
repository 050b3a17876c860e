// Package storage 提供存储服务工厂实现
package storage

import (
	"fmt"

	badgerconfig "github.com/weisyn/dualchain/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/dualchain/internal/config/storage/memory"
	"github.com/weisyn/dualchain/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/dualchain/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
)

// ServiceInput 定义存储服务工厂的输入参数
type ServiceInput struct {
	Provider config.Provider
	Logger   log.Logger
}

// ServiceOutput 定义存储服务工厂的输出结果
type ServiceOutput struct {
	BadgerStore storageInterface.BadgerStore
	MemoryStore storageInterface.MemoryStore // 缓存关闭或创建失败时为 nil
}

// CreateStorageServices 创建存储服务
//
// BadgerDB 是必需的，失败即返回错误；区块头缓存失败只记录警告。
func CreateStorageServices(input ServiceInput) (ServiceOutput, error) {
	var storageLogger log.Logger
	if input.Logger != nil {
		storageLogger = input.Logger.With("module", "storage")
	}

	badgerOptions := input.Provider.GetBadger()
	badgerStore, err := badger.New(badgerconfig.NewFromOptions(badgerOptions), storageLogger)
	if err != nil {
		return ServiceOutput{}, fmt.Errorf("存储初始化失败：%w", err)
	}
	if storageLogger != nil {
		if badgerOptions.InMemory {
			storageLogger.Info("✅ BadgerDB存储初始化成功（内存模式）")
		} else {
			storageLogger.Infof("✅ BadgerDB存储初始化成功，数据存储路径: %s", badgerOptions.Path)
		}
	}

	output := ServiceOutput{BadgerStore: badgerStore}

	memoryCfg := memoryconfig.NewFromOptions(input.Provider.GetMemory())
	if !memoryCfg.IsEnabled() {
		return output, nil
	}
	memoryStore, err := memory.New(memoryCfg, storageLogger)
	if err != nil {
		if storageLogger != nil {
			storageLogger.Warnf("区块头缓存初始化失败，读取将直接访问BadgerDB: %v", err)
		}
		return output, nil
	}
	output.MemoryStore = memoryStore
	return output, nil
}
