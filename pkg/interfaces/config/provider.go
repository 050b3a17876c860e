// Package config 定义配置提供者接口。
//
// 每个子系统的配置由"用户配置 + defaults.go 默认值"合成，
// 组件只依赖 Provider 返回的 *XxxOptions。
package config

import (
	chainconfig "github.com/weisyn/dualchain/internal/config/chain"
	eventconfig "github.com/weisyn/dualchain/internal/config/event"
	logconfig "github.com/weisyn/dualchain/internal/config/log"
	metricsconfig "github.com/weisyn/dualchain/internal/config/metrics"
	badgerconfig "github.com/weisyn/dualchain/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/dualchain/internal/config/storage/memory"
	"github.com/weisyn/dualchain/pkg/types"
)

// Provider 配置提供者
type Provider interface {
	GetLog() *logconfig.LogOptions

	GetBadger() *badgerconfig.BadgerOptions

	GetMemory() *memoryconfig.MemoryOptions

	GetChain() *chainconfig.ChainOptions

	GetEvent() *eventconfig.EventOptions

	GetMetrics() *metricsconfig.MetricsOptions

	// GetAppConfig 原始用户配置（可能为 nil）
	GetAppConfig() *types.AppConfig
}

// AppOptions 启动参数合成后的用户配置，供 config 模块构造 Provider
type AppOptions interface {
	GetAppConfig() *types.AppConfig
}
