package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weisyn/dualchain/internal/config/chain"
	"github.com/weisyn/dualchain/internal/config/event"
	"github.com/weisyn/dualchain/internal/config/log"
	"github.com/weisyn/dualchain/internal/config/metrics"
	"github.com/weisyn/dualchain/internal/config/storage/badger"
	"github.com/weisyn/dualchain/internal/config/storage/memory"
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	"github.com/weisyn/dualchain/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

var _ config.Provider = (*Provider)(nil)

// NewProvider 创建配置提供者；appConfig 为 nil 时全部使用默认值
func NewProvider(appConfig *types.AppConfig) config.Provider {
	return &Provider{
		appConfig: appConfig,
	}
}

// LoadAppConfig 读取并解析 JSON 配置文件
func LoadAppConfig(path string) (*types.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	appConfig, err := ParseAppConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return appConfig, nil
}

// ParseAppConfig 解析 JSON 配置内容
func ParseAppConfig(data []byte) (*types.AppConfig, error) {
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &appConfig, nil
}

// GetAppConfig 原始用户配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

// GetLog 获取日志配置；file_path 为空串时落在 {data_dir}/logs
func (p *Provider) GetLog() *log.LogOptions {
	var userLogConfig *types.UserLogConfig
	dataDir := ""
	if p.appConfig != nil {
		userLogConfig = p.appConfig.Log
		if p.appConfig.DataDir != nil {
			dataDir = *p.appConfig.DataDir
		}
	}
	return log.New(userLogConfig, dataDir).GetOptions()
}

// GetBadger 获取BadgerDB存储配置
//
// storage.data_root 缺省时回退到顶层 data_dir。
func (p *Provider) GetBadger() *badger.BadgerOptions {
	var userStorageConfig *types.UserStorageConfig
	if p.appConfig != nil {
		if p.appConfig.Storage != nil {
			copied := *p.appConfig.Storage
			userStorageConfig = &copied
		}
		if p.appConfig.DataDir != nil && (userStorageConfig == nil || userStorageConfig.DataRoot == nil) {
			if userStorageConfig == nil {
				userStorageConfig = &types.UserStorageConfig{}
			}
			userStorageConfig.DataRoot = p.appConfig.DataDir
		}
	}
	return badger.New(userStorageConfig).GetOptions()
}

// GetMemory 获取区块头缓存配置
func (p *Provider) GetMemory() *memory.MemoryOptions {
	var userCacheConfig *types.UserCacheConfig
	if p.appConfig != nil && p.appConfig.Cache != nil {
		userCacheConfig = p.appConfig.Cache
	}
	return memory.New(userCacheConfig).GetOptions()
}

// GetChain 获取分叉选择配置
func (p *Provider) GetChain() *chain.ChainOptions {
	var userChainConfig *types.UserChainConfig
	if p.appConfig != nil && p.appConfig.Chain != nil {
		userChainConfig = p.appConfig.Chain
	}
	return chain.New(userChainConfig).GetOptions()
}

// GetEvent 获取事件配置
func (p *Provider) GetEvent() *event.EventOptions {
	var userEventConfig *types.UserEventConfig
	if p.appConfig != nil && p.appConfig.Event != nil {
		userEventConfig = p.appConfig.Event
	}
	return event.New(userEventConfig).GetOptions()
}

// GetMetrics 获取指标配置
func (p *Provider) GetMetrics() *metrics.MetricsOptions {
	var userMetricsConfig *types.UserMetricsConfig
	if p.appConfig != nil && p.appConfig.Metrics != nil {
		userMetricsConfig = p.appConfig.Metrics
	}
	return metrics.New(userMetricsConfig).GetOptions()
}
