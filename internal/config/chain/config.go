// Package chain 提供分叉选择引擎的配置
package chain

import (
	"time"

	configtypes "github.com/weisyn/dualchain/pkg/types"
)

// ChainOptions 分叉选择配置选项
type ChainOptions struct {
	// MaxReorgDepth 回溯父链寻找分叉点的最大步数（可见窗口）
	MaxReorgDepth int `json:"max_reorg_depth"`
	// MaxOrphans 孤块池容量
	MaxOrphans int `json:"max_orphans"`
	// OrphanTTL 孤块过期时间
	OrphanTTL time.Duration `json:"orphan_ttl"`
}

// Config 分叉选择配置实现
type Config struct {
	options *ChainOptions
}

// New 创建分叉选择配置；非法值被忽略并保留默认值
func New(userConfig interface{}) *Config {
	options := createDefaultChainOptions()
	if chainConfig, ok := userConfig.(*configtypes.UserChainConfig); ok && chainConfig != nil {
		applyUserChainConfig(options, chainConfig)
	}
	return &Config{options: options}
}

// NewFromOptions 从ChainOptions创建配置实现
func NewFromOptions(options *ChainOptions) *Config {
	return &Config{options: options}
}

func createDefaultChainOptions() *ChainOptions {
	return &ChainOptions{
		MaxReorgDepth: defaultMaxReorgDepth,
		MaxOrphans:    defaultMaxOrphans,
		OrphanTTL:     defaultOrphanTTL,
	}
}

func applyUserChainConfig(options *ChainOptions, c *configtypes.UserChainConfig) {
	if c.MaxReorgDepth != nil && *c.MaxReorgDepth > 0 {
		options.MaxReorgDepth = *c.MaxReorgDepth
	}
	if c.MaxOrphans != nil && *c.MaxOrphans >= 0 {
		options.MaxOrphans = *c.MaxOrphans
	}
	if c.OrphanTTL != nil {
		if d, err := time.ParseDuration(*c.OrphanTTL); err == nil && d > 0 {
			options.OrphanTTL = d
		}
	}
}

// GetOptions 获取完整的配置选项
func (c *Config) GetOptions() *ChainOptions {
	return c.options
}

func (c *Config) GetMaxReorgDepth() int       { return c.options.MaxReorgDepth }
func (c *Config) GetMaxOrphans() int          { return c.options.MaxOrphans }
func (c *Config) GetOrphanTTL() time.Duration { return c.options.OrphanTTL }
