package badger

import (
	"path/filepath"
	"time"

	configtypes "github.com/weisyn/dualchain/pkg/types"
)

// BadgerOptions BadgerDB存储配置选项
type BadgerOptions struct {
	// === 基础配置 ===
	Path       string `json:"path"`        // 数据库存储路径
	SyncWrites bool   `json:"sync_writes"` // 是否同步写入
	InMemory   bool   `json:"in_memory"`   // 内存模式（测试/演练用，数据不持久化）

	// === 性能配置 ===
	MemTableSize int64 `json:"mem_table_size"` // 内存表大小

	// === 维护配置 ===
	GCInterval     time.Duration `json:"gc_interval"`      // 值日志GC间隔，0 表示不启动后台GC
	GCDiscardRatio float64       `json:"gc_discard_ratio"` // 值日志GC丢弃比例
}

// Config BadgerDB配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建BadgerDB配置实现
func New(userConfig interface{}) *Config {
	defaultOptions := createDefaultBadgerOptions()

	if userConfig != nil {
		applyUserConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// NewFromOptions 从BadgerOptions创建配置实现
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{
		options: options,
	}
}

func createDefaultBadgerOptions() *BadgerOptions {
	return &BadgerOptions{
		Path:           getDefaultPath(),
		SyncWrites:     defaultSyncWrites,
		InMemory:       defaultInMemory,
		MemTableSize:   defaultMemTableSize,
		GCInterval:     defaultGCInterval,
		GCDiscardRatio: defaultGCDiscardRatio,
	}
}

// applyUserConfig 应用用户配置覆盖默认值
//
// 路径规则：配置了 storage.data_root 时使用 {data_root}/badger/，否则使用默认路径。
func applyUserConfig(options *BadgerOptions, userConfig interface{}) {
	storageConfig, ok := userConfig.(*configtypes.UserStorageConfig)
	if !ok || storageConfig == nil {
		return
	}
	if storageConfig.DataRoot != nil {
		options.Path = resolvePath(filepath.Join(*storageConfig.DataRoot, "badger"))
	}
	if storageConfig.SyncWrites != nil {
		options.SyncWrites = *storageConfig.SyncWrites
	}
	if storageConfig.InMemory != nil {
		options.InMemory = *storageConfig.InMemory
	}
	if storageConfig.MemTableSize != nil && *storageConfig.MemTableSize > 0 {
		options.MemTableSize = *storageConfig.MemTableSize
	}
	if storageConfig.GCInterval != nil {
		if d, err := time.ParseDuration(*storageConfig.GCInterval); err == nil && d >= 0 {
			options.GCInterval = d
		}
	}
}

func resolvePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetOptions 获取完整的BadgerDB配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}

// GetPath 获取数据库路径
func (c *Config) GetPath() string {
	return c.options.Path
}

// IsSyncWritesEnabled 是否启用同步写入
func (c *Config) IsSyncWritesEnabled() bool {
	return c.options.SyncWrites
}

// IsInMemory 是否使用内存模式
func (c *Config) IsInMemory() bool {
	return c.options.InMemory
}

// GetMemTableSize 获取内存表大小
func (c *Config) GetMemTableSize() int64 {
	return c.options.MemTableSize
}

// GetGCInterval 值日志GC间隔
func (c *Config) GetGCInterval() time.Duration {
	return c.options.GCInterval
}

// GetGCDiscardRatio 值日志GC丢弃比例
func (c *Config) GetGCDiscardRatio() float64 {
	if c.options.GCDiscardRatio <= 0 || c.options.GCDiscardRatio >= 1 {
		return defaultGCDiscardRatio
	}
	return c.options.GCDiscardRatio
}
