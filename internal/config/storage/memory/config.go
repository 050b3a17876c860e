package memory

import (
	"time"

	configtypes "github.com/weisyn/dualchain/pkg/types"
)

// MemoryOptions 区块头缓存配置选项
type MemoryOptions struct {
	Enabled        bool          `json:"enabled"`
	LifeWindow     time.Duration `json:"life_window"`     // 条目生命周期窗口
	CleanWindow    time.Duration `json:"clean_window"`    // 过期清理间隔
	MaxEntrySize   int           `json:"max_entry_size"`  // 单条目最大字节数
	Shards         int           `json:"shards"`          // 分片数（2 的幂）
	MemoryFraction float64       `json:"memory_fraction"` // 缓存上限占系统内存比例
	MaxCacheSizeMB int           `json:"max_cache_size_mb"`
}

// Config 内存存储配置实现
type Config struct {
	options *MemoryOptions
}

// New 创建内存存储配置实现
func New(userConfig interface{}) *Config {
	options := createDefaultMemoryOptions()
	if cacheConfig, ok := userConfig.(*configtypes.UserCacheConfig); ok && cacheConfig != nil {
		if cacheConfig.Enabled != nil {
			options.Enabled = *cacheConfig.Enabled
		}
		if cacheConfig.LifeWindow != nil {
			if d, err := time.ParseDuration(*cacheConfig.LifeWindow); err == nil && d > 0 {
				options.LifeWindow = d
			}
		}
		if cacheConfig.MaxEntrySize != nil && *cacheConfig.MaxEntrySize > 0 {
			options.MaxEntrySize = *cacheConfig.MaxEntrySize
		}
		if cacheConfig.MemoryFraction != nil && *cacheConfig.MemoryFraction > 0 && *cacheConfig.MemoryFraction < 1 {
			options.MemoryFraction = *cacheConfig.MemoryFraction
		}
	}
	return &Config{options: options}
}

// NewFromOptions 从MemoryOptions创建配置实现
func NewFromOptions(options *MemoryOptions) *Config {
	return &Config{options: options}
}

func createDefaultMemoryOptions() *MemoryOptions {
	return &MemoryOptions{
		Enabled:        defaultEnabled,
		LifeWindow:     defaultLifeWindow,
		CleanWindow:    defaultCleanWindow,
		MaxEntrySize:   defaultMaxEntrySize,
		Shards:         defaultShards,
		MemoryFraction: defaultMemoryFraction,
		MaxCacheSizeMB: defaultMaxCacheSizeMB,
	}
}

// GetOptions 获取完整的内存存储配置选项
func (c *Config) GetOptions() *MemoryOptions {
	return c.options
}

func (c *Config) IsEnabled() bool               { return c.options.Enabled }
func (c *Config) GetLifeWindow() time.Duration  { return c.options.LifeWindow }
func (c *Config) GetCleanWindow() time.Duration { return c.options.CleanWindow }
func (c *Config) GetMaxEntrySize() int          { return c.options.MaxEntrySize }
func (c *Config) GetMemoryFraction() float64    { return c.options.MemoryFraction }

// GetShards 分片数，非 2 的幂时回退到默认值
func (c *Config) GetShards() int {
	n := c.options.Shards
	if n <= 0 || n&(n-1) != 0 {
		return defaultShards
	}
	return n
}

// GetHardMaxCacheSizeMB 缓存硬上限(MB)：按系统内存比例计算，并受配置上限约束。
// totalMemory 为 0（无法探测）时直接使用配置上限。
func (c *Config) GetHardMaxCacheSizeMB(totalMemory uint64) int {
	limit := c.options.MaxCacheSizeMB
	if totalMemory == 0 {
		return limit
	}
	byFraction := int(float64(totalMemory) * c.options.MemoryFraction / (1 << 20))
	if byFraction < minCacheSizeMB {
		byFraction = minCacheSizeMB
	}
	if limit <= 0 || byFraction < limit {
		return byFraction
	}
	return limit
}
