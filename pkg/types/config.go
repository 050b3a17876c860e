package types

// AppConfig 用户配置文件（JSON）的根结构
//
// 所有字段均为指针：只包含配置文件中实际出现的字段，
// 缺省字段由各子系统 defaults.go 中的默认值补齐。
type AppConfig struct {
	AppName *string `json:"app_name,omitempty"`
	DataDir *string `json:"data_dir,omitempty"`

	Log     *UserLogConfig     `json:"log,omitempty"`
	Storage *UserStorageConfig `json:"storage,omitempty"`
	Cache   *UserCacheConfig   `json:"cache,omitempty"`
	Chain   *UserChainConfig   `json:"chain,omitempty"`
	Event   *UserEventConfig   `json:"event,omitempty"`
	Metrics *UserMetricsConfig `json:"metrics,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level      *string `json:"level,omitempty"`     // 日志级别：debug, info, warn, error, fatal
	FilePath   *string `json:"file_path,omitempty"` // 日志文件路径（stdout/stderr 表示仅控制台）
	ToConsole  *bool   `json:"to_console,omitempty"`
	MaxSize    *int    `json:"max_size,omitempty"`
	MaxBackups *int    `json:"max_backups,omitempty"`
	MaxAge     *int    `json:"max_age,omitempty"`
	Compress   *bool   `json:"compress,omitempty"`
	Caller     *bool   `json:"enable_caller,omitempty"`
	Stacktrace *bool   `json:"enable_stacktrace,omitempty"`
}

// UserStorageConfig 用户存储配置
type UserStorageConfig struct {
	DataRoot     *string `json:"data_root,omitempty"` // 数据根目录，badger 位于 {data_root}/badger
	SyncWrites   *bool   `json:"sync_writes,omitempty"`
	MemTableSize *int64  `json:"mem_table_size,omitempty"`
	InMemory     *bool   `json:"in_memory,omitempty"`
	GCInterval   *string `json:"gc_interval,omitempty"` // time.Duration 字符串，如 "30m"
}

// UserCacheConfig 区块头缓存配置
type UserCacheConfig struct {
	Enabled        *bool    `json:"enabled,omitempty"`
	LifeWindow     *string  `json:"life_window,omitempty"`
	MaxEntrySize   *int     `json:"max_entry_size,omitempty"`
	MemoryFraction *float64 `json:"memory_fraction,omitempty"` // 占系统内存比例上限
}

// UserChainConfig 分叉选择配置
type UserChainConfig struct {
	MaxReorgDepth *int    `json:"max_reorg_depth,omitempty"`
	MaxOrphans    *int    `json:"max_orphans,omitempty"`
	OrphanTTL     *string `json:"orphan_ttl,omitempty"`
}

// UserEventConfig 事件总线配置
type UserEventConfig struct {
	Enabled     *bool `json:"enabled,omitempty"`
	HistorySize *int  `json:"history_size,omitempty"`
}

// UserMetricsConfig 指标配置
type UserMetricsConfig struct {
	Enabled   *bool   `json:"enabled,omitempty"`
	Namespace *string `json:"namespace,omitempty"`
}

// StringPtr 返回字符串指针（构造用户配置用）
func StringPtr(s string) *string { return &s }

// BoolPtr 返回布尔指针
func BoolPtr(b bool) *bool { return &b }

// IntPtr 返回整数指针
func IntPtr(i int) *int { return &i }
