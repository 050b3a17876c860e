package memory

import "time"

const (
	defaultEnabled = true

	// defaultLifeWindow 区块头不可变，缓存条目只因容量被淘汰
	defaultLifeWindow = 24 * time.Hour

	defaultCleanWindow = 10 * time.Minute

	// defaultMaxEntrySize 带哈希的区块头记录最大 160 字节
	defaultMaxEntrySize = 256

	defaultShards = 64

	// defaultMemoryFraction 缓存上限占系统内存的比例
	defaultMemoryFraction = 0.02

	// defaultMaxCacheSizeMB 缓存绝对上限
	defaultMaxCacheSizeMB = 128

	minCacheSizeMB = 8
)
