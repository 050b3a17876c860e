package badger

import "time"

// getDefaultPath 默认数据库路径
func getDefaultPath() string {
	return resolvePath("./data/badger")
}

const (
	// defaultSyncWrites 默认启用同步写入
	// 变更日志追加必须在返回前落盘，否则崩溃后日志与链头可能不一致
	defaultSyncWrites = true

	defaultInMemory = false

	// defaultMemTableSize 默认内存表大小为64MB
	defaultMemTableSize = 64 << 20

	// defaultGCInterval 值日志GC间隔
	defaultGCInterval = 30 * time.Minute

	// defaultGCDiscardRatio badger 推荐值
	defaultGCDiscardRatio = 0.5
)
