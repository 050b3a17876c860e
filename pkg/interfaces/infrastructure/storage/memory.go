package storage

import (
	"context"
)

// MemoryStore 进程内缓存
//
// 条目可能因容量或生命周期窗口被随时淘汰，调用方必须能够回落到持久化存储。
type MemoryStore interface {
	// Get 获取缓存值；未命中返回 exists=false
	Get(ctx context.Context, key string) (value []byte, exists bool, err error)

	Set(ctx context.Context, key string, value []byte) error

	Delete(ctx context.Context, key string) error

	// Clear 清空全部条目
	Clear(ctx context.Context) error

	// Count 当前条目数
	Count(ctx context.Context) (int64, error)

	// Stats 命中统计
	Stats() CacheStats

	Close() error
}

// CacheStats 缓存命中统计
type CacheStats struct {
	Hits       int64
	Misses     int64
	DelHits    int64
	DelMisses  int64
	Collisions int64
}
