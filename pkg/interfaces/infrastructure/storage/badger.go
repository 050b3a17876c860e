// Package storage 定义双链存储使用的键值存储接口。
//
// 💾 两类存储：
//   - BadgerStore：持久化键值存储（区块头池、活跃集合、链头、变更日志）
//   - MemoryStore：进程内缓存（区块头缓存，未命中时回落到 BadgerStore）
package storage

import (
	"context"
)

//=============================================================================
// BadgerStore 接口定义
//=============================================================================

// BadgerStore 持久化键值存储
type BadgerStore interface {
	// Close 关闭数据库，阻断后续写入并等待进行中的写事务结束
	Close() error

	// Get 获取键的值；键不存在时返回 nil, nil
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 设置键值对（覆盖写）
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除键；键不存在不报错
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixScan 按前缀扫描，返回 map 的键为键的字符串表示
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)

	// PrefixCount 统计前缀下的键数量（只遍历键）
	PrefixCount(ctx context.Context, prefix []byte) (int, error)

	// RunInTransaction 在读写事务中执行 fn；fn 返回错误时回滚，否则提交
	RunInTransaction(ctx context.Context, fn func(tx BadgerTransaction) error) error

	// View 在只读事务中执行 fn，提供一致性快照
	View(ctx context.Context, fn func(tx BadgerTransaction) error) error

	// RunValueLogGC 执行一次值日志垃圾回收
	RunValueLogGC(ctx context.Context, discardRatio float64) error
}

//=============================================================================
// BadgerTransaction 接口定义
//=============================================================================

// BadgerTransaction 事务内操作；所有操作要么全部生效，要么全部不生效
type BadgerTransaction interface {
	// Get 键不存在时返回 nil, nil
	Get(key []byte) ([]byte, error)

	Set(key, value []byte) error

	Delete(key []byte) error

	Exists(key []byte) (bool, error)
}
