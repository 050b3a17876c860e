// Package testutil 提供存储与分叉选择测试共用的辅助函数
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	badgerconfig "github.com/weisyn/dualchain/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/dualchain/internal/config/storage/memory"
	corelog "github.com/weisyn/dualchain/internal/core/infrastructure/log"
	"github.com/weisyn/dualchain/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/dualchain/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
)

// NewTestLogger 创建输出到 t.Log 的 Logger
func NewTestLogger(t testing.TB) log.Logger {
	return corelog.NewFromZap(zaptest.NewLogger(t))
}

// NewTestBadgerStore 创建内存模式的 BadgerStore，测试结束时关闭
func NewTestBadgerStore(t testing.TB) storage.BadgerStore {
	t.Helper()
	store, err := badger.New(badgerconfig.NewFromOptions(&badgerconfig.BadgerOptions{
		InMemory:     true,
		MemTableSize: 8 << 20,
	}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewTestMemoryStore 创建小容量的区块头缓存
func NewTestMemoryStore(t testing.TB) storage.MemoryStore {
	t.Helper()
	cache, err := memory.New(memoryconfig.NewFromOptions(&memoryconfig.MemoryOptions{
		Enabled:        true,
		LifeWindow:     time.Hour,
		MemoryFraction: 0.01,
		Shards:         16,
		MaxEntrySize:   256,
		MaxCacheSizeMB: 8,
	}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}
