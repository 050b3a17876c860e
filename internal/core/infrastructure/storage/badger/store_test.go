package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	badgerconfig "github.com/weisyn/dualchain/internal/config/storage/badger"
	interfaces "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
)

// 初始化测试环境
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	options := &badgerconfig.BadgerOptions{
		Path:           t.TempDir(),
		SyncWrites:     false,
		MemTableSize:   8 << 20,
		GCInterval:     0,
		GCDiscardRatio: 0.5,
	}
	store, err := New(badgerconfig.NewFromOptions(options), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreBasicOperations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	key := []byte("hdr/BTCR/00")
	value := []byte("header-bytes")

	require.NoError(t, store.Set(ctx, key, value))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, key))

	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "缺失的键返回 nil, nil")

	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPrefixScanAndCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Set(ctx, []byte(fmt.Sprintf("active/PRIM/%02d", i)), []byte{byte(i)}))
	}
	require.NoError(t, store.Set(ctx, []byte("active/BTCR/00"), []byte{9}))

	entries, err := store.PrefixScan(ctx, []byte("active/PRIM/"))
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, []byte{3}, entries["active/PRIM/03"])

	count, err := store.PrefixCount(ctx, []byte("active/"))
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx interfaces.BadgerTransaction) error {
		if err := tx.Set([]byte("a"), []byte("1")); err != nil {
			return err
		}
		return fmt.Errorf("中途失败")
	})
	require.Error(t, err)

	got, err := store.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.RunInTransaction(ctx, func(tx interfaces.BadgerTransaction) error {
		if err := tx.Set([]byte("a"), []byte("1")); err != nil {
			return err
		}
		return tx.Set([]byte("b"), []byte("2"))
	}))

	require.NoError(t, store.View(ctx, func(tx interfaces.BadgerTransaction) error {
		a, err := tx.Get([]byte("a"))
		require.NoError(t, err)
		b, err := tx.Get([]byte("b"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), a)
		assert.Equal(t, []byte("2"), b)
		return nil
	}))
}

func TestViewRejectsWrites(t *testing.T) {
	store := setupTestStore(t)
	err := store.View(context.Background(), func(tx interfaces.BadgerTransaction) error {
		return tx.Set([]byte("k"), []byte("v"))
	})
	assert.ErrorIs(t, err, ErrTxReadOnly)
}

func TestInMemoryStore(t *testing.T) {
	options := &badgerconfig.BadgerOptions{InMemory: true, GCDiscardRatio: 0.5}
	store, err := New(badgerconfig.NewFromOptions(options), nil)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, []byte("k"), []byte("v")))
	got, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// 内存模式下 GC 直接返回
	assert.NoError(t, store.RunValueLogGC(ctx, 0.5))
}

func TestCloseBlocksWrites(t *testing.T) {
	options := &badgerconfig.BadgerOptions{Path: t.TempDir(), GCDiscardRatio: 0.5}
	store, err := New(badgerconfig.NewFromOptions(options), nil)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "重复关闭无副作用")
	assert.ErrorIs(t, store.Set(context.Background(), []byte("k"), []byte("v")), ErrStoreClosing)
}

func TestMaintenanceRoutineStopsOnCancel(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	store.StartMaintenanceRoutines(ctx, 10*time.Millisecond, 0.5)
	time.Sleep(30 * time.Millisecond)
	cancel()

	assert.NoError(t, store.RunValueLogGC(context.Background(), 0.5))
}
