package changelog

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/dualchain/internal/config/storage/badger"
	"github.com/weisyn/dualchain/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/dualchain/pkg/types"
)

func newTestLog(t *testing.T) (*Log, *badger.Store) {
	t.Helper()
	store, err := badger.New(badgerconfig.NewFromOptions(&badgerconfig.BadgerOptions{
		InMemory:     true,
		MemTableSize: 8 << 20,
	}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	l, err := New(store, nil)
	require.NoError(t, err)
	return l, store
}

func record(t *testing.T, op types.Operation, oldByte, newByte byte) types.ChangeRecord {
	t.Helper()
	rec, err := types.NewReadOnlyChange(types.PrimaryMagic, op,
		bytes.Repeat([]byte{oldByte}, 4), bytes.Repeat([]byte{newByte}, 4))
	require.NoError(t, err)
	return rec
}

func TestAppendAndGet(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	first, err := l.Append(ctx, []types.ChangeRecord{
		record(t, types.OpAddBlock, 0, 1),
		record(t, types.OpSetHead, 0, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), first)

	first, err = l.Append(ctx, []types.ChangeRecord{record(t, types.OpAddBlock, 0, 2)})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), first)

	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	rec, err := l.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.OpSetHead, rec.Operation())
	assert.Equal(t, types.PrimaryMagic, rec.ChainIdentifier())

	_, err = l.Get(ctx, 9)
	assert.Error(t, err)
}

func TestAppendRejectsInvalidRecordAtomically(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, []types.ChangeRecord{record(t, types.OpAddBlock, 0, 1), nil})
	require.Error(t, err)

	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRangeAndReadBackward(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	for i := byte(1); i <= 5; i++ {
		_, err := l.Append(ctx, []types.ChangeRecord{record(t, types.OpAddBlock, 0, i)})
		require.NoError(t, err)
	}

	var forward []uint64
	require.NoError(t, l.Range(ctx, 1, 100, func(idx uint64, rec *types.ReadOnlyChange) error {
		forward = append(forward, idx)
		assert.Equal(t, byte(idx+1), rec.NewValue()[0])
		return nil
	}))
	assert.Equal(t, []uint64{1, 2, 3, 4}, forward)

	var backward []uint64
	require.NoError(t, l.ReadBackward(ctx, 100, func(idx uint64, _ *types.ReadOnlyChange) (bool, error) {
		backward = append(backward, idx)
		return idx > 2, nil
	}))
	assert.Equal(t, []uint64{4, 3, 2}, backward)
}

func TestPendingAndTruncate(t *testing.T) {
	l, store := newTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, []types.ChangeRecord{record(t, types.OpAddBlock, 0, 1)})
	require.NoError(t, err)
	require.NoError(t, store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		return l.MarkAppliedTx(tx, 1)
	}))

	_, err = l.Append(ctx, []types.ChangeRecord{
		record(t, types.OpAddBlock, 0, 2),
		record(t, types.OpSetHead, 1, 2),
	})
	require.NoError(t, err)

	from, to, err := l.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), from)
	assert.Equal(t, uint64(3), to)

	dropped, err := l.TruncatePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	n, err := l.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	from, to, err = l.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, from, to)

	// 已应用的记录不受影响
	rec, err := l.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), rec.NewValue()[0])
}

func TestCheckpoints(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, []types.ChangeRecord{record(t, types.OpAddBlock, 0, 1)})
	require.NoError(t, err)

	require.NoError(t, l.SetCheckpoint(ctx, "before-upgrade", 1))
	require.NoError(t, l.SetCheckpoint(ctx, "genesis", 0))
	assert.Error(t, l.SetCheckpoint(ctx, "future", 5))
	assert.Error(t, l.SetCheckpoint(ctx, "a/b", 0))

	idx, err := l.Checkpoint(ctx, "before-upgrade")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	all, err := l.Checkpoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"before-upgrade": 1, "genesis": 0}, all)

	require.NoError(t, l.DeleteCheckpoint(ctx, "genesis"))
	_, err = l.Checkpoint(ctx, "genesis")
	assert.ErrorIs(t, err, types.ErrCheckpointNotFound)
}

func TestCorruptedEntrySurfacesAsMalformed(t *testing.T) {
	l, store := newTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, []types.ChangeRecord{record(t, types.OpAddBlock, 0, 1)})
	require.NoError(t, err)

	// 操作码 3 不在注册表中
	require.NoError(t, store.Set(ctx, seqKey(0), []byte{'P', 'R', 'I', 'M', 0, 3, 0, 0}))

	_, err = l.Get(ctx, 0)
	assert.ErrorIs(t, err, types.ErrUnknownOperation)
	assert.ErrorIs(t, err, types.ErrMalformedRecord)
}
