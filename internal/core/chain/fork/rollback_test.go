package fork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/dualchain/internal/core/chain/testutil"
	"github.com/weisyn/dualchain/internal/core/codec"
	"github.com/weisyn/dualchain/pkg/types"
)

func headBytes(t *testing.T, h *harness, magic types.ChainMagic) []byte {
	t.Helper()
	head, err := h.backend.Head(context.Background(), magic)
	require.NoError(t, err)
	require.NotNil(t, head)
	buf, err := codec.EncodeHeaderWithHash(magic, head)
	require.NoError(t, err)
	return buf
}

func TestRollbackThenReapplyRestoresHead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	chain := testutil.PrimaryBranch(nil, 3, 0, 1)
	proposeAll(t, h, chain)
	original := headBytes(t, h, types.PrimaryMagic)

	// 撤销 chain[1] 与 chain[2]：序号 2..5
	rolled, err := h.svc.RollbackTo(ctx, types.PrimaryMagic, 2)
	require.NoError(t, err)
	require.Len(t, rolled.Records, 4)
	assert.Equal(t, uint64(6), rolled.FirstIndex)
	assert.Equal(t, uint64(2), rolled.Target)

	// 反向记录按原顺序倒序排列
	assert.Equal(t, types.OpSetHead, rolled.Records[0].Operation())
	assert.Equal(t, encoded(t, chain[2]), rolled.Records[0].OldValue())
	assert.Equal(t, encoded(t, chain[1]), rolled.Records[0].NewValue())

	assert.True(t, types.HeadersEqual(chain[0], h.svc.Head(types.PrimaryMagic)))
	for _, hdr := range chain[1:] {
		active, err := h.backend.IsActive(ctx, types.PrimaryMagic, hdr.Hash)
		require.NoError(t, err)
		assert.False(t, active)
	}
	// 历史不删除
	assert.Equal(t, uint64(10), h.logLen(t))

	// 回滚"回滚批次"恢复原状态
	again, err := h.svc.RollbackTo(ctx, types.PrimaryMagic, rolled.FirstIndex)
	require.NoError(t, err)
	assert.Len(t, again.Records, 4)
	assert.Equal(t, original, headBytes(t, h, types.PrimaryMagic))
	assert.True(t, types.HeadersEqual(chain[2], h.svc.Head(types.PrimaryMagic)))

	events := h.bus.GetEventHistory(EventTypeRollback)
	assert.Len(t, events, 2)
}

func TestRollbackOnlyTouchesOneChain(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ref := testutil.ReferenceBranch(nil, 2, 0, 1)
	prim := testutil.PrimaryBranch(nil, 2, 0, 1)
	// 两条链的记录在日志中交错
	h.propose(t, ref[0])
	h.propose(t, prim[0])
	h.propose(t, ref[1])
	h.propose(t, prim[1])

	result, err := h.svc.RollbackCount(ctx, types.PrimaryMagic, 2)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	for _, rec := range result.Records {
		assert.Equal(t, types.PrimaryMagic, rec.ChainIdentifier())
	}
	assert.True(t, types.HeadersEqual(prim[0], h.svc.Head(types.PrimaryMagic)))
	assert.True(t, types.HeadersEqual(ref[1], h.svc.Head(types.ReferenceMagic)))
}

func TestRollbackWholeChainEmptiesHead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	proposeAll(t, h, testutil.ReferenceBranch(nil, 2, 0, 1))

	result, err := h.svc.RollbackTo(ctx, types.ReferenceMagic, 0)
	require.NoError(t, err)
	assert.Len(t, result.Records, 4)
	assert.Nil(t, h.svc.Head(types.ReferenceMagic))

	head, err := h.backend.Head(ctx, types.ReferenceMagic)
	require.NoError(t, err)
	assert.Nil(t, head)
}

func TestRollbackNothingToUndo(t *testing.T) {
	h := newHarness(t)
	proposeAll(t, h, testutil.ReferenceBranch(nil, 1, 0, 1))

	result, err := h.svc.RollbackTo(context.Background(), types.PrimaryMagic, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, uint64(2), h.logLen(t))
}

func TestRollbackCountRejectsNonPositive(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RollbackCount(context.Background(), types.PrimaryMagic, 0)
	assert.Error(t, err)
}

func TestRollbackToCheckpoint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	chain := testutil.PrimaryBranch(nil, 4, 0, 1)
	proposeAll(t, h, chain[:2])
	require.NoError(t, h.backend.ChangeLog().SetCheckpoint(ctx, "before-upgrade", h.logLen(t)))
	proposeAll(t, h, chain[2:])

	result, err := h.svc.RollbackToCheckpoint(ctx, types.PrimaryMagic, "before-upgrade")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), result.Target)
	assert.Len(t, result.Records, 4)
	assert.True(t, types.HeadersEqual(chain[1], h.svc.Head(types.PrimaryMagic)))

	_, err = h.svc.RollbackToCheckpoint(ctx, types.PrimaryMagic, "missing")
	assert.ErrorIs(t, err, types.ErrCheckpointNotFound)
}
