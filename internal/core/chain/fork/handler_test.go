package fork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainconfig "github.com/weisyn/dualchain/internal/config/chain"
	"github.com/weisyn/dualchain/internal/core/chain/testutil"
	"github.com/weisyn/dualchain/internal/core/infrastructure/metrics"
	"github.com/weisyn/dualchain/pkg/types"
)

func TestGenesisAccepted(t *testing.T) {
	h := newHarness(t)
	genesis := testutil.ReferenceChild(nil, 0, 1)

	result := h.propose(t, genesis)
	require.True(t, result.Accepted())
	require.Len(t, result.Records, 2)
	assert.Equal(t, types.OpAddBlock, result.Records[0].Operation())
	assert.True(t, types.IsAbsent(result.Records[0].OldValue()))
	assert.Equal(t, types.OpSetHead, result.Records[1].Operation())
	assert.Zero(t, result.ReorgDepth)
	assert.Empty(t, result.SessionID)

	assert.True(t, types.HeadersEqual(genesis, h.svc.Head(types.ReferenceMagic)))
	assert.Nil(t, h.svc.Head(types.PrimaryMagic))
}

func TestExtendChain(t *testing.T) {
	h := newHarness(t)
	chain := testutil.PrimaryBranch(nil, 4, 0, 3)

	for i, header := range chain {
		result := h.propose(t, header)
		require.True(t, result.Accepted())
		assert.Equal(t, uint64(2*i), result.FirstIndex)
		assert.Len(t, result.Records, 2)
	}
	assert.True(t, types.HeadersEqual(chain[3], h.svc.Head(types.PrimaryMagic)))
	assert.Equal(t, uint64(8), h.logLen(t))
}

// 五个区块的活跃链，两个候选链尖（累积工作量 10 与 15）在两个区块之前分叉
func TestReorgRecordOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	main := testutil.PrimaryBranch(nil, 5, 0, 2) // 累积工作量 2,4,6,8,10
	proposeAll(t, h, main)
	forkPoint := main[2]

	tip1 := testutil.PrimaryChild(forkPoint, nil, 100, 4) // 10
	tip2 := testutil.PrimaryChild(tip1, nil, 101, 5)      // 15

	before := h.logLen(t)
	side := h.propose(t, tip1)
	assert.True(t, side.Is(types.ErrEqualWork))
	assert.Equal(t, before, h.logLen(t))

	result := h.propose(t, tip2)
	require.True(t, result.Accepted())
	assert.Equal(t, 2, result.ReorgDepth)
	assert.NotEmpty(t, result.SessionID)
	require.Len(t, result.Records, 5)

	absent := types.AbsentSnapshot(types.PrimaryHeaderSize)
	want := []struct {
		op       types.Operation
		old, new []byte
	}{
		{types.OpAddBlock, encoded(t, main[4]), absent},
		{types.OpAddBlock, encoded(t, main[3]), absent},
		{types.OpAddBlock, absent, encoded(t, tip1)},
		{types.OpAddBlock, absent, encoded(t, tip2)},
		{types.OpSetHead, encoded(t, main[4]), encoded(t, tip2)},
	}
	for i, w := range want {
		rec := result.Records[i]
		assert.Equal(t, types.PrimaryMagic, rec.ChainIdentifier(), "record %d", i)
		assert.Equal(t, w.op, rec.Operation(), "record %d", i)
		assert.Equal(t, w.old, rec.OldValue(), "record %d", i)
		assert.Equal(t, w.new, rec.NewValue(), "record %d", i)
	}

	// 日志中的记录与返回值一致
	assert.Equal(t, before+5, h.logLen(t))
	for i := range want {
		stored, err := h.backend.ChangeLog().Get(ctx, result.FirstIndex+uint64(i))
		require.NoError(t, err)
		assert.True(t, types.ChangesEqual(result.Records[i], stored))
		assert.Equal(t, result.Records[i].Operation(), stored.Operation())
	}

	for _, hdr := range main[3:] {
		active, err := h.backend.IsActive(ctx, types.PrimaryMagic, hdr.Hash)
		require.NoError(t, err)
		assert.False(t, active)
	}
	for _, hdr := range []*types.PrimaryHeader{forkPoint, tip1, tip2} {
		active, err := h.backend.IsActive(ctx, types.PrimaryMagic, hdr.Hash)
		require.NoError(t, err)
		assert.True(t, active)
	}
	assert.True(t, types.HeadersEqual(tip2, h.svc.Head(types.PrimaryMagic)))

	reorgs := h.bus.GetEventHistory(EventTypeReorg)
	require.Len(t, reorgs, 1)
	event := reorgs[0][1].(ReorgEvent)
	assert.Equal(t, result.SessionID, event.SessionID)
	assert.Equal(t, forkPoint.Hash, event.ForkPoint)
}

func TestEqualWorkNeverReorgs(t *testing.T) {
	h := newHarness(t)
	genesis := testutil.ReferenceChild(nil, 0, 1)
	a := testutil.ReferenceChild(genesis, 1, 5)
	b := testutil.ReferenceChild(genesis, 2, 5)

	proposeAll(t, h, []*types.ReferenceHeader{genesis, a})
	before := h.logLen(t)

	result := h.propose(t, b)
	assert.Equal(t, types.OutcomeRejected, result.Outcome)
	assert.ErrorIs(t, result.Reason, types.ErrEqualWork)
	assert.Empty(t, result.Records)
	assert.Equal(t, before, h.logLen(t))
	assert.True(t, types.HeadersEqual(a, h.svc.Head(types.ReferenceMagic)))

	// 再次提交当前链头同样不会产生记录
	again := h.propose(t, a)
	assert.True(t, again.Is(types.ErrEqualWork))
	assert.Equal(t, before, h.logLen(t))
}

func TestLowerWorkRejected(t *testing.T) {
	h := newHarness(t)
	chain := testutil.PrimaryBranch(nil, 3, 0, 10)
	proposeAll(t, h, chain)

	weak := testutil.PrimaryChild(chain[0], nil, 50, 1)
	result := h.propose(t, weak)
	assert.True(t, result.Is(types.ErrLowerWork))
	assert.True(t, types.HeadersEqual(chain[2], h.svc.Head(types.PrimaryMagic)))
}

// 侧链子区块先于父区块到达：父区块因工作量不足被拒，但已入池，子区块随之胜出
func TestLowerWorkParentConnectsWaitingOrphan(t *testing.T) {
	h := newHarness(t)
	main := testutil.PrimaryBranch(nil, 5, 0, 2) // 累积工作量 2,4,6,8,10
	proposeAll(t, h, main)

	s1 := testutil.PrimaryChild(main[2], nil, 200, 1) // 7
	s2 := testutil.PrimaryChild(s1, nil, 201, 20)     // 27

	orphan := h.propose(t, s2)
	require.Equal(t, types.OutcomeOrphan, orphan.Outcome)
	assert.Equal(t, 1, h.svc.OrphanCount(types.PrimaryMagic))

	parent := h.propose(t, s1)
	assert.True(t, parent.Is(types.ErrLowerWork))
	assert.Equal(t, 1, parent.Connected)
	assert.Zero(t, h.svc.OrphanCount(types.PrimaryMagic))
	assert.True(t, types.HeadersEqual(s2, h.svc.Head(types.PrimaryMagic)))

	ctx := context.Background()
	for _, header := range []*types.PrimaryHeader{s1, s2} {
		active, err := h.backend.IsActive(ctx, types.PrimaryMagic, header.Hash)
		require.NoError(t, err)
		assert.True(t, active)
	}
	for _, header := range main[3:] {
		active, err := h.backend.IsActive(ctx, types.PrimaryMagic, header.Hash)
		require.NoError(t, err)
		assert.False(t, active)
	}
}

func TestEqualWorkParentConnectsWaitingOrphan(t *testing.T) {
	h := newHarness(t)
	main := testutil.PrimaryBranch(nil, 3, 0, 2) // 2,4,6
	proposeAll(t, h, main)

	s1 := testutil.PrimaryChild(main[1], nil, 300, 2) // 6，与链头相等
	s2 := testutil.PrimaryChild(s1, nil, 301, 1)      // 7

	require.Equal(t, types.OutcomeOrphan, h.propose(t, s2).Outcome)
	parent := h.propose(t, s1)
	assert.True(t, parent.Is(types.ErrEqualWork))
	assert.Equal(t, 1, parent.Connected)
	assert.True(t, types.HeadersEqual(s2, h.svc.Head(types.PrimaryMagic)))
}

func TestUnknownParentIsOrphaned(t *testing.T) {
	h := newHarness(t)
	chain := testutil.ReferenceBranch(nil, 4, 0, 1)
	proposeAll(t, h, chain[:2])
	before := h.logLen(t)

	// chain[3] 的父区块 chain[2] 尚未提交
	result := h.propose(t, chain[3])
	assert.Equal(t, types.OutcomeOrphan, result.Outcome)
	assert.ErrorIs(t, result.Reason, types.ErrOrphanChain)
	assert.Empty(t, result.Records)
	assert.Equal(t, before, h.logLen(t))
	assert.Equal(t, 1, h.svc.OrphanCount(types.ReferenceMagic))

	// 父区块到达后孤块自动接入
	connected := h.propose(t, chain[2])
	require.True(t, connected.Accepted())
	assert.Equal(t, 1, connected.Connected)
	assert.Zero(t, h.svc.OrphanCount(types.ReferenceMagic))
	assert.True(t, types.HeadersEqual(chain[3], h.svc.Head(types.ReferenceMagic)))
}

func TestReorgWindowExceeded(t *testing.T) {
	h := newHarness(t, func(o *chainconfig.ChainOptions) { o.MaxReorgDepth = 2 })
	main := testutil.PrimaryBranch(nil, 6, 0, 1) // 累积工作量 1..6
	proposeAll(t, h, main)

	// 侧链从 main[1] 分出，累积工作量 4,6,8
	side := testutil.PrimaryBranch(main[1], 3, 100, 2)
	assert.True(t, h.propose(t, side[0]).Is(types.ErrLowerWork))
	assert.True(t, h.propose(t, side[1]).Is(types.ErrEqualWork))

	// side[2] 需要回溯两个非活跃区块，超出窗口后直接丢弃
	before := h.logLen(t)
	result := h.propose(t, side[2])
	assert.Equal(t, types.OutcomeOrphan, result.Outcome)
	assert.ErrorIs(t, result.Reason, types.ErrOrphanChain)
	assert.Equal(t, before, h.logLen(t))
	assert.Zero(t, h.svc.OrphanCount(types.PrimaryMagic))
	assert.True(t, types.HeadersEqual(main[5], h.svc.Head(types.PrimaryMagic)))
}

func TestMalformedCandidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	genesis := testutil.ReferenceChild(nil, 0, 1)
	h.propose(t, genesis)

	t.Run("hash mismatch", func(t *testing.T) {
		bad := *testutil.ReferenceChild(genesis, 1, 1)
		bad.Hash = make([]byte, types.ReferenceHashSize)
		result, err := h.svc.ProposeHeader(ctx, types.ReferenceMagic, &bad, genesis.Hash)
		require.NoError(t, err)
		assert.True(t, result.Is(types.ErrMalformedHeader))
	})

	t.Run("parent argument mismatch", func(t *testing.T) {
		child := testutil.ReferenceChild(genesis, 2, 1)
		result, err := h.svc.ProposeHeader(ctx, types.ReferenceMagic, child, make([]byte, types.ReferenceHashSize))
		require.NoError(t, err)
		assert.True(t, result.Is(types.ErrMalformedHeader))
	})

	t.Run("height gap", func(t *testing.T) {
		child := testutil.ReferenceChild(genesis, 3, 1)
		gap := *child
		gap.Height = 5
		result, err := h.svc.ProposeHeader(ctx, types.ReferenceMagic, &gap, genesis.Hash)
		require.NoError(t, err)
		assert.True(t, result.Is(types.ErrMalformedHeader))
	})

	t.Run("wrong chain", func(t *testing.T) {
		result, err := h.svc.ProposeHeader(ctx, types.PrimaryMagic, testutil.ReferenceChild(genesis, 4, 1), genesis.Hash)
		require.NoError(t, err)
		assert.True(t, result.Is(types.ErrMalformedHeader))
	})

	t.Run("unknown chain", func(t *testing.T) {
		result, err := h.svc.ProposeHeader(ctx, types.ChainMagic{'X', 'X', 'X', 'X'}, genesis, nil)
		require.NoError(t, err)
		assert.True(t, result.Is(types.ErrUnknownChain))
	})

	assert.Equal(t, uint64(2), h.logLen(t))
}

func TestCancelledContextAppendsNothing(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	genesis := testutil.PrimaryChild(nil, nil, 0, 1)
	_, err := h.svc.ProposeHeader(ctx, types.PrimaryMagic, genesis, genesis.ParentHash())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.logLen(t))
	assert.Nil(t, h.svc.Head(types.PrimaryMagic))
}

func TestProposalMetrics(t *testing.T) {
	h := newHarness(t)
	main := testutil.PrimaryBranch(nil, 3, 0, 1)
	proposeAll(t, h, main)
	h.propose(t, testutil.PrimaryChild(main[0], nil, 9, 1))

	samples, err := metrics.Snapshot(h.registry.Gatherer())
	require.NoError(t, err)

	values := map[string]float64{}
	for _, s := range samples {
		values[s.Name+"{"+s.Labels+"}"] = s.Value
	}
	assert.Equal(t, 3.0, values["test_fork_proposals_total{chain=PRIM,outcome=accepted}"])
	assert.Equal(t, 1.0, values["test_fork_proposals_total{chain=PRIM,outcome=rejected}"])
	assert.Equal(t, 3.0, values["test_fork_change_records_total{chain=PRIM,operation=ADD_BLOCK}"])
	assert.Equal(t, 3.0, values["test_fork_change_records_total{chain=PRIM,operation=SET_HEAD}"])
}
