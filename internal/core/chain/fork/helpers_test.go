package fork

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	chainconfig "github.com/weisyn/dualchain/internal/config/chain"
	eventconfig "github.com/weisyn/dualchain/internal/config/event"
	metricsconfig "github.com/weisyn/dualchain/internal/config/metrics"
	"github.com/weisyn/dualchain/internal/core/codec"
	"github.com/weisyn/dualchain/internal/core/infrastructure/event"
	"github.com/weisyn/dualchain/internal/core/infrastructure/metrics"
	"github.com/weisyn/dualchain/internal/core/infrastructure/writegate"
	"github.com/weisyn/dualchain/internal/core/persistence"
	storetest "github.com/weisyn/dualchain/internal/core/persistence/testutil"
	wgif "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
	"github.com/weisyn/dualchain/pkg/types"
)

// failingBackend 在指定的下一次 Commit 中只追加不应用，模拟应用阶段的磁盘故障
type failingBackend struct {
	*persistence.Backend
	failNext atomic.Bool
}

func (f *failingBackend) Commit(ctx context.Context, records []types.ChangeRecord) (uint64, error) {
	if f.failNext.CompareAndSwap(true, false) {
		first, err := f.Backend.ChangeLog().Append(ctx, records)
		if err != nil {
			return 0, err
		}
		return first, types.NewBackendError("apply", errors.New("injected disk failure"))
	}
	return f.Backend.Commit(ctx, records)
}

type harness struct {
	svc      *Service
	backend  *failingBackend
	gate     wgif.WriteGate
	bus      *event.EventBus
	registry *metrics.Registry
}

func newHarness(t *testing.T, options ...func(*chainconfig.ChainOptions)) *harness {
	t.Helper()
	store := storetest.NewTestBadgerStore(t)
	inner, err := persistence.New(store, storetest.NewTestMemoryStore(t), storetest.NewTestLogger(t))
	require.NoError(t, err)

	chainOptions := &chainconfig.ChainOptions{
		MaxReorgDepth: 64,
		MaxOrphans:    16,
		OrphanTTL:     time.Hour,
	}
	for _, opt := range options {
		opt(chainOptions)
	}

	h := &harness{
		backend:  &failingBackend{Backend: inner},
		gate:     writegate.New(),
		bus:      event.New(eventconfig.NewFromOptions(&eventconfig.EventOptions{Enabled: true, HistorySize: 16})),
		registry: metrics.New(&metricsconfig.MetricsOptions{Enabled: true, Namespace: "test"}),
	}
	h.svc, err = NewService(h.backend, chainconfig.NewFromOptions(chainOptions), h.gate, h.bus, h.registry, storetest.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

// propose 提交区块头并要求没有返回 error
func (h *harness) propose(t *testing.T, header types.StoredHeader) *types.ProposalResult {
	t.Helper()
	result, err := h.svc.ProposeHeader(context.Background(), header.Chain(), header, header.ParentHash())
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// proposeAll 依次提交并要求全部被接受
func proposeAll[H types.StoredHeader](t *testing.T, h *harness, headers []H) {
	t.Helper()
	for _, header := range headers {
		result := h.propose(t, header)
		require.True(t, result.Accepted(), "header rejected: %v", result.Reason)
	}
}

func (h *harness) logLen(t *testing.T) uint64 {
	t.Helper()
	n, err := h.backend.ChangeLog().Len(context.Background())
	require.NoError(t, err)
	return n
}

func encoded(t *testing.T, header types.StoredHeader) []byte {
	t.Helper()
	buf, err := codec.EncodeHeader(header.Chain(), header)
	require.NoError(t, err)
	return buf
}
