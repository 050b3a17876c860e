package writegate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	corelog "github.com/weisyn/dualchain/internal/core/infrastructure/log"
	wgif "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
	"github.com/weisyn/dualchain/pkg/types"
)

// TestReadOnlyIsScoped 只读只影响对应作用域
func TestReadOnlyIsScoped(t *testing.T) {
	gate := New()
	ctx := context.Background()

	gate.EnterReadOnly("PRIM", "apply failed")
	gate.EnterReadOnly("PRIM", "second reason ignored")

	assert.True(t, gate.IsReadOnly("PRIM"))
	assert.False(t, gate.IsReadOnly("BTCR"))
	assert.Equal(t, "apply failed", gate.ReadOnlyReason("PRIM"))
	assert.Equal(t, []string{"PRIM"}, gate.ReadOnlyScopes())

	err := gate.AssertWriteAllowed(ctx, "PRIM", "commit")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrReadOnly)
	assert.ErrorIs(t, err, types.ErrBackendFailure)

	assert.NoError(t, gate.AssertWriteAllowed(ctx, "BTCR", "commit"))

	gate.ExitReadOnly("PRIM")
	assert.NoError(t, gate.AssertWriteAllowed(ctx, "PRIM", "commit"))
	assert.Empty(t, gate.ReadOnlyReason("PRIM"))
}

// TestRecoveryModeBasic 测试 Recovery Mode 基本功能
func TestRecoveryModeBasic(t *testing.T) {
	gate := New()

	token, err := gate.EnableRecoveryMode("test-repair")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, gate.IsRecoveryMode())
	assert.Equal(t, "test-repair", gate.RecoveryPurpose())

	require.NoError(t, gate.DisableRecoveryMode(token))
	assert.False(t, gate.IsRecoveryMode())
	assert.Empty(t, gate.RecoveryPurpose())

	// 重复关闭是空操作
	assert.NoError(t, gate.DisableRecoveryMode(token))
}

// TestRecoveryModeBypassReadOnly 测试 Recovery Token 绕过只读模式
func TestRecoveryModeBypassReadOnly(t *testing.T) {
	gate := New()
	gate.EnterReadOnly("BTCR", "test corruption")

	token, err := gate.EnableRecoveryMode("self-repair")
	require.NoError(t, err)
	defer gate.DisableRecoveryMode(token)

	ctx := wgif.WithRecoveryToken(context.Background(), token)
	assert.NoError(t, gate.AssertWriteAllowed(ctx, "BTCR", "recover"))
	assert.Error(t, gate.AssertWriteAllowed(context.Background(), "BTCR", "commit"))

	bad := wgif.WithRecoveryToken(context.Background(), "not-the-token")
	assert.Error(t, gate.AssertWriteAllowed(bad, "BTCR", "commit"))
}

func TestRecoveryModeTokenMismatch(t *testing.T) {
	gate := New()
	token, err := gate.EnableRecoveryMode("repair")
	require.NoError(t, err)

	assert.ErrorIs(t, gate.DisableRecoveryMode("wrong"), ErrTokenMismatch)
	assert.True(t, gate.IsRecoveryMode())
	require.NoError(t, gate.DisableRecoveryMode(token))
}

func TestRecoveryModeAlreadyEnabled(t *testing.T) {
	gate := New()
	token, err := gate.EnableRecoveryMode("first")
	require.NoError(t, err)
	defer gate.DisableRecoveryMode(token)

	_, err = gate.EnableRecoveryMode("second")
	assert.ErrorIs(t, err, ErrRecoveryBusy)
	assert.Equal(t, "first", gate.RecoveryPurpose())
}

func TestConcurrentAssert(t *testing.T) {
	gate := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scope := "PRIM"
			if i%2 == 0 {
				scope = "BTCR"
			}
			for j := 0; j < 100; j++ {
				if j%10 == 0 {
					gate.EnterReadOnly(scope, "flap")
					gate.ExitReadOnly(scope)
				}
				_ = gate.AssertWriteAllowed(context.Background(), scope, "commit")
			}
		}(i)
	}
	wg.Wait()
	assert.Empty(t, gate.ReadOnlyScopes())
}


func TestEmptyTokenIsNotCarried(t *testing.T) {
	ctx := wgif.WithRecoveryToken(context.Background(), "")
	_, ok := wgif.RecoveryToken(ctx)
	assert.False(t, ok)
}

func TestTransitionsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	start := time.Unix(1_700_000_000, 0)
	gate := New(WithLogger(corelog.NewFromZap(zap.New(core))))
	gate.now = func() time.Time { return start }

	gate.EnterReadOnly("PRIM", "apply failed")
	gate.EnterReadOnly("PRIM", "ignored")
	gate.now = func() time.Time { return start.Add(1500 * time.Millisecond) }
	gate.ExitReadOnly("PRIM")
	gate.ExitReadOnly("PRIM")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "apply failed")
	assert.Contains(t, entries[1].Message, "1.5s")
}
