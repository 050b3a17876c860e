// Package writegate 按链冻结写入：后端故障的链进入只读，恢复流程凭通行证放行。
package writegate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	wgif "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
	"github.com/weisyn/dualchain/pkg/types"
)

// ErrRecoveryBusy 已有恢复流程持有通行证
var ErrRecoveryBusy = errors.New("writegate: recovery already in progress")

// ErrTokenMismatch 关闭恢复模式时通行证不匹配
var ErrTokenMismatch = errors.New("writegate: recovery token mismatch")

type frozenScope struct {
	reason string
	since  time.Time
}

type recoveryPass struct {
	token   string
	purpose string
}

// Gate 写门闸；AssertWriteAllowed 在每次提交前调用，只取读锁
type Gate struct {
	mu       sync.RWMutex
	frozen   map[string]frozenScope
	recovery *recoveryPass

	logger log.Logger
	now    func() time.Time
}

var _ wgif.WriteGate = (*Gate)(nil)

// Option 门闸选项
type Option func(*Gate)

// WithLogger 记录作用域冻结/解冻
func WithLogger(logger log.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// New 创建门闸
func New(opts ...Option) *Gate {
	g := &Gate{
		frozen: make(map[string]frozenScope),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) EnterReadOnly(scope, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.frozen[scope]; ok {
		return
	}
	g.frozen[scope] = frozenScope{reason: reason, since: g.now()}
	if g.logger != nil {
		g.logger.Warnf("链 %s 进入只读: %s", scope, reason)
	}
}

func (g *Gate) ExitReadOnly(scope string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.frozen[scope]
	if !ok {
		return
	}
	delete(g.frozen, scope)
	if g.logger != nil {
		g.logger.Infof("链 %s 解除只读，冻结时长 %s", scope, g.now().Sub(st.since).Round(time.Millisecond))
	}
}

func (g *Gate) IsReadOnly(scope string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.frozen[scope]
	return ok
}

func (g *Gate) ReadOnlyReason(scope string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen[scope].reason
}

// ReadOnlyScopes 已排序
func (g *Gate) ReadOnlyScopes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	scopes := make([]string, 0, len(g.frozen))
	for s := range g.frozen {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

func (g *Gate) EnableRecoveryMode(purpose string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.recovery != nil {
		return "", fmt.Errorf("%w: %s", ErrRecoveryBusy, g.recovery.purpose)
	}
	g.recovery = &recoveryPass{token: uuid.NewString(), purpose: purpose}
	return g.recovery.token, nil
}

// DisableRecoveryMode 未处于恢复模式时为空操作
func (g *Gate) DisableRecoveryMode(token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.recovery == nil {
		return nil
	}
	if g.recovery.token != token {
		return ErrTokenMismatch
	}
	g.recovery = nil
	return nil
}

func (g *Gate) IsRecoveryMode() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.recovery != nil
}

func (g *Gate) RecoveryPurpose() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.recovery == nil {
		return ""
	}
	return g.recovery.purpose
}

// AssertWriteAllowed 持有当前恢复通行证的 ctx 绕过只读
func (g *Gate) AssertWriteAllowed(ctx context.Context, scope, op string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.recovery != nil {
		if token, ok := wgif.RecoveryToken(ctx); ok && token == g.recovery.token {
			return nil
		}
	}
	if st, ok := g.frozen[scope]; ok {
		return fmt.Errorf("%w: chain=%s op=%s reason=%s", types.ErrReadOnly, scope, op, st.reason)
	}
	return nil
}
