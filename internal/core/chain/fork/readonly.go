package fork

import (
	"context"
	"fmt"
	"time"

	"github.com/weisyn/dualchain/pkg/types"
)

// enterReadOnlyMode 后端失败后冻结该链的写入
//
// 只冻结出错的那条链；另一条链与所有读操作不受影响。
// 解除只读必须走 Recover（补齐 pending 批次后才放开）。
func (s *Service) enterReadOnlyMode(ctx context.Context, magic types.ChainMagic, cause error) error {
	reason := cause.Error()
	s.logger.Errorf("🔒 %s 链进入只读模式: reason=%s", magic, reason)
	s.logger.Errorf("⚠️ 该链的写操作将被拒绝，请检查存储后执行 recover")

	s.writeGate.EnterReadOnly(scopeOf(magic), reason)
	s.metrics.setReadOnly(magic, true)

	s.publish(ctx, EventTypeReadOnlyEntered, ReadOnlyModeEvent{
		Chain:     magic,
		Reason:    reason,
		Timestamp: time.Now(),
		Component: "fork-choice",
	})

	return fmt.Errorf("%s 链已进入只读模式: %w", magic, cause)
}

// IsReadOnly 链是否处于只读模式
func (s *Service) IsReadOnly(magic types.ChainMagic) bool {
	return s.writeGate.IsReadOnly(scopeOf(magic))
}

// ReadOnlyReason 只读原因
func (s *Service) ReadOnlyReason(magic types.ChainMagic) string {
	return s.writeGate.ReadOnlyReason(scopeOf(magic))
}

// checkWriteAllowed 写操作前检查门闸
func (s *Service) checkWriteAllowed(ctx context.Context, magic types.ChainMagic, op string) error {
	return s.writeGate.AssertWriteAllowed(ctx, scopeOf(magic), op)
}
