package fork

import (
	"context"
	"fmt"
	"time"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
	"github.com/weisyn/dualchain/pkg/types"
)

// Recover 补齐 pending 批次、重新加载链头并解除两条链的只读状态
//
// 恢复期间持有写门闸的恢复通行证，只读作用域对恢复流程放行。
func (s *Service) Recover(ctx context.Context) (int, error) {
	replayed, err := s.recoverWith(ctx, "fork-choice recover", func(ctx context.Context) (int, error) {
		n, err := s.backend.Recover(ctx)
		if err != nil {
			return n, fmt.Errorf("重放 pending 批次失败: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return replayed, err
	}
	s.logger.Infof("✅ 恢复完成: replayed=%d", replayed)
	s.publish(ctx, EventTypeRecovered, RecoveredEvent{Replayed: replayed, Timestamp: time.Now()})
	return replayed, nil
}

// DiscardPending 丢弃 pending 批次后解除只读；链头回到故障前的状态
func (s *Service) DiscardPending(ctx context.Context) (int, error) {
	discarded, err := s.recoverWith(ctx, "fork-choice discard pending", func(ctx context.Context) (int, error) {
		n, err := s.backend.DiscardPending(ctx)
		if err != nil {
			return n, fmt.Errorf("丢弃 pending 批次失败: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return discarded, err
	}
	s.logger.Warnf("⏪ 恢复完成: discarded=%d", discarded)
	s.publish(ctx, EventTypeRecovered, RecoveredEvent{Discarded: discarded, Timestamp: time.Now()})
	return discarded, nil
}

// recoverWith 持恢复通行证执行 fn，随后重载链头并放开两条链
func (s *Service) recoverWith(ctx context.Context, purpose string, fn func(context.Context) (int, error)) (int, error) {
	token, err := s.writeGate.EnableRecoveryMode(purpose)
	if err != nil {
		return 0, fmt.Errorf("开启恢复模式失败: %w", err)
	}
	defer func() {
		if err := s.writeGate.DisableRecoveryMode(token); err != nil {
			s.logger.Warnf("关闭恢复模式失败: %v", err)
		}
	}()
	ctx = writegate.WithRecoveryToken(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := fn(ctx)
	if err != nil {
		return n, err
	}
	if err := s.reloadHeads(ctx); err != nil {
		return n, err
	}

	for _, magic := range []types.ChainMagic{types.ReferenceMagic, types.PrimaryMagic} {
		if s.writeGate.IsReadOnly(scopeOf(magic)) {
			s.writeGate.ExitReadOnly(scopeOf(magic))
			s.logger.Infof("🔓 %s 链已解除只读模式", magic)
		}
		s.metrics.setReadOnly(magic, false)
	}
	return n, nil
}
