package fork

import (
	"context"
	"fmt"

	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              回滚
// ============================================================================
//
// 回滚不删除历史：从日志尾部倒序选出该链的记录，交换新旧值后作为一个新批次追加并应用。
// 对回滚批次再执行一次同样的回滚即可恢复原状态。

// RollbackTo 撤销该链日志序号 >= index 的全部记录
func (s *Service) RollbackTo(ctx context.Context, magic types.ChainMagic, index uint64) (*types.RollbackResult, error) {
	return s.rollback(ctx, magic, index, func(idx uint64, _ int) bool { return idx >= index })
}

// RollbackCount 撤销该链最近 n 条记录
func (s *Service) RollbackCount(ctx context.Context, magic types.ChainMagic, n int) (*types.RollbackResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("回滚条数必须为正数: %d", n)
	}
	return s.rollback(ctx, magic, 0, func(_ uint64, taken int) bool { return taken < n })
}

// RollbackToCheckpoint 回滚到命名检查点
func (s *Service) RollbackToCheckpoint(ctx context.Context, magic types.ChainMagic, name string) (*types.RollbackResult, error) {
	index, err := s.backend.ChangeLog().Checkpoint(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.RollbackTo(ctx, magic, index)
}

// rollback 倒序读取已应用的日志，keep 返回 false 时停止选取
func (s *Service) rollback(ctx context.Context, magic types.ChainMagic, target uint64, keep func(idx uint64, taken int) bool) (*types.RollbackResult, error) {
	if types.KindOf(magic) == types.ChainKindUnknown {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
	if err := s.checkWriteAllowed(ctx, magic, "rollback"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.backend.ChangeLog()
	applied, err := log.Applied(ctx)
	if err != nil {
		return nil, err
	}

	var inverses []types.ChangeRecord
	lowest := applied
	err = log.ReadBackward(ctx, applied, func(idx uint64, rec *types.ReadOnlyChange) (bool, error) {
		if !keep(idx, len(inverses)) {
			return false, nil
		}
		if rec.ChainIdentifier() == magic {
			inverses = append(inverses, types.Invert(rec))
			lowest = idx
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("读取变更日志失败: %w", err)
	}

	result := &types.RollbackResult{Target: target}
	if len(inverses) == 0 {
		s.logger.Infof("没有需要回滚的记录: chain=%s", magic)
		return result, nil
	}
	if target == 0 {
		result.Target = lowest
	}

	first, err := s.commit(ctx, magic, inverses)
	if err != nil {
		return nil, err
	}
	if err := s.reloadHead(context.WithoutCancel(ctx), magic); err != nil {
		return nil, err
	}

	result.Records = inverses
	result.FirstIndex = first
	s.metrics.observeRollback(magic)
	s.logger.Infof("⏪ 回滚完成: chain=%s records=%d target=%d first=%d", magic, len(inverses), result.Target, first)
	s.publish(ctx, EventTypeRollback, RollbackEvent{
		Chain:      magic,
		Target:     result.Target,
		FirstIndex: first,
		Records:    len(inverses),
	})
	return result, nil
}
