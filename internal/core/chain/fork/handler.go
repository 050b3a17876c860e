package fork

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/dualchain/internal/core/codec"
	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              候选区块头处理
// ============================================================================

// ProposeHeader 提交候选区块头
//
// 结构性结果（Rejected/Orphan）以 nil error 返回；
// 只有后端失败或链处于只读状态时返回 error。
func (s *Service) ProposeHeader(ctx context.Context, magic types.ChainMagic, header types.StoredHeader, parentHash []byte) (*types.ProposalResult, error) {
	if err := validateCandidate(magic, header, parentHash); err != nil {
		return s.finish(magic, types.Rejected(err)), nil
	}
	if err := s.checkWriteAllowed(ctx, magic, "propose_header"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.handleProposal(ctx, header)
	if err != nil || !reachedPool(result) {
		return result, err
	}
	result.Connected, err = s.connectOrphans(ctx, header)
	return result, err
}

// reachedPool 候选已写入区块头池：被接受，或仅因工作量未胜出被拒
//
// 这两种情况下以它为父的孤块都可以回溯到分叉点，需要重新评估。
func reachedPool(result *types.ProposalResult) bool {
	return result.Accepted() || result.Is(types.ErrEqualWork) || result.Is(types.ErrLowerWork)
}

// handleProposal 评估并提交单个候选；调用方持有 s.mu
func (s *Service) handleProposal(ctx context.Context, header types.StoredHeader) (*types.ProposalResult, error) {
	magic := header.Chain()
	hashStr := types.FormatHash(magic, header.HashBytes())
	s.logger.Debugf("处理候选区块头: chain=%s hash=%s work=%s", magic, hashStr, header.CumulativeWork())

	// 1. 定位分叉点
	path, err := s.findForkPoint(ctx, header)
	switch {
	case errors.Is(err, errParentUnknown):
		s.orphans.add(header)
		s.metrics.setOrphans(magic, s.orphans.count(magic))
		s.logger.Infof("候选区块父区块未知，加入孤块池: chain=%s hash=%s", magic, hashStr)
		return s.finish(magic, types.Orphaned(err)), nil
	case errors.Is(err, errWindowExceeded):
		s.logger.Warnf("候选区块超出最大重组深度 %d，已丢弃: chain=%s hash=%s", s.config.GetMaxReorgDepth(), magic, hashStr)
		return s.finish(magic, types.Orphaned(err)), nil
	case err != nil:
		return nil, err
	}

	// 2. 校验与父区块的连接
	if err := validateLink(header, path.parent()); err != nil {
		return s.finish(magic, types.Rejected(err)), nil
	}

	// 3. 侧链区块也进入区块头池，后续子区块才能回溯到分叉点
	if err := s.backend.PutHeader(ctx, header); err != nil {
		return nil, err
	}

	// 4. 比较累积工作量
	head := s.Head(magic)
	if err := compareWithHead(header, head); err != nil {
		s.logger.Debugf("候选区块未胜出: chain=%s hash=%s reason=%v", magic, hashStr, err)
		return s.finish(magic, types.Rejected(err)), nil
	}

	// 5. 收集撤销集合
	if err := s.collectDetach(ctx, head, path); err != nil {
		if errors.Is(err, errWindowExceeded) {
			return s.finish(magic, types.Orphaned(err)), nil
		}
		return nil, err
	}

	// 6. 生成变更批次：撤销 → 追加 → 切换链头
	records, err := buildSwitchRecords(magic, head, header, path)
	if err != nil {
		return s.finish(magic, types.Rejected(err)), nil
	}

	// 7. 提交（从追加开始不再响应取消）
	first, err := s.commit(ctx, magic, records)
	if err != nil {
		return nil, err
	}

	// 8. 发布新链头
	s.publishHead(magic, header)

	result := &types.ProposalResult{
		Outcome:    types.OutcomeAccepted,
		Records:    records,
		FirstIndex: first,
		ReorgDepth: len(path.detach),
	}

	if result.ReorgDepth > 0 {
		result.SessionID = uuid.NewString()
		event := ReorgEvent{
			SessionID: result.SessionID,
			Chain:     magic,
			OldHead:   head.HashBytes(),
			NewHead:   header.HashBytes(),
			Detached:  len(path.detach),
			Attached:  len(path.attach),
			Timestamp: time.Now(),
		}
		if path.forkPoint != nil {
			event.ForkPoint = path.forkPoint.HashBytes()
		}
		s.logger.Infof("🔀 链重组: session=%s chain=%s detached=%d attached=%d new_head=%s",
			result.SessionID, magic, event.Detached, event.Attached, hashStr)
		s.publish(ctx, EventTypeReorg, event)
	} else {
		s.logger.Infof("✅ 新链头: chain=%s hash=%s work=%s", magic, hashStr, header.CumulativeWork())
	}

	s.publish(ctx, EventTypeHeaderAccepted, HeaderAcceptedEvent{
		Chain:      magic,
		Hash:       header.HashBytes(),
		Work:       header.CumulativeWork().String(),
		FirstIndex: first,
		Records:    len(records),
	})
	return s.finish(magic, result), nil
}

// parent 候选的父区块；nil 表示候选是创世区块
func (p *forkPath) parent() types.StoredHeader {
	if len(p.attach) >= 2 {
		return p.attach[len(p.attach)-2]
	}
	return p.forkPoint
}

// buildSwitchRecords 撤销记录按高度倒序，追加记录按高度正序，SET_HEAD 恰好一条且在最后
func buildSwitchRecords(magic types.ChainMagic, head, candidate types.StoredHeader, path *forkPath) ([]types.ChangeRecord, error) {
	records := make([]types.ChangeRecord, 0, len(path.detach)+len(path.attach)+1)
	for _, h := range path.detach {
		rec, err := codec.NewAddBlockChange(magic, h, nil)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	for _, h := range path.attach {
		rec, err := codec.NewAddBlockChange(magic, nil, h)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	rec, err := codec.NewSetHeadChange(magic, head, candidate)
	if err != nil {
		return nil, err
	}
	return append(records, rec), nil
}

// commit 提交变更批次；后端失败时该链进入只读模式
func (s *Service) commit(ctx context.Context, magic types.ChainMagic, records []types.ChangeRecord) (uint64, error) {
	first, err := s.backend.Commit(context.WithoutCancel(ctx), records)
	if err != nil {
		if errors.Is(err, types.ErrBackendFailure) {
			return 0, s.enterReadOnlyMode(ctx, magic, err)
		}
		return 0, err
	}
	s.metrics.observeRecords(records)
	return first, nil
}

// connectOrphans 接受一个区块后，重新提交以它为父的孤块（逐层向下）
func (s *Service) connectOrphans(ctx context.Context, accepted types.StoredHeader) (int, error) {
	magic := accepted.Chain()
	connected := 0
	queue := []types.StoredHeader{accepted}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		children := s.orphans.takeChildren(magic, parent.HashBytes())
		for i, child := range children {
			if ctx.Err() != nil {
				// 未处理的孤块放回池中，下次接受时再尝试
				for _, rest := range children[i:] {
					s.orphans.add(rest)
				}
				return connected, nil
			}
			result, err := s.handleProposal(ctx, child)
			if err != nil {
				return connected, err
			}
			if result.Accepted() {
				connected++
			}
			// 未胜出的侧链区块已入池，它的子孤块仍可能胜出
			if reachedPool(result) {
				queue = append(queue, child)
			}
		}
	}
	s.metrics.setOrphans(magic, s.orphans.count(magic))
	if connected > 0 {
		s.logger.Infof("孤块池中 %d 个区块已接入: chain=%s", connected, magic)
	}
	return connected, nil
}

func (s *Service) finish(magic types.ChainMagic, result *types.ProposalResult) *types.ProposalResult {
	s.metrics.observeProposal(magic, result)
	return result
}
