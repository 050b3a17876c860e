package fork

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/weisyn/dualchain/pkg/types"
)

var (
	// errParentUnknown 候选链上有父区块尚未见过；候选进入孤块池等待
	errParentUnknown = fmt.Errorf("%w: 父区块未知", types.ErrOrphanChain)
	// errWindowExceeded 回溯超出可见窗口；候选被丢弃
	errWindowExceeded = fmt.Errorf("%w: 超出最大重组深度", types.ErrOrphanChain)
)

// forkPath 一次链切换的路径
type forkPath struct {
	// forkPoint 候选链与活跃链的最近共同区块；nil 表示没有共同区块（创世）
	forkPoint types.StoredHeader
	// attach 分叉点之后的候选链区块，按高度正序，最后一个是候选本身
	attach []types.StoredHeader
	// detach 需要撤销的活跃链区块，从旧链头开始按高度倒序
	detach []types.StoredHeader
}

func (s *Service) withinWindow(steps int) bool {
	limit := s.config.GetMaxReorgDepth()
	return limit <= 0 || steps < limit
}

// findForkPoint 从候选沿父链回溯，直到遇到活跃链上的区块或创世
func (s *Service) findForkPoint(ctx context.Context, candidate types.StoredHeader) (*forkPath, error) {
	magic := candidate.Chain()
	path := &forkPath{attach: []types.StoredHeader{candidate}}

	cur := candidate
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.withinWindow(steps) {
			return nil, errWindowExceeded
		}

		parent, err := s.backend.GetParent(ctx, cur)
		if errors.Is(err, types.ErrHeaderNotFound) {
			return nil, errParentUnknown
		}
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}

		active, err := s.backend.IsActive(ctx, magic, parent.HashBytes())
		if err != nil {
			return nil, err
		}
		if active {
			path.forkPoint = parent
			break
		}
		path.attach = append(path.attach, parent)
		cur = parent
	}

	for i, j := 0, len(path.attach)-1; i < j; i, j = i+1, j-1 {
		path.attach[i], path.attach[j] = path.attach[j], path.attach[i]
	}
	return path, nil
}

// collectDetach 从旧链头回溯到分叉点（不含），收集需要撤销的区块
func (s *Service) collectDetach(ctx context.Context, head types.StoredHeader, path *forkPath) error {
	cur := head
	for !types.IsNilHeader(cur) {
		if path.forkPoint != nil && bytes.Equal(cur.HashBytes(), path.forkPoint.HashBytes()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.withinWindow(len(path.detach)) {
			return errWindowExceeded
		}
		path.detach = append(path.detach, cur)

		parent, err := s.backend.GetParent(ctx, cur)
		if err != nil {
			return fmt.Errorf("回溯活跃链失败: %w", err)
		}
		cur = parent
	}
	if path.forkPoint != nil {
		return types.NewBackendError("collect_detach", fmt.Errorf("活跃链上找不到分叉点 %s",
			types.FormatHash(path.forkPoint.Chain(), path.forkPoint.HashBytes())))
	}
	return nil
}
