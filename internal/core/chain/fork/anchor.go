package fork

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/weisyn/dualchain/internal/core/codec"
	"github.com/weisyn/dualchain/pkg/types"
)

// AnchorProof 将主链的嵌入证明指针切换到一个活跃的参考链区块
//
// 证明只能向累积工作量不减的方向移动；指向当前证明时为空操作。
func (s *Service) AnchorProof(ctx context.Context, referenceHash []byte) (*types.ProposalResult, error) {
	if err := s.checkWriteAllowed(ctx, types.PrimaryMagic, "anchor_proof"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	header, err := s.backend.GetHeader(ctx, types.ReferenceMagic, referenceHash)
	if errors.Is(err, types.ErrHeaderNotFound) {
		return types.Rejected(err), nil
	}
	if err != nil {
		return nil, err
	}
	ref, ok := header.(*types.ReferenceHeader)
	if !ok {
		return types.Rejected(fmt.Errorf("%w: 不是参考链区块头", types.ErrMalformedHeader)), nil
	}

	active, err := s.backend.IsActive(ctx, types.ReferenceMagic, ref.Hash)
	if err != nil {
		return nil, err
	}
	if !active {
		return types.Rejected(fmt.Errorf("%w: 参考链区块不在活跃链上", types.ErrOrphanChain)), nil
	}

	current, err := s.backend.Proof(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if bytes.Equal(current.Hash, ref.Hash) {
			return &types.ProposalResult{Outcome: types.OutcomeAccepted}, nil
		}
		if types.CompareWork(ref, current) < 0 {
			return types.Rejected(fmt.Errorf("%w: 证明不能回退", types.ErrLowerWork)), nil
		}
	}

	rec, err := codec.NewSetProofChange(current, ref)
	if err != nil {
		return types.Rejected(err), nil
	}
	records := []types.ChangeRecord{rec}
	first, err := s.commit(ctx, types.PrimaryMagic, records)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("⚓ 主链证明已锚定: reference=%s height=%d", types.FormatHash(types.ReferenceMagic, ref.Hash), ref.Height)
	s.publish(ctx, EventTypeProofAnchored, HeaderAcceptedEvent{
		Chain:      types.ReferenceMagic,
		Hash:       ref.Hash,
		Work:       ref.CumulativeWork().String(),
		FirstIndex: first,
		Records:    1,
	})
	return &types.ProposalResult{Outcome: types.OutcomeAccepted, Records: records, FirstIndex: first}, nil
}
