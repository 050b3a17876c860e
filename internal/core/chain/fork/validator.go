package fork

import (
	"bytes"
	"fmt"

	"github.com/weisyn/dualchain/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/dualchain/pkg/types"
)

// validateCandidate 校验候选区块头自身：链标识、身份哈希与父哈希参数
func validateCandidate(magic types.ChainMagic, header types.StoredHeader, parentHash []byte) error {
	if types.KindOf(magic) == types.ChainKindUnknown {
		return fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
	if types.IsNilHeader(header) {
		return fmt.Errorf("%w: 区块头为空", types.ErrMalformedHeader)
	}
	if header.Chain() != magic {
		return fmt.Errorf("%w: 区块头属于 %s，提交到 %s", types.ErrMalformedHeader, header.Chain(), magic)
	}

	hasher, err := hash.ForChain(magic)
	if err != nil {
		return err
	}
	digest := hasher.Digest(rawOf(header))
	if !hash.ConstantTimeCompare(header.HashBytes(), digest) {
		return fmt.Errorf("%w: 哈希与原始区块头摘要不一致", types.ErrMalformedHeader)
	}

	embedded := header.ParentHash()
	if embedded == nil {
		return fmt.Errorf("%w: 无法解析父哈希", types.ErrMalformedHeader)
	}
	// 调用方可以省略 parentHash，此时以区块头内嵌的父哈希为准
	if len(parentHash) > 0 && !bytes.Equal(parentHash, embedded) {
		return fmt.Errorf("%w: 父哈希参数与区块头不一致", types.ErrMalformedHeader)
	}
	return nil
}

// validateLink 校验候选与其父区块的连接关系：
// 参考链高度连续，累积工作量单调不减。parent 为 nil 表示候选是创世区块。
func validateLink(header, parent types.StoredHeader) error {
	if ref, ok := header.(*types.ReferenceHeader); ok {
		want := uint32(0)
		if p, ok := parent.(*types.ReferenceHeader); ok && p != nil {
			want = p.Height + 1
		}
		if ref.Height != want {
			return fmt.Errorf("%w: 高度 %d，期望 %d", types.ErrMalformedHeader, ref.Height, want)
		}
	}
	if !types.IsNilHeader(parent) && types.CompareWork(header, parent) < 0 {
		return fmt.Errorf("%w: 累积工作量 %s 小于父区块 %s", types.ErrMalformedHeader,
			header.CumulativeWork(), parent.CumulativeWork())
	}
	return nil
}

// rawOf 原始区块头字节（身份哈希的输入）
func rawOf(header types.StoredHeader) []byte {
	switch h := header.(type) {
	case *types.ReferenceHeader:
		return h.Raw[:]
	case *types.PrimaryHeader:
		return h.Raw[:]
	default:
		return nil
	}
}
