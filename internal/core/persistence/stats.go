package persistence

import (
	"context"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/dualchain/pkg/types"
)

// ChainStats 单条链的存储统计
type ChainStats struct {
	Headers int
	Active  int
	Head    types.StoredHeader
}

// Stats 后端统计（用于 CLI 与诊断）
type Stats struct {
	Chains     map[types.ChainMagic]ChainStats
	LogLen     uint64
	LogApplied uint64
	Cache      *storage.CacheStats
}

// Stats 汇总两条链的区块头数量、活跃链长度、链头与日志水位
func (b *Backend) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{Chains: make(map[types.ChainMagic]ChainStats, 2)}
	for _, magic := range []types.ChainMagic{types.ReferenceMagic, types.PrimaryMagic} {
		headers, err := b.store.PrefixCount(ctx, chainPrefix(headerPrefix, magic))
		if err != nil {
			return nil, types.NewBackendError("stats", err)
		}
		active, err := b.store.PrefixCount(ctx, chainPrefix(activePrefix, magic))
		if err != nil {
			return nil, types.NewBackendError("stats", err)
		}
		head, err := b.Head(ctx, magic)
		if err != nil {
			return nil, err
		}
		out.Chains[magic] = ChainStats{Headers: headers, Active: active, Head: head}
	}

	var err error
	if out.LogLen, err = b.log.Len(ctx); err != nil {
		return nil, err
	}
	if out.LogApplied, err = b.log.Applied(ctx); err != nil {
		return nil, err
	}
	if b.cache != nil {
		cs := b.cache.Stats()
		out.Cache = &cs
	}
	return out, nil
}
