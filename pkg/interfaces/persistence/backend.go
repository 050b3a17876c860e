package persistence

import (
	"context"

	"github.com/weisyn/dualchain/pkg/types"
)

// Backend 区块存储后端
//
// 状态由三部分组成：区块头池（所有见过的区块头）、活跃集合（每条链的活跃链成员）、
// 链头与主链证明指针。除区块头池外，状态只能通过 Commit 修改。
//
// ⚠️ 后端本身不做分叉判断，只忠实地记录并应用调用方给出的变更批次。
type Backend interface {
	// Commit 追加并应用一批记录，返回第一条记录的日志序号。
	// 追加成功但应用失败时返回包装了 ErrBackendFailure 的错误，批次保持 pending。
	Commit(ctx context.Context, records []types.ChangeRecord) (uint64, error)

	// PutHeader 将区块头写入区块头池（不影响活跃集合）
	PutHeader(ctx context.Context, header types.StoredHeader) error

	// GetHeader 按哈希读取区块头；不存在返回 ErrHeaderNotFound
	GetHeader(ctx context.Context, magic types.ChainMagic, hash []byte) (types.StoredHeader, error)

	// GetParent 读取父区块头；父哈希为全零（创世）时返回 nil, nil
	GetParent(ctx context.Context, header types.StoredHeader) (types.StoredHeader, error)

	// IsActive 区块是否在活跃链上
	IsActive(ctx context.Context, magic types.ChainMagic, hash []byte) (bool, error)

	// Head 当前链头；空链返回 nil, nil
	Head(ctx context.Context, magic types.ChainMagic) (types.StoredHeader, error)

	// Proof 主链当前嵌入的参考链证明；未设置返回 nil, nil
	Proof(ctx context.Context) (*types.ReferenceHeader, error)

	// Recover 应用所有 pending 批次，返回补齐的记录数
	Recover(ctx context.Context) (int, error)

	// DiscardPending 丢弃 pending 批次而不应用，返回丢弃的记录数
	DiscardPending(ctx context.Context) (int, error)

	// ChangeLog 底层变更日志
	ChangeLog() ChangeLog
}
