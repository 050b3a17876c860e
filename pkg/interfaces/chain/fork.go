// Package chain 定义分叉选择的公共接口
//
// 🔀 **分叉选择 (Fork Choice)**
//
// 按累积工作量选择每条链的活跃链：
//   - 工作量更大的候选成为新链头（必要时重组）
//   - 工作量相等不切换，保持先到者
//   - 父区块未知的候选进入孤块池
//
// 所有切换都以变更记录写入日志，回滚通过追加反向记录完成，历史不会被删除。
package chain

import (
	"context"

	"github.com/weisyn/dualchain/pkg/types"
)

// ForkChoice 分叉选择接口
type ForkChoice interface {
	// ProposeHeader 提交候选区块头。
	//
	// 结构性结果（Rejected/Orphan）放在 ProposalResult 中，error 为 nil；
	// 只有后端失败或链处于只读状态时返回 error。
	ProposeHeader(ctx context.Context, magic types.ChainMagic, header types.StoredHeader, parentHash []byte) (*types.ProposalResult, error)

	// RollbackTo 撤销该链在日志序号 index 之后（含）的全部记录
	RollbackTo(ctx context.Context, magic types.ChainMagic, index uint64) (*types.RollbackResult, error)

	// RollbackCount 撤销该链最近 n 条记录
	RollbackCount(ctx context.Context, magic types.ChainMagic, n int) (*types.RollbackResult, error)

	// RollbackToCheckpoint 回滚到命名检查点
	RollbackToCheckpoint(ctx context.Context, magic types.ChainMagic, name string) (*types.RollbackResult, error)

	// AnchorProof 将主链的证明指针切换到一个活跃的参考链区块
	AnchorProof(ctx context.Context, referenceHash []byte) (*types.ProposalResult, error)

	// Head 当前链头（无锁读取，不会观察到重组中间态）
	Head(magic types.ChainMagic) types.StoredHeader

	// Recover 补齐 pending 批次并解除只读状态
	Recover(ctx context.Context) (int, error)

	// DiscardPending 丢弃 pending 批次，链状态回到批次之前，并解除只读状态
	DiscardPending(ctx context.Context) (int, error)
}
