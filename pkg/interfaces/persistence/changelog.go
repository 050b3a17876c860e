// Package persistence 定义双链存储的持久化接口。
//
// 📒 **变更日志 + 状态后端**
//
// 所有对区块存储的修改都先以 ChangeRecord 形式追加到变更日志，再应用到状态：
//
//	Commit(records) = Append(records) → Apply(records) + 推进 applied 水位
//
// 追加成功但应用失败的批次称为"待应用批次"（pending），由 Recover 补齐。
// 变更日志只追加；只有从未应用过的尾部批次允许被 TruncatePending 丢弃（recover --discard-pending）。
package persistence

import (
	"context"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/dualchain/pkg/types"
)

// ChangeLog 有序、只追加的变更记录序列；序号（从 0 开始）即因果顺序
type ChangeLog interface {
	// Append 追加一批记录（单个事务），返回第一条记录的序号
	Append(ctx context.Context, records []types.ChangeRecord) (uint64, error)

	// Len 日志中的记录数
	Len(ctx context.Context) (uint64, error)

	// Get 读取指定序号的记录
	Get(ctx context.Context, index uint64) (*types.ReadOnlyChange, error)

	// Range 按正序遍历 [from, to)；fn 返回错误时停止并返回该错误
	Range(ctx context.Context, from, to uint64, fn func(index uint64, rec *types.ReadOnlyChange) error) error

	// ReadBackward 从 end-1 开始倒序遍历；fn 返回 false 时停止
	ReadBackward(ctx context.Context, end uint64, fn func(index uint64, rec *types.ReadOnlyChange) (bool, error)) error

	// Applied 已应用到状态的记录数（水位）
	Applied(ctx context.Context) (uint64, error)

	// MarkAppliedTx 在调用方事务内推进水位，保证与状态修改原子提交
	MarkAppliedTx(tx storage.BadgerTransaction, applied uint64) error

	// Pending 返回已追加但未应用的区间 [Applied, Len)
	Pending(ctx context.Context) (from, to uint64, err error)

	// TruncatePending 丢弃未应用的尾部批次，返回丢弃条数
	TruncatePending(ctx context.Context) (int, error)

	// SetCheckpoint 以名称记录一个日志序号
	SetCheckpoint(ctx context.Context, name string, index uint64) error

	// Checkpoint 查询检查点；不存在返回 ErrCheckpointNotFound
	Checkpoint(ctx context.Context, name string) (uint64, error)

	Checkpoints(ctx context.Context) (map[string]uint64, error)

	DeleteCheckpoint(ctx context.Context, name string) error
}
