package types

import "errors"

// ProposalOutcome 分叉选择对一个候选区块头的裁决
type ProposalOutcome int

const (
	// OutcomeAccepted 候选成为新链头（扩展或重组）
	OutcomeAccepted ProposalOutcome = iota
	// OutcomeRejected 候选工作量不超过当前链头，或校验失败
	OutcomeRejected
	// OutcomeOrphan 候选暂时无法接入（父区块未知或超出可见窗口），进入孤块池等待
	OutcomeOrphan
)

func (o ProposalOutcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// ProposalResult ProposeHeader 的结果
//
// 结构性结果（Rejected/Orphan）通过 Reason 携带分类错误，调用方用 errors.Is 判断。
type ProposalResult struct {
	Outcome ProposalOutcome
	Reason  error

	// Records 本次提交写入变更日志的记录（仅 Accepted 时非空）
	Records []ChangeRecord
	// FirstIndex 记录在变更日志中的起始序号
	FirstIndex uint64
	// ReorgDepth 被撤销的活跃链区块数（0 表示直接扩展）
	ReorgDepth int
	// SessionID 重组会话标识（仅发生重组时非空）
	SessionID string
	// Connected 因本次接受而重新提交成功的孤块数量
	Connected int
}

// Accepted 是否被接受
func (r *ProposalResult) Accepted() bool {
	return r != nil && r.Outcome == OutcomeAccepted
}

// Is 结果原因是否匹配目标错误
func (r *ProposalResult) Is(target error) bool {
	return r != nil && r.Reason != nil && errors.Is(r.Reason, target)
}

// Rejected 构造拒绝结果
func Rejected(reason error) *ProposalResult {
	return &ProposalResult{Outcome: OutcomeRejected, Reason: reason}
}

// Orphaned 构造孤块结果
func Orphaned(reason error) *ProposalResult {
	return &ProposalResult{Outcome: OutcomeOrphan, Reason: reason}
}

// RollbackResult 回滚的结果
type RollbackResult struct {
	// Records 追加的反向记录
	Records []ChangeRecord
	// FirstIndex 反向记录在日志中的起始序号
	FirstIndex uint64
	// Target 回滚目标序号（该链序号 >= Target 的记录被撤销）
	Target uint64
}
