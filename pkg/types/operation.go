package types

import "fmt"

// Operation 区块存储变更的操作类型
//
// 编码值形似位标志（1/2/4），但每条变更记录只携带一个操作，
// 这里按封闭的标签集合处理，不支持组合。
type Operation uint16

const (
	// OpAddBlock 区块进入（或离开）活跃链
	OpAddBlock Operation = 1
	// OpSetHead 链头切换
	OpSetHead Operation = 2
	// OpSetProof 主链嵌入证明指针切换
	OpSetProof Operation = 4
)

// operations 注册表，按声明顺序查找
var operations = []Operation{OpAddBlock, OpSetHead, OpSetProof}

// CodeOf 返回操作的稳定数值编码
func CodeOf(op Operation) uint16 {
	return uint16(op)
}

// OperationOf 按编码查找操作；返回第一个编码相等的注册成员。
// 未命中返回 false，调用方必须将其视为数据损坏。
func OperationOf(code uint16) (Operation, bool) {
	for _, op := range operations {
		if CodeOf(op) == code {
			return op, true
		}
	}
	return 0, false
}

// Operations 返回全部已注册操作（副本）
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

func (op Operation) String() string {
	switch op {
	case OpAddBlock:
		return "ADD_BLOCK"
	case OpSetHead:
		return "SET_HEAD"
	case OpSetProof:
		return "SET_PROOF"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(op))
	}
}
