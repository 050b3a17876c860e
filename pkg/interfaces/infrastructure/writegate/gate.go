// Package writegate 定义按作用域划分的写门闸接口。
//
// 作用域通常是链标识（如 "BTCR"、"PRIM"）：一条链的后端故障只冻结该链的写入，
// 另一条链与所有读操作不受影响。
//
// 优先级规则：RecoveryToken > ReadOnly > Normal
package writegate

import "context"

// WriteGate 写门闸
//
// 使用示例：
//
//	if err := gate.AssertWriteAllowed(ctx, "PRIM", "commit"); err != nil {
//	    return err
//	}
//
//	// 恢复流程中携带 recovery token 绕过只读
//	token, err := gate.EnableRecoveryMode("recover-pending-batch")
//	if err != nil {
//	    return err
//	}
//	defer gate.DisableRecoveryMode(token)
//	ctx = writegate.WithRecoveryToken(ctx, token)
type WriteGate interface {
	// EnterReadOnly 将作用域置为只读；重复调用保留首次原因
	EnterReadOnly(scope, reason string)

	// ExitReadOnly 解除作用域的只读状态
	ExitReadOnly(scope string)

	// IsReadOnly 作用域是否只读
	IsReadOnly(scope string) bool

	// ReadOnlyReason 作用域进入只读的原因；不在只读时返回空字符串
	ReadOnlyReason(scope string) string

	// ReadOnlyScopes 当前所有只读作用域（已排序）
	ReadOnlyScopes() []string

	// EnableRecoveryMode 开启恢复模式，返回恢复通行证
	//
	// 同一时刻只允许一个恢复流程；已开启时返回错误。
	EnableRecoveryMode(purpose string) (token string, err error)

	// DisableRecoveryMode 关闭恢复模式；token 不匹配时返回错误
	DisableRecoveryMode(token string) error

	// IsRecoveryMode 是否处于恢复模式
	IsRecoveryMode() bool

	// RecoveryPurpose 恢复模式的用途
	RecoveryPurpose() string

	// AssertWriteAllowed 校验作用域上的写操作是否允许
	//
	// 被阻止时返回的错误满足 errors.Is(err, types.ErrReadOnly)。
	AssertWriteAllowed(ctx context.Context, scope, operation string) error
}
