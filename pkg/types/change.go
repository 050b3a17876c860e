package types

import (
	"bytes"
	"fmt"
)

// ============================================================================
//                              变更记录模型
// ============================================================================

// MaxChangeValueSize 变更记录单侧值的最大长度
const MaxChangeValueSize = MaxHeaderSize

// ChangeRecord 区块存储的一次变更（审计/撤销日志的条目）
//
// 两类实现共享同一读契约：
//   - 类型化生产者：链标识与操作固化在类型里（构造后即知）
//   - ReadOnlyChange：链标识与操作以字段显式携带（解码得到）
//
// 实现必须不可变；OldValue/NewValue 返回副本。
type ChangeRecord interface {
	ChainIdentifier() ChainMagic
	Operation() Operation
	OldValue() []byte
	NewValue() []byte
}

// ReadOnlyChange 显式携带 (链标识, 操作) 的变更记录
type ReadOnlyChange struct {
	chain    ChainMagic
	op       Operation
	oldValue []byte
	newValue []byte
}

var _ ChangeRecord = (*ReadOnlyChange)(nil)

// NewReadOnlyChange 构造只读变更记录，在构造时校验长度不变量：
// len(old) == len(new) 且不超过 MaxChangeValueSize。
func NewReadOnlyChange(chain ChainMagic, op Operation, oldValue, newValue []byte) (*ReadOnlyChange, error) {
	if len(oldValue) != len(newValue) {
		return nil, fmt.Errorf("%w: old=%d new=%d", ErrLengthMismatch, len(oldValue), len(newValue))
	}
	if len(oldValue) > MaxChangeValueSize {
		return nil, fmt.Errorf("%w: got %d", ErrValueTooLarge, len(oldValue))
	}
	if _, ok := OperationOf(CodeOf(op)); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, uint16(op))
	}
	return &ReadOnlyChange{
		chain:    chain,
		op:       op,
		oldValue: bytes.Clone(oldValue),
		newValue: bytes.Clone(newValue),
	}, nil
}

func (c *ReadOnlyChange) ChainIdentifier() ChainMagic { return c.chain }
func (c *ReadOnlyChange) Operation() Operation        { return c.op }
func (c *ReadOnlyChange) OldValue() []byte            { return bytes.Clone(c.oldValue) }
func (c *ReadOnlyChange) NewValue() []byte            { return bytes.Clone(c.newValue) }

// Equal 仅比较新旧值字节（链标识与操作不参与比较）
func (c *ReadOnlyChange) Equal(other ChangeRecord) bool {
	return ChangesEqual(c, other)
}

func (c *ReadOnlyChange) String() string {
	return fmt.Sprintf("%s/%s len=%d", c.chain, c.op, len(c.oldValue))
}

// ChangesEqual 比较两条变更记录的新旧值字节。
//
// 链标识与操作不参与比较：作用于不同链、不同操作但快照相同的两条记录判定为相等。
func ChangesEqual(a, b ChangeRecord) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return bytes.Equal(a.OldValue(), b.OldValue()) && bytes.Equal(a.NewValue(), b.NewValue())
}

// Invert 返回交换新旧值后的记录，用于回滚
func Invert(rec ChangeRecord) *ReadOnlyChange {
	return &ReadOnlyChange{
		chain:    rec.ChainIdentifier(),
		op:       rec.Operation(),
		oldValue: bytes.Clone(rec.NewValue()),
		newValue: bytes.Clone(rec.OldValue()),
	}
}

// ToReadOnly 将任意变更记录转换为只读形式
func ToReadOnly(rec ChangeRecord) *ReadOnlyChange {
	if ro, ok := rec.(*ReadOnlyChange); ok {
		return ro
	}
	return &ReadOnlyChange{
		chain:    rec.ChainIdentifier(),
		op:       rec.Operation(),
		oldValue: bytes.Clone(rec.OldValue()),
		newValue: bytes.Clone(rec.NewValue()),
	}
}

// ============================================================================
//                              缺失快照
// ============================================================================

// AbsentSnapshot 返回指定长度的全零快照，表示"该侧不存在区块头"
func AbsentSnapshot(size int) []byte {
	return make([]byte, size)
}

// IsAbsent 判断快照是否为缺失（空或全零）
func IsAbsent(value []byte) bool {
	return IsZeroHash(value)
}
