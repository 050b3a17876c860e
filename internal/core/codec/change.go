package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              变更记录布局
// ============================================================================

// magic(4) | op u16 | L u16 | old(L) | new(L)
const (
	// ChangeHeaderSize 变更记录固定头部长度
	ChangeHeaderSize = 8
	// MaxChangeSize 单条变更记录的最大编码长度 8 + 2*132
	MaxChangeSize = ChangeHeaderSize + 2*types.MaxChangeValueSize
)

// EncodedChangeSize 记录编码后的长度
func EncodedChangeSize(rec types.ChangeRecord) int {
	return ChangeHeaderSize + 2*len(rec.OldValue())
}

// EncodeChange 编码变更记录，输出恒为 8+2L 字节
//
// 类型化生产者与 ReadOnlyChange 使用同一布局；长度不变量在这里再校验一次，
// 防止实现了 ChangeRecord 的外部类型绕过构造期检查。
func EncodeChange(rec types.ChangeRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", types.ErrMalformedRecord)
	}
	oldValue, newValue := rec.OldValue(), rec.NewValue()
	if len(oldValue) != len(newValue) {
		return nil, fmt.Errorf("%w: old=%d new=%d", types.ErrLengthMismatch, len(oldValue), len(newValue))
	}
	if len(oldValue) > types.MaxChangeValueSize {
		return nil, fmt.Errorf("%w: got %d", types.ErrValueTooLarge, len(oldValue))
	}
	if _, ok := types.OperationOf(types.CodeOf(rec.Operation())); !ok {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownOperation, uint16(rec.Operation()))
	}

	l := len(oldValue)
	buf := make([]byte, ChangeHeaderSize+2*l)
	magic := rec.ChainIdentifier()
	copy(buf[0:4], magic[:])
	binary.BigEndian.PutUint16(buf[4:6], types.CodeOf(rec.Operation()))
	binary.BigEndian.PutUint16(buf[6:8], uint16(l))
	copy(buf[ChangeHeaderSize:], oldValue)
	copy(buf[ChangeHeaderSize+l:], newValue)
	return buf, nil
}

// DecodeChange 从 buf 头部解码一条变更记录，返回记录与消耗的字节数。
//
// 失败时记录为 nil：
//   - 不足 8 字节：ErrMalformedRecord
//   - 操作码未注册：ErrUnknownOperation（注册表未命中即视为损坏）
//   - L 超过 132 或数据不足 8+2L：ErrMalformedRecord
func DecodeChange(buf []byte) (*types.ReadOnlyChange, int, error) {
	if len(buf) < ChangeHeaderSize {
		return nil, 0, fmt.Errorf("%w: need %d header bytes, got %d", types.ErrMalformedRecord, ChangeHeaderSize, len(buf))
	}
	var magic types.ChainMagic
	copy(magic[:], buf[0:4])

	code := binary.BigEndian.Uint16(buf[4:6])
	op, ok := types.OperationOf(code)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", types.ErrUnknownOperation, code)
	}

	l := int(binary.BigEndian.Uint16(buf[6:8]))
	if l > types.MaxChangeValueSize {
		return nil, 0, fmt.Errorf("%w: value length %d exceeds %d", types.ErrMalformedRecord, l, types.MaxChangeValueSize)
	}
	total := ChangeHeaderSize + 2*l
	if len(buf) < total {
		return nil, 0, fmt.Errorf("%w: need %d bytes, got %d", types.ErrMalformedRecord, total, len(buf))
	}

	rec, err := types.NewReadOnlyChange(magic, op, buf[ChangeHeaderSize:ChangeHeaderSize+l], buf[ChangeHeaderSize+l:total])
	if err != nil {
		return nil, 0, err
	}
	return rec, total, nil
}

// ScanChanges 顺序遍历拼接的记录流，对每条记录调用 fn。
//
// 遇到第一条损坏记录即停止并返回错误（包含其偏移），由调用方决定跳过或中止；
// fn 返回错误同样终止遍历。返回值 n 为已成功处理的记录数。
func ScanChanges(buf []byte, fn func(rec *types.ReadOnlyChange) error) (n int, err error) {
	offset := 0
	for offset < len(buf) {
		rec, consumed, err := DecodeChange(buf[offset:])
		if err != nil {
			return n, fmt.Errorf("offset %d: %w", offset, err)
		}
		if err := fn(rec); err != nil {
			return n, err
		}
		offset += consumed
		n++
	}
	return n, nil
}
