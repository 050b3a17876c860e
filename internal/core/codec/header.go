// Package codec 实现区块头与变更记录的固定布局二进制编解码。
//
// 所有整数均为大端；布局长度是常量，编码结果可直接作为存储值或日志条目。
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              区块头布局
// ============================================================================

// 参考链：raw(80) | height u32 (4) | work (32) | reserved (12)  = 128
// 主链  ：raw(100) | work (32)                                   = 132
const (
	referenceHeightOffset = types.ReferenceRawSize
	referenceWorkOffset   = referenceHeightOffset + 4
	referenceResOffset    = referenceWorkOffset + types.WorkSize

	primaryWorkOffset = types.PrimaryRawSize
)

// maxWork 32 字节可表示的最大工作量 2^256-1
var maxWork = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), types.WorkSize*8), big.NewInt(1))

// putWork 以 32 字节无符号大端写入工作量
func putWork(dst []byte, work *big.Int) error {
	if work == nil {
		return nil
	}
	if work.Sign() < 0 {
		return fmt.Errorf("%w: negative work", types.ErrMalformedHeader)
	}
	if work.Cmp(maxWork) > 0 {
		return fmt.Errorf("%w: work exceeds %d bytes", types.ErrMalformedHeader, types.WorkSize)
	}
	work.FillBytes(dst[:types.WorkSize])
	return nil
}

// EncodeReference 编码参考链区块头（不含哈希），输出恒为 128 字节
func EncodeReference(h *types.ReferenceHeader) ([]byte, error) {
	buf := make([]byte, types.ReferenceHeaderSize)
	if h == nil {
		return buf, nil
	}
	copy(buf, h.Raw[:])
	binary.BigEndian.PutUint32(buf[referenceHeightOffset:referenceWorkOffset], h.Height)
	if err := putWork(buf[referenceWorkOffset:referenceResOffset], h.Work); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeReference 解码参考链区块头；输入不足 128 字节返回 ErrMalformedHeader。
// 多余的尾部字节被忽略，解码结果的 Hash 为空。
func DecodeReference(buf []byte) (*types.ReferenceHeader, error) {
	if len(buf) < types.ReferenceHeaderSize {
		return nil, fmt.Errorf("%w: reference header needs %d bytes, got %d",
			types.ErrMalformedHeader, types.ReferenceHeaderSize, len(buf))
	}
	h := &types.ReferenceHeader{
		Height: binary.BigEndian.Uint32(buf[referenceHeightOffset:referenceWorkOffset]),
		Work:   new(big.Int).SetBytes(buf[referenceWorkOffset:referenceResOffset]),
	}
	copy(h.Raw[:], buf[:types.ReferenceRawSize])
	return h, nil
}

// EncodePrimary 编码主链区块头（不含哈希），输出恒为 132 字节
func EncodePrimary(h *types.PrimaryHeader) ([]byte, error) {
	buf := make([]byte, types.PrimaryHeaderSize)
	if h == nil {
		return buf, nil
	}
	copy(buf, h.Raw[:])
	if err := putWork(buf[primaryWorkOffset:], h.Work); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodePrimary 解码主链区块头
func DecodePrimary(buf []byte) (*types.PrimaryHeader, error) {
	if len(buf) < types.PrimaryHeaderSize {
		return nil, fmt.Errorf("%w: primary header needs %d bytes, got %d",
			types.ErrMalformedHeader, types.PrimaryHeaderSize, len(buf))
	}
	h := &types.PrimaryHeader{
		Work: new(big.Int).SetBytes(buf[primaryWorkOffset:types.PrimaryHeaderSize]),
	}
	copy(h.Raw[:], buf[:types.PrimaryRawSize])
	return h, nil
}

// ============================================================================
//                              带哈希前缀的形式
// ============================================================================

// EncodeReferenceWithHash 编码为 hash(32) | header(128)
func EncodeReferenceWithHash(h *types.ReferenceHeader) ([]byte, error) {
	if h == nil || len(h.Hash) != types.ReferenceHashSize {
		return nil, fmt.Errorf("%w: reference hash must be %d bytes", types.ErrMalformedHeader, types.ReferenceHashSize)
	}
	body, err := EncodeReference(h)
	if err != nil {
		return nil, err
	}
	return append(bytes.Clone(h.Hash), body...), nil
}

// DecodeReferenceWithHash 解码 hash(32) | header(128)
func DecodeReferenceWithHash(buf []byte) (*types.ReferenceHeader, error) {
	if len(buf) < types.ReferenceHashSize+types.ReferenceHeaderSize {
		return nil, fmt.Errorf("%w: hash-prefixed reference header needs %d bytes, got %d",
			types.ErrMalformedHeader, types.ReferenceHashSize+types.ReferenceHeaderSize, len(buf))
	}
	h, err := DecodeReference(buf[types.ReferenceHashSize:])
	if err != nil {
		return nil, err
	}
	h.Hash = bytes.Clone(buf[:types.ReferenceHashSize])
	return h, nil
}

// EncodePrimaryWithHash 编码为 hash(24) | header(132)
func EncodePrimaryWithHash(h *types.PrimaryHeader) ([]byte, error) {
	if h == nil || len(h.Hash) != types.PrimaryHashSize {
		return nil, fmt.Errorf("%w: primary hash must be %d bytes", types.ErrMalformedHeader, types.PrimaryHashSize)
	}
	body, err := EncodePrimary(h)
	if err != nil {
		return nil, err
	}
	return append(bytes.Clone(h.Hash), body...), nil
}

// DecodePrimaryWithHash 解码 hash(24) | header(132)
func DecodePrimaryWithHash(buf []byte) (*types.PrimaryHeader, error) {
	if len(buf) < types.PrimaryHashSize+types.PrimaryHeaderSize {
		return nil, fmt.Errorf("%w: hash-prefixed primary header needs %d bytes, got %d",
			types.ErrMalformedHeader, types.PrimaryHashSize+types.PrimaryHeaderSize, len(buf))
	}
	h, err := DecodePrimary(buf[types.PrimaryHashSize:])
	if err != nil {
		return nil, err
	}
	h.Hash = bytes.Clone(buf[:types.PrimaryHashSize])
	return h, nil
}

// ============================================================================
//                              按链分派
// ============================================================================

// HeaderSize 链的区块头序列化长度（不含哈希）；未知链返回 0
func HeaderSize(magic types.ChainMagic) int {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		return types.ReferenceHeaderSize
	case types.ChainKindPrimary:
		return types.PrimaryHeaderSize
	default:
		return 0
	}
}

// EncodeHeader 编码区块头（不含哈希）；nil 编码为全零缺失快照
func EncodeHeader(magic types.ChainMagic, h types.StoredHeader) ([]byte, error) {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		if types.IsNilHeader(h) {
			return EncodeReference(nil)
		}
		ref, ok := h.(*types.ReferenceHeader)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a reference header", types.ErrMalformedHeader, h)
		}
		return EncodeReference(ref)
	case types.ChainKindPrimary:
		if types.IsNilHeader(h) {
			return EncodePrimary(nil)
		}
		prim, ok := h.(*types.PrimaryHeader)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a primary header", types.ErrMalformedHeader, h)
		}
		return EncodePrimary(prim)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
}

// DecodeHeader 解码区块头（不含哈希）
func DecodeHeader(magic types.ChainMagic, buf []byte) (types.StoredHeader, error) {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		h, err := DecodeReference(buf)
		if err != nil {
			return nil, err
		}
		return h, nil
	case types.ChainKindPrimary:
		h, err := DecodePrimary(buf)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
}

// EncodeHeaderWithHash 编码带哈希前缀的区块头
func EncodeHeaderWithHash(magic types.ChainMagic, h types.StoredHeader) ([]byte, error) {
	switch x := h.(type) {
	case *types.ReferenceHeader:
		if types.KindOf(magic) != types.ChainKindReference {
			return nil, fmt.Errorf("%w: reference header on chain %s", types.ErrMalformedHeader, magic)
		}
		return EncodeReferenceWithHash(x)
	case *types.PrimaryHeader:
		if types.KindOf(magic) != types.ChainKindPrimary {
			return nil, fmt.Errorf("%w: primary header on chain %s", types.ErrMalformedHeader, magic)
		}
		return EncodePrimaryWithHash(x)
	default:
		return nil, fmt.Errorf("%w: unsupported header %T", types.ErrMalformedHeader, h)
	}
}

// DecodeHeaderWithHash 解码带哈希前缀的区块头
func DecodeHeaderWithHash(magic types.ChainMagic, buf []byte) (types.StoredHeader, error) {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		h, err := DecodeReferenceWithHash(buf)
		if err != nil {
			return nil, err
		}
		return h, nil
	case types.ChainKindPrimary:
		h, err := DecodePrimaryWithHash(buf)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
}
