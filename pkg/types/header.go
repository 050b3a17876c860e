package types

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/wire"
)

// ============================================================================
//                              存储区块头
// ============================================================================

const (
	// ReferenceRawSize 参考链原始区块头长度（比特币区块头）
	ReferenceRawSize = wire.MaxBlockHeaderPayload
	// PrimaryRawSize 主链原始区块头长度
	PrimaryRawSize = 100

	// WorkSize 累积工作量的固定编码长度（无符号大端）
	WorkSize = 32
	// ReferenceReservedSize 参考链记录尾部保留字节，为格式演进预留空间
	ReferenceReservedSize = 12

	// ReferenceHeaderSize 参考链记录序列化长度（不含哈希）
	ReferenceHeaderSize = ReferenceRawSize + 4 + WorkSize + ReferenceReservedSize
	// PrimaryHeaderSize 主链记录序列化长度（不含哈希）
	PrimaryHeaderSize = PrimaryRawSize + WorkSize

	// MaxHeaderSize 两种记录中较大者，也是变更记录单侧值的上限
	MaxHeaderSize = PrimaryHeaderSize
)

// 主链原始区块头字段偏移：
// version(4) | prev(24) | txRoot(32) | proof(32) | timestamp(4) | bits(4)
const (
	primaryPrevOffset  = 4
	primaryRootOffset  = primaryPrevOffset + PrimaryHashSize
	primaryProofOffset = primaryRootOffset + 32
	primaryTimeOffset  = primaryProofOffset + ReferenceHashSize
	primaryBitsOffset  = primaryTimeOffset + 4
)

// StoredHeader 存储区块头（带累积工作量）的统一读接口
//
// 两个实现：ReferenceHeader / PrimaryHeader。
// 哈希是派生值，不参与相等性判断。
type StoredHeader interface {
	// Chain 区块头所属链
	Chain() ChainMagic
	// HashBytes 缓存的身份哈希（可能为空）
	HashBytes() []byte
	// CumulativeWork 从创世到该区块的累积工作量（nil 视为 0）
	CumulativeWork() *big.Int
	// ParentHash 从原始区块头解析出的父哈希
	ParentHash() []byte
	// SerializedSize 不含哈希的固定序列化长度
	SerializedSize() int
}

// ReferenceHeader 参考链存储区块头
type ReferenceHeader struct {
	Hash   []byte
	Raw    [ReferenceRawSize]byte
	Height uint32
	Work   *big.Int
}

var _ StoredHeader = (*ReferenceHeader)(nil)

func (h *ReferenceHeader) Chain() ChainMagic        { return ReferenceMagic }
func (h *ReferenceHeader) HashBytes() []byte        { return h.Hash }
func (h *ReferenceHeader) CumulativeWork() *big.Int { return workOrZero(h.Work) }
func (h *ReferenceHeader) SerializedSize() int      { return ReferenceHeaderSize }

// ParentHash 通过 btcd 的区块头解析获取 PrevBlock
func (h *ReferenceHeader) ParentHash() []byte {
	var hdr wire.BlockHeader
	if err := hdr.Deserialize(bytes.NewReader(h.Raw[:])); err != nil {
		return nil
	}
	return hdr.PrevBlock.CloneBytes()
}

// BlockHeader 返回解析后的 btcd 区块头
func (h *ReferenceHeader) BlockHeader() (*wire.BlockHeader, error) {
	var hdr wire.BlockHeader
	if err := hdr.Deserialize(bytes.NewReader(h.Raw[:])); err != nil {
		return nil, err
	}
	return &hdr, nil
}

// PrimaryHeader 主链存储区块头
type PrimaryHeader struct {
	Hash []byte
	Raw  [PrimaryRawSize]byte
	Work *big.Int
}

var _ StoredHeader = (*PrimaryHeader)(nil)

func (h *PrimaryHeader) Chain() ChainMagic        { return PrimaryMagic }
func (h *PrimaryHeader) HashBytes() []byte        { return h.Hash }
func (h *PrimaryHeader) CumulativeWork() *big.Int { return workOrZero(h.Work) }
func (h *PrimaryHeader) SerializedSize() int      { return PrimaryHeaderSize }

// Version 区块头版本
func (h *PrimaryHeader) Version() uint32 {
	return binary.BigEndian.Uint32(h.Raw[:primaryPrevOffset])
}

// ParentHash 主链父哈希（24 字节）
func (h *PrimaryHeader) ParentHash() []byte {
	return bytes.Clone(h.Raw[primaryPrevOffset:primaryRootOffset])
}

// ProofHash 嵌入的参考链区块哈希
func (h *PrimaryHeader) ProofHash() []byte {
	return bytes.Clone(h.Raw[primaryProofOffset:primaryTimeOffset])
}

// Timestamp 区块时间戳（秒）
func (h *PrimaryHeader) Timestamp() uint32 {
	return binary.BigEndian.Uint32(h.Raw[primaryTimeOffset:primaryBitsOffset])
}

// Bits 紧凑难度目标
func (h *PrimaryHeader) Bits() uint32 {
	return binary.BigEndian.Uint32(h.Raw[primaryBitsOffset:])
}

// PrimaryRawFields 主链原始区块头的构造字段
type PrimaryRawFields struct {
	Version   uint32
	Prev      []byte
	TxRoot    []byte
	ProofHash []byte
	Timestamp uint32
	Bits      uint32
}

// BuildPrimaryRaw 按固定布局拼装主链原始区块头；过长的字段会被截断
func BuildPrimaryRaw(f PrimaryRawFields) [PrimaryRawSize]byte {
	var raw [PrimaryRawSize]byte
	binary.BigEndian.PutUint32(raw[:primaryPrevOffset], f.Version)
	copy(raw[primaryPrevOffset:primaryRootOffset], f.Prev)
	copy(raw[primaryRootOffset:primaryProofOffset], f.TxRoot)
	copy(raw[primaryProofOffset:primaryTimeOffset], f.ProofHash)
	binary.BigEndian.PutUint32(raw[primaryTimeOffset:primaryBitsOffset], f.Timestamp)
	binary.BigEndian.PutUint32(raw[primaryBitsOffset:], f.Bits)
	return raw
}

// HeadersEqual 比较两个区块头的非哈希字段（等价于比较其序列化结果）
func HeadersEqual(a, b StoredHeader) bool {
	if a == nil || b == nil {
		return IsNilHeader(a) && IsNilHeader(b)
	}
	switch x := a.(type) {
	case *ReferenceHeader:
		y, ok := b.(*ReferenceHeader)
		if !ok || x == nil || y == nil {
			return ok && x == nil && y == nil
		}
		return x.Raw == y.Raw && x.Height == y.Height && x.CumulativeWork().Cmp(y.CumulativeWork()) == 0
	case *PrimaryHeader:
		y, ok := b.(*PrimaryHeader)
		if !ok || x == nil || y == nil {
			return ok && x == nil && y == nil
		}
		return x.Raw == y.Raw && x.CumulativeWork().Cmp(y.CumulativeWork()) == 0
	default:
		return false
	}
}

// CompareWork 比较两个区块头的累积工作量：1 表示 a 更大，0 相等，-1 表示 b 更大
func CompareWork(a, b StoredHeader) int {
	return workOf(a).Cmp(workOf(b))
}

func workOf(h StoredHeader) *big.Int {
	if IsNilHeader(h) {
		return new(big.Int)
	}
	return h.CumulativeWork()
}

func workOrZero(w *big.Int) *big.Int {
	if w == nil {
		return new(big.Int)
	}
	return w
}

// IsNilHeader 判断接口值是否为 nil 或持有 nil 指针
func IsNilHeader(h StoredHeader) bool {
	switch x := h.(type) {
	case nil:
		return true
	case *ReferenceHeader:
		return x == nil
	case *PrimaryHeader:
		return x == nil
	default:
		return false
	}
}
