// Package types 定义双链存储的核心数据类型（跨模块共享）。
//
// 📋 **双链模型**
//
// - 参考链（Reference Chain）：外部锚定链（比特币风格区块头），其区块以证明形式嵌入主链
// - 主链（Primary Chain）：本存储负责跟踪链尖的权威链
//
// 两条链的区块头都以"区块头 + 累积工作量"的固定长度记录保存，
// 所有写操作都以 ChangeRecord 形式写入变更日志，保证分叉切换可逆。
package types

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mr-tron/base58"
)

// ChainMagic 链标识（4 字节 ASCII），用于区分变更记录作用于哪条链的存储。
type ChainMagic [4]byte

var (
	// ReferenceMagic 参考链标识
	ReferenceMagic = ChainMagic{'B', 'T', 'C', 'R'}
	// PrimaryMagic 主链标识
	PrimaryMagic = ChainMagic{'P', 'R', 'I', 'M'}
)

// String 返回链标识的 ASCII 形式
func (m ChainMagic) String() string {
	return string(m[:])
}

// ParseChainMagic 解析链标识，支持 4 字节 ASCII 或别名 reference/primary
func ParseChainMagic(s string) (ChainMagic, error) {
	switch s {
	case "reference", "ref":
		return ReferenceMagic, nil
	case "primary", "prim":
		return PrimaryMagic, nil
	}
	if len(s) != 4 {
		return ChainMagic{}, fmt.Errorf("%w: 链标识必须为4字节: %q", ErrUnknownChain, s)
	}
	for i := 0; i < 4; i++ {
		if s[i] > 0x7f {
			return ChainMagic{}, fmt.Errorf("%w: 链标识必须为ASCII: %q", ErrUnknownChain, s)
		}
	}
	var m ChainMagic
	copy(m[:], s)
	return m, nil
}

// ChainKind 链类型
type ChainKind int

const (
	ChainKindUnknown ChainKind = iota
	ChainKindReference
	ChainKindPrimary
)

// KindOf 返回链标识对应的链类型
func KindOf(m ChainMagic) ChainKind {
	switch m {
	case ReferenceMagic:
		return ChainKindReference
	case PrimaryMagic:
		return ChainKindPrimary
	default:
		return ChainKindUnknown
	}
}

const (
	// ReferenceHashSize 参考链身份哈希长度（double-SHA256）
	ReferenceHashSize = chainhash.HashSize
	// PrimaryHashSize 主链身份哈希长度
	PrimaryHashSize = 24
)

// HashSizeOf 返回链的摘要长度；未知链返回 0
func HashSizeOf(m ChainMagic) int {
	switch KindOf(m) {
	case ChainKindReference:
		return ReferenceHashSize
	case ChainKindPrimary:
		return PrimaryHashSize
	default:
		return 0
	}
}

// FormatHash 按链的习惯格式化哈希用于展示：
// 参考链使用比特币的字节反序十六进制，主链使用 base58。
func FormatHash(m ChainMagic, hash []byte) string {
	if len(hash) == 0 {
		return "<nil>"
	}
	switch KindOf(m) {
	case ChainKindReference:
		if h, err := chainhash.NewHash(hash); err == nil {
			return h.String()
		}
	case ChainKindPrimary:
		return base58.Encode(hash)
	}
	return hex.EncodeToString(hash)
}

// IsZeroHash 判断哈希是否为空或全零（创世父哈希）
func IsZeroHash(hash []byte) bool {
	for _, b := range hash {
		if b != 0 {
			return false
		}
	}
	return true
}
