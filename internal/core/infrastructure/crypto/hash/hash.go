// Package hash 提供两条链的区块头身份哈希实现
package hash

import (
	"crypto/subtle"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	cryptointf "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/dualchain/pkg/types"
	"golang.org/x/crypto/blake2b"
)

var (
	_ cryptointf.Hasher = ReferenceHasher{}
	_ cryptointf.Hasher = PrimaryHasher{}
)

// ReferenceHasher 参考链哈希：双重SHA-256（32 字节，比特币区块头规则）
type ReferenceHasher struct{}

// Digest 计算双重SHA-256
func (ReferenceHasher) Digest(data []byte) []byte {
	return chainhash.DoubleHashB(data)
}

// Size 32
func (ReferenceHasher) Size() int { return types.ReferenceHashSize }

// PrimaryHasher 主链哈希：BLAKE2b 截为 24 字节输出
type PrimaryHasher struct{}

// Digest 计算 24 字节 BLAKE2b 摘要
func (PrimaryHasher) Digest(data []byte) []byte {
	h, err := blake2b.New(types.PrimaryHashSize, nil)
	if err != nil {
		// 输出长度为常量且在 1..64 范围内，不会失败
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

// Size 24
func (PrimaryHasher) Size() int { return types.PrimaryHashSize }

// ForChain 返回链标识对应的哈希实现
func ForChain(magic types.ChainMagic) (cryptointf.Hasher, error) {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		return ReferenceHasher{}, nil
	case types.ChainKindPrimary:
		return PrimaryHasher{}, nil
	default:
		return nil, types.ErrUnknownChain
	}
}

// ConstantTimeCompare 常量时间比较两个哈希
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
