// Package testutil 提供分叉选择测试使用的区块头链构造器
package testutil

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/weisyn/dualchain/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/dualchain/pkg/types"
)

// 参考链测试区块的起始时间（比特币创世区块时间戳）
const referenceEpoch = 1231006505

// ReferenceChild 在 parent 之上构造一个参考链区块头；parent 为 nil 时构造创世区块。
// nonce 用于区分同一父区块下的兄弟区块，work 为本区块新增的工作量。
func ReferenceChild(parent *types.ReferenceHeader, nonce uint32, work int64) *types.ReferenceHeader {
	var prev chainhash.Hash
	var height uint32
	total := big.NewInt(work)
	if parent != nil {
		copy(prev[:], parent.Hash)
		height = parent.Height + 1
		total.Add(total, parent.CumulativeWork())
	}

	merkle := chainhash.HashH(binary.BigEndian.AppendUint32(nil, nonce))
	hdr := wire.NewBlockHeader(1, &prev, &merkle, 0x1d00ffff, nonce)
	hdr.Timestamp = time.Unix(referenceEpoch+int64(height)*600, 0)

	var buf bytes.Buffer
	if err := hdr.Serialize(&buf); err != nil {
		panic(err)
	}
	h := &types.ReferenceHeader{Height: height, Work: total}
	copy(h.Raw[:], buf.Bytes())
	h.Hash = hash.ReferenceHasher{}.Digest(h.Raw[:])
	return h
}

// ReferenceBranch 在 parent 之上连续构造 n 个区块
func ReferenceBranch(parent *types.ReferenceHeader, n int, nonce uint32, work int64) []*types.ReferenceHeader {
	out := make([]*types.ReferenceHeader, 0, n)
	for i := 0; i < n; i++ {
		parent = ReferenceChild(parent, nonce+uint32(i), work)
		out = append(out, parent)
	}
	return out
}

// PrimaryChild 在 parent 之上构造一个主链区块头；proof 为嵌入的参考链区块（可为 nil）
func PrimaryChild(parent *types.PrimaryHeader, proof *types.ReferenceHeader, nonce uint32, work int64) *types.PrimaryHeader {
	fields := types.PrimaryRawFields{
		Version:   1,
		TxRoot:    chainhash.DoubleHashB(binary.BigEndian.AppendUint32(nil, nonce)),
		Timestamp: 1700000000 + nonce,
		Bits:      0x207fffff,
	}
	total := big.NewInt(work)
	if parent != nil {
		fields.Prev = parent.Hash
		fields.Timestamp = parent.Timestamp() + 60
		total.Add(total, parent.CumulativeWork())
	}
	if proof != nil {
		fields.ProofHash = proof.Hash
	}
	h := &types.PrimaryHeader{Raw: types.BuildPrimaryRaw(fields), Work: total}
	h.Hash = hash.PrimaryHasher{}.Digest(h.Raw[:])
	return h
}

// PrimaryBranch 在 parent 之上连续构造 n 个主链区块
func PrimaryBranch(parent *types.PrimaryHeader, n int, nonce uint32, work int64) []*types.PrimaryHeader {
	out := make([]*types.PrimaryHeader, 0, n)
	for i := 0; i < n; i++ {
		parent = PrimaryChild(parent, nil, nonce+uint32(i), work)
		out = append(out, parent)
	}
	return out
}
