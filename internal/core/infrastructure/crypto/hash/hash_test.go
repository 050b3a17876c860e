package hash

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/dualchain/pkg/types"
	"golang.org/x/crypto/blake2b"
)

func TestReferenceHasherMatchesBitcoinGenesis(t *testing.T) {
	genesis := chaincfg.MainNetParams.GenesisBlock.Header

	raw := make([]byte, 0, wire.MaxBlockHeaderPayload)
	buf := &byteWriter{b: raw}
	require.NoError(t, genesis.Serialize(buf))
	require.Len(t, buf.b, types.ReferenceRawSize)

	digest := ReferenceHasher{}.Digest(buf.b)
	assert.Len(t, digest, ReferenceHasher{}.Size())
	assert.Equal(t, chaincfg.MainNetParams.GenesisHash[:], digest)
}

func TestPrimaryHasher(t *testing.T) {
	h := PrimaryHasher{}
	raw := make([]byte, types.PrimaryRawSize)
	raw[0] = 1

	digest := h.Digest(raw)
	require.Len(t, digest, types.PrimaryHashSize)

	expected, err := blake2b.New(24, nil)
	require.NoError(t, err)
	expected.Write(raw)
	assert.Equal(t, hex.EncodeToString(expected.Sum(nil)), hex.EncodeToString(digest))

	assert.Equal(t, digest, h.Digest(raw), "同一输入的摘要稳定")
	raw[1] = 1
	assert.NotEqual(t, digest, h.Digest(raw))
}

func TestForChain(t *testing.T) {
	ref, err := ForChain(types.ReferenceMagic)
	require.NoError(t, err)
	assert.Equal(t, 32, ref.Size())

	prim, err := ForChain(types.PrimaryMagic)
	require.NoError(t, err)
	assert.Equal(t, 24, prim.Size())

	_, err = ForChain(types.ChainMagic{'X', 'X', 'X', 'X'})
	assert.ErrorIs(t, err, types.ErrUnknownChain)
}

func TestConstantTimeCompare(t *testing.T) {
	assert.True(t, ConstantTimeCompare([]byte{1, 2}, []byte{1, 2}))
	assert.False(t, ConstantTimeCompare([]byte{1, 2}, []byte{1, 3}))
	assert.False(t, ConstantTimeCompare([]byte{1}, []byte{1, 2}))
}

type byteWriter struct{ b []byte }

func (w *byteWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
