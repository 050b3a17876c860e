package codec

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/dualchain/pkg/types"
)

func sampleReference(t *testing.T, height uint32, work int64) *types.ReferenceHeader {
	t.Helper()
	hdr := wire.NewBlockHeader(2, &chainhash.Hash{0x01, byte(height)}, &chainhash.Hash{0x02}, 0x1d00ffff, height)
	hdr.Timestamp = time.Unix(1231006505+int64(height)*600, 0)

	var buf bytes.Buffer
	require.NoError(t, hdr.Serialize(&buf))

	h := &types.ReferenceHeader{Height: height, Work: big.NewInt(work)}
	copy(h.Raw[:], buf.Bytes())
	blockHash := hdr.BlockHash()
	h.Hash = blockHash.CloneBytes()
	return h
}

func samplePrimary(work int64) *types.PrimaryHeader {
	prev := bytes.Repeat([]byte{0xaa}, types.PrimaryHashSize)
	return &types.PrimaryHeader{
		Hash: bytes.Repeat([]byte{0xbb}, types.PrimaryHashSize),
		Raw: types.BuildPrimaryRaw(types.PrimaryRawFields{
			Version:   1,
			Prev:      prev,
			TxRoot:    bytes.Repeat([]byte{0xcc}, 32),
			ProofHash: bytes.Repeat([]byte{0xdd}, 32),
			Timestamp: 1700000000,
			Bits:      0x207fffff,
		}),
		Work: big.NewInt(work),
	}
}

func TestReferenceRoundTrip(t *testing.T) {
	h := sampleReference(t, 7, 123456)

	buf, err := EncodeReference(h)
	require.NoError(t, err)
	require.Len(t, buf, types.ReferenceHeaderSize)
	assert.Equal(t, make([]byte, types.ReferenceReservedSize), buf[referenceResOffset:], "保留字节为零")

	got, err := DecodeReference(buf)
	require.NoError(t, err)
	assert.True(t, types.HeadersEqual(h, got))
	assert.Empty(t, got.Hash, "不含哈希的解码结果没有哈希")
	assert.Equal(t, h.ParentHash(), got.ParentHash())

	withHash, err := EncodeReferenceWithHash(h)
	require.NoError(t, err)
	require.Len(t, withHash, types.ReferenceHashSize+types.ReferenceHeaderSize)

	got, err = DecodeReferenceWithHash(withHash)
	require.NoError(t, err)
	assert.Equal(t, h.Hash, got.Hash)
	assert.True(t, types.HeadersEqual(h, got))
}

func TestPrimaryRoundTrip(t *testing.T) {
	h := samplePrimary(99)

	buf, err := EncodePrimary(h)
	require.NoError(t, err)
	require.Len(t, buf, types.PrimaryHeaderSize)

	got, err := DecodePrimary(buf)
	require.NoError(t, err)
	assert.True(t, types.HeadersEqual(h, got))
	assert.Equal(t, uint32(1), got.Version())
	assert.Equal(t, uint32(1700000000), got.Timestamp())
	assert.Equal(t, uint32(0x207fffff), got.Bits())
	assert.Equal(t, bytes.Repeat([]byte{0xdd}, 32), got.ProofHash())

	withHash, err := EncodePrimaryWithHash(h)
	require.NoError(t, err)
	require.Len(t, withHash, types.PrimaryHashSize+types.PrimaryHeaderSize)

	decoded, err := DecodeHeaderWithHash(types.PrimaryMagic, withHash)
	require.NoError(t, err)
	assert.Equal(t, h.Hash, decoded.HashBytes())
}

func TestDecodeShortInput(t *testing.T) {
	cases := []struct {
		name string
		fn   func() error
	}{
		{"reference", func() error { _, err := DecodeReference(make([]byte, types.ReferenceHeaderSize-1)); return err }},
		{"primary", func() error { _, err := DecodePrimary(make([]byte, types.PrimaryHeaderSize-1)); return err }},
		{"reference with hash", func() error { _, err := DecodeReferenceWithHash(make([]byte, 159)); return err }},
		{"primary with hash", func() error { _, err := DecodePrimaryWithHash(make([]byte, 155)); return err }},
		{"dispatch", func() error { _, err := DecodeHeader(types.PrimaryMagic, nil); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.fn(), types.ErrMalformedHeader)
		})
	}
}

func TestDecodeHeaderDoesNotReturnTypedNil(t *testing.T) {
	h, err := DecodeHeader(types.ReferenceMagic, []byte{1})
	require.Error(t, err)
	assert.Nil(t, h)
}

func TestWorkBounds(t *testing.T) {
	h := samplePrimary(0)

	h.Work = new(big.Int).Set(maxWork)
	buf, err := EncodePrimary(h)
	require.NoError(t, err)
	got, err := DecodePrimary(buf)
	require.NoError(t, err)
	assert.Zero(t, got.Work.Cmp(maxWork))

	h.Work = new(big.Int).Add(maxWork, big.NewInt(1))
	_, err = EncodePrimary(h)
	assert.ErrorIs(t, err, types.ErrMalformedHeader)

	h.Work = big.NewInt(-1)
	_, err = EncodePrimary(h)
	assert.ErrorIs(t, err, types.ErrMalformedHeader)
}

func TestNilHeaderIsAbsentSnapshot(t *testing.T) {
	buf, err := EncodeHeader(types.ReferenceMagic, nil)
	require.NoError(t, err)
	assert.Len(t, buf, types.ReferenceHeaderSize)
	assert.True(t, types.IsAbsent(buf))

	var typedNil *types.PrimaryHeader
	buf, err = EncodeHeader(types.PrimaryMagic, typedNil)
	require.NoError(t, err)
	assert.Len(t, buf, types.PrimaryHeaderSize)
	assert.True(t, types.IsAbsent(buf))
}

func TestEncodeHeaderChainMismatch(t *testing.T) {
	_, err := EncodeHeader(types.ReferenceMagic, samplePrimary(1))
	assert.ErrorIs(t, err, types.ErrMalformedHeader)

	_, err = EncodeHeader(types.ChainMagic{'N', 'O', 'N', 'E'}, samplePrimary(1))
	assert.ErrorIs(t, err, types.ErrUnknownChain)

	assert.Equal(t, 0, HeaderSize(types.ChainMagic{}))
}

func TestHeadersEqualIgnoresHash(t *testing.T) {
	a := samplePrimary(5)
	b := samplePrimary(5)
	b.Hash = bytes.Repeat([]byte{0x01}, types.PrimaryHashSize)
	assert.True(t, types.HeadersEqual(a, b))

	b.Work = big.NewInt(6)
	assert.False(t, types.HeadersEqual(a, b))
}
