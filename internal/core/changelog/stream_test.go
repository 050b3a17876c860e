package changelog

import (
	"bytes"
	"context"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/dualchain/pkg/types"
)

func TestExportAndReadAll(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	records := []types.ChangeRecord{
		record(t, types.OpAddBlock, 0, 1),
		record(t, types.OpAddBlock, 0, 2),
		record(t, types.OpSetHead, 1, 2),
	}
	_, err := l.Append(ctx, records)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Export(ctx, l, 0, 10, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range records {
		assert.True(t, types.ChangesEqual(records[i], got[i]))
		assert.Equal(t, records[i].Operation(), got[i].Operation())
	}
}

func TestEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)
	require.NoError(t, sw.Close())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	// 头部声明 L=4，但内容只有 3 字节
	_, err := w.Write([]byte{'P', 'R', 'I', 'M', 0, 1, 0, 4, 1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = ReadAll(&buf)
	assert.ErrorIs(t, err, types.ErrMalformedRecord)
}
