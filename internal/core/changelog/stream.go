package changelog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/weisyn/dualchain/internal/core/codec"
	"github.com/weisyn/dualchain/pkg/interfaces/persistence"
	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              复制流
// ============================================================================

// StreamWriter 将变更记录以 snappy 分帧格式写出（记录按编码格式首尾相接）
type StreamWriter struct {
	w     *snappy.Writer
	count int
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: snappy.NewBufferedWriter(w)}
}

// Write 写出一条记录
func (sw *StreamWriter) Write(rec types.ChangeRecord) error {
	buf, err := codec.EncodeChange(rec)
	if err != nil {
		return err
	}
	if _, err := sw.w.Write(buf); err != nil {
		return fmt.Errorf("写入复制流失败: %w", err)
	}
	sw.count++
	return nil
}

// Count 已写出的记录数
func (sw *StreamWriter) Count() int { return sw.count }

// Close 刷新缓冲；不关闭底层 writer
func (sw *StreamWriter) Close() error {
	return sw.w.Close()
}

// StreamReader 读取 StreamWriter 写出的流
type StreamReader struct {
	r   *snappy.Reader
	buf [codec.MaxChangeSize]byte
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: snappy.NewReader(r)}
}

// Next 读取下一条记录；流结束返回 io.EOF，记录被截断返回 ErrMalformedRecord
func (sr *StreamReader) Next() (*types.ReadOnlyChange, error) {
	head := sr.buf[:codec.ChangeHeaderSize]
	if _, err := io.ReadFull(sr.r, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: 复制流在记录头部截断", types.ErrMalformedRecord)
		}
		return nil, err
	}
	l := int(binary.BigEndian.Uint16(head[6:8]))
	if l > types.MaxChangeValueSize {
		return nil, fmt.Errorf("%w: 值长度 %d 超过 %d", types.ErrMalformedRecord, l, types.MaxChangeValueSize)
	}
	body := sr.buf[codec.ChangeHeaderSize : codec.ChangeHeaderSize+2*l]
	if _, err := io.ReadFull(sr.r, body); err != nil {
		return nil, fmt.Errorf("%w: 复制流在记录内容截断: %v", types.ErrMalformedRecord, err)
	}
	rec, _, err := codec.DecodeChange(sr.buf[:codec.ChangeHeaderSize+2*l])
	return rec, err
}

// Export 将日志区间 [from, to) 写入 w，返回写出的记录数
func Export(ctx context.Context, log persistence.ChangeLog, from, to uint64, w io.Writer) (int, error) {
	sw := NewStreamWriter(w)
	err := log.Range(ctx, from, to, func(_ uint64, rec *types.ReadOnlyChange) error {
		return sw.Write(rec)
	})
	if err != nil {
		return sw.Count(), err
	}
	return sw.Count(), sw.Close()
}

// ReadAll 读取整个复制流
func ReadAll(r io.Reader) ([]*types.ReadOnlyChange, error) {
	sr := NewStreamReader(r)
	var out []*types.ReadOnlyChange
	for {
		rec, err := sr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
