// Package changelog 实现基于 BadgerDB 的只追加变更日志。
//
// 🗂️ **键空间**
//
//	changelog/seq/<u64 BE>        编码后的变更记录
//	changelog/meta/len            日志长度
//	changelog/meta/applied        已应用水位
//	changelog/checkpoint/<name>   命名检查点 → 日志序号
//
// 序号采用大端编码，前缀扫描即按序号有序。
package changelog

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/weisyn/dualchain/internal/core/codec"
	corelog "github.com/weisyn/dualchain/internal/core/infrastructure/log"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/dualchain/pkg/interfaces/persistence"
	"github.com/weisyn/dualchain/pkg/types"
)

var (
	seqPrefix        = []byte("changelog/seq/")
	lenKey           = []byte("changelog/meta/len")
	appliedKey       = []byte("changelog/meta/applied")
	checkpointPrefix = []byte("changelog/checkpoint/")
)

// Log 变更日志
type Log struct {
	store  storage.BadgerStore
	logger log.Logger
}

var _ persistence.ChangeLog = (*Log)(nil)

// New 创建变更日志
func New(store storage.BadgerStore, logger log.Logger) (*Log, error) {
	if store == nil {
		return nil, fmt.Errorf("badger存储不能为空")
	}
	if logger == nil {
		logger = corelog.NewFromZap(nil)
	}
	return &Log{store: store, logger: logger}, nil
}

func seqKey(index uint64) []byte {
	key := make([]byte, len(seqPrefix)+8)
	copy(key, seqPrefix)
	binary.BigEndian.PutUint64(key[len(seqPrefix):], index)
	return key
}

func checkpointKey(name string) []byte {
	return append(append([]byte{}, checkpointPrefix...), name...)
}

func encodeU64(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func decodeU64(value []byte) (uint64, error) {
	if value == nil {
		return 0, nil
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("%w: 计数器长度 %d", types.ErrMalformedRecord, len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

func readCounter(tx storage.BadgerTransaction, key []byte) (uint64, error) {
	value, err := tx.Get(key)
	if err != nil {
		return 0, err
	}
	return decodeU64(value)
}

// Append 在一个事务内写入全部记录并推进日志长度
func (l *Log) Append(ctx context.Context, records []types.ChangeRecord) (uint64, error) {
	encoded := make([][]byte, len(records))
	for i, rec := range records {
		buf, err := codec.EncodeChange(rec)
		if err != nil {
			return 0, fmt.Errorf("编码第%d条变更记录失败: %w", i, err)
		}
		encoded[i] = buf
	}

	var first uint64
	err := l.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		n, err := readCounter(tx, lenKey)
		if err != nil {
			return err
		}
		first = n
		for i, buf := range encoded {
			if err := tx.Set(seqKey(n+uint64(i)), buf); err != nil {
				return err
			}
		}
		return tx.Set(lenKey, encodeU64(n+uint64(len(encoded))))
	})
	if err != nil {
		return 0, types.NewBackendError("changelog.append", err)
	}
	l.logger.Debugf("变更日志追加 %d 条记录，起始序号=%d", len(records), first)
	return first, nil
}

func (l *Log) Len(ctx context.Context) (uint64, error) {
	value, err := l.store.Get(ctx, lenKey)
	if err != nil {
		return 0, types.NewBackendError("changelog.len", err)
	}
	return decodeU64(value)
}

// Get 读取指定序号的记录
func (l *Log) Get(ctx context.Context, index uint64) (*types.ReadOnlyChange, error) {
	value, err := l.store.Get(ctx, seqKey(index))
	if err != nil {
		return nil, types.NewBackendError("changelog.get", err)
	}
	if value == nil {
		return nil, fmt.Errorf("变更记录不存在: index=%d", index)
	}
	return decodeAt(index, value)
}

func decodeAt(index uint64, value []byte) (*types.ReadOnlyChange, error) {
	rec, n, err := codec.DecodeChange(value)
	if err != nil {
		return nil, fmt.Errorf("解码变更记录失败 index=%d: %w", index, err)
	}
	if n != len(value) {
		return nil, fmt.Errorf("%w: index=%d 尾部多出 %d 字节", types.ErrMalformedRecord, index, len(value)-n)
	}
	return rec, nil
}

// Range 在一致性快照中按正序遍历 [from, to)
func (l *Log) Range(ctx context.Context, from, to uint64, fn func(index uint64, rec *types.ReadOnlyChange) error) error {
	return l.store.View(ctx, func(tx storage.BadgerTransaction) error {
		n, err := readCounter(tx, lenKey)
		if err != nil {
			return err
		}
		if to > n {
			to = n
		}
		for i := from; i < to; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := tx.Get(seqKey(i))
			if err != nil {
				return err
			}
			rec, err := decodeAt(i, value)
			if err != nil {
				return err
			}
			if err := fn(i, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadBackward 从 end-1 开始倒序遍历，end 超出日志长度时从尾部开始
func (l *Log) ReadBackward(ctx context.Context, end uint64, fn func(index uint64, rec *types.ReadOnlyChange) (bool, error)) error {
	return l.store.View(ctx, func(tx storage.BadgerTransaction) error {
		n, err := readCounter(tx, lenKey)
		if err != nil {
			return err
		}
		if end > n {
			end = n
		}
		for i := end; i > 0; i-- {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := tx.Get(seqKey(i - 1))
			if err != nil {
				return err
			}
			rec, err := decodeAt(i-1, value)
			if err != nil {
				return err
			}
			more, err := fn(i-1, rec)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		return nil
	})
}

func (l *Log) Applied(ctx context.Context) (uint64, error) {
	value, err := l.store.Get(ctx, appliedKey)
	if err != nil {
		return 0, types.NewBackendError("changelog.applied", err)
	}
	return decodeU64(value)
}

// MarkAppliedTx 在调用方事务内写入水位
func (l *Log) MarkAppliedTx(tx storage.BadgerTransaction, applied uint64) error {
	return tx.Set(appliedKey, encodeU64(applied))
}

// Pending 返回未应用区间 [from, to)；from == to 表示没有 pending 批次
func (l *Log) Pending(ctx context.Context) (from, to uint64, err error) {
	err = l.store.View(ctx, func(tx storage.BadgerTransaction) error {
		if to, err = readCounter(tx, lenKey); err != nil {
			return err
		}
		from, err = readCounter(tx, appliedKey)
		return err
	})
	if err != nil {
		return 0, 0, types.NewBackendError("changelog.pending", err)
	}
	if from > to {
		return 0, 0, fmt.Errorf("%w: 水位 %d 超过日志长度 %d", types.ErrMalformedRecord, from, to)
	}
	return from, to, nil
}

// TruncatePending 删除从未应用过的尾部记录
func (l *Log) TruncatePending(ctx context.Context) (int, error) {
	var dropped int
	err := l.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		n, err := readCounter(tx, lenKey)
		if err != nil {
			return err
		}
		applied, err := readCounter(tx, appliedKey)
		if err != nil {
			return err
		}
		for i := applied; i < n; i++ {
			if err := tx.Delete(seqKey(i)); err != nil {
				return err
			}
			dropped++
		}
		if dropped == 0 {
			return nil
		}
		return tx.Set(lenKey, encodeU64(applied))
	})
	if err != nil {
		return 0, types.NewBackendError("changelog.truncate", err)
	}
	if dropped > 0 {
		l.logger.Warnf("已丢弃 %d 条未应用的变更记录", dropped)
	}
	return dropped, nil
}

// SetCheckpoint 记录命名检查点；index 不得超过当前日志长度
func (l *Log) SetCheckpoint(ctx context.Context, name string, index uint64) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return fmt.Errorf("非法检查点名称: %q", name)
	}
	n, err := l.Len(ctx)
	if err != nil {
		return err
	}
	if index > n {
		return fmt.Errorf("检查点序号 %d 超过日志长度 %d", index, n)
	}
	if err := l.store.Set(ctx, checkpointKey(name), encodeU64(index)); err != nil {
		return types.NewBackendError("changelog.checkpoint", err)
	}
	return nil
}

func (l *Log) Checkpoint(ctx context.Context, name string) (uint64, error) {
	value, err := l.store.Get(ctx, checkpointKey(name))
	if err != nil {
		return 0, types.NewBackendError("changelog.checkpoint", err)
	}
	if value == nil {
		return 0, fmt.Errorf("%w: %s", types.ErrCheckpointNotFound, name)
	}
	return decodeU64(value)
}

// Checkpoints 列出全部检查点
func (l *Log) Checkpoints(ctx context.Context) (map[string]uint64, error) {
	raw, err := l.store.PrefixScan(ctx, checkpointPrefix)
	if err != nil {
		return nil, types.NewBackendError("changelog.checkpoints", err)
	}
	out := make(map[string]uint64, len(raw))
	for key, value := range raw {
		idx, err := decodeU64(value)
		if err != nil {
			return nil, err
		}
		out[strings.TrimPrefix(key, string(checkpointPrefix))] = idx
	}
	return out, nil
}

func (l *Log) DeleteCheckpoint(ctx context.Context, name string) error {
	if err := l.store.Delete(ctx, checkpointKey(name)); err != nil {
		return types.NewBackendError("changelog.checkpoint", err)
	}
	return nil
}
