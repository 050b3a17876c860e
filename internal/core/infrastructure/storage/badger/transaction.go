package badger

import (
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
)

var _ storage.BadgerTransaction = (*Transaction)(nil)

var (
	// ErrTxClosed 事务已提交或丢弃
	ErrTxClosed = errors.New("事务已关闭")
	// ErrTxReadOnly View 回调中写入
	ErrTxReadOnly = errors.New("只读事务不允许写入")
	// ErrBatchTooLarge 单个事务超出 badger 的批次上限（通常是过深的重组）
	ErrBatchTooLarge = errors.New("事务写入量超出上限")
)

// Transaction 只在 RunInTransaction/View 的回调内使用，不跨 goroutine
type Transaction struct {
	txn      *badgerdb.Txn
	writable bool
	closed   bool

	writes       int
	bytesWritten int
}

func newTransaction(txn *badgerdb.Txn, writable bool) *Transaction {
	return &Transaction{txn: txn, writable: writable}
}

// Get 键不存在时返回 nil, nil
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrTxClosed
	}
	item, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *Transaction) Exists(key []byte) (bool, error) {
	if t.closed {
		return false, ErrTxClosed
	}
	_, err := t.txn.Get(key)
	switch {
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (t *Transaction) Set(key, value []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.txn.Set(key, value); err != nil {
		return wrapTxnErr("写入", key, err)
	}
	t.writes++
	t.bytesWritten += len(key) + len(value)
	return nil
}

func (t *Transaction) Delete(key []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.txn.Delete(key); err != nil {
		return wrapTxnErr("删除", key, err)
	}
	t.writes++
	t.bytesWritten += len(key)
	return nil
}

// Commit 没有写入时直接丢弃
func (t *Transaction) Commit() error {
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true
	if t.writes == 0 {
		t.txn.Discard()
		return nil
	}
	if err := t.txn.Commit(); err != nil {
		return fmt.Errorf("提交 %d 次写入 (%d 字节): %w", t.writes, t.bytesWritten, err)
	}
	return nil
}

// Discard 可重复调用
func (t *Transaction) Discard() {
	if t.closed {
		return
	}
	t.closed = true
	t.txn.Discard()
}

// IsActive 尚未提交或丢弃
func (t *Transaction) IsActive() bool { return !t.closed }

// Writes 本事务的写入次数
func (t *Transaction) Writes() int { return t.writes }

func (t *Transaction) checkWritable() error {
	if t.closed {
		return ErrTxClosed
	}
	if !t.writable {
		return ErrTxReadOnly
	}
	return nil
}

func wrapTxnErr(op string, key []byte, err error) error {
	if errors.Is(err, badgerdb.ErrTxnTooBig) {
		return fmt.Errorf("%w: %s %q", ErrBatchTooLarge, op, key)
	}
	return fmt.Errorf("%s %q 失败: %w", op, key, err)
}
