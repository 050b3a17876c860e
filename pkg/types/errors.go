package types

import (
	"errors"
	"fmt"
)

// 错误分类（调用方通过 errors.Is 判断）：
//   - 解码类：ErrMalformedHeader / ErrMalformedRecord / ErrUnknownOperation，在解码点就地处理
//   - 分叉类：ErrOrphanChain / ErrLowerWork / ErrEqualWork，作为普通结果返回
//   - 后端类：ErrBackendFailure / ErrReadOnly，阻止该链继续写入直到恢复完成
var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrMalformedRecord = errors.New("malformed change record")
	// ErrUnknownOperation 操作码不在注册表中，视为数据损坏
	ErrUnknownOperation = fmt.Errorf("%w: unknown operation code", ErrMalformedRecord)

	ErrLengthMismatch = errors.New("change record old/new value length mismatch")
	ErrValueTooLarge  = fmt.Errorf("change record value exceeds %d bytes", MaxHeaderSize)

	ErrOrphanChain = errors.New("orphan chain: no common ancestor found")
	ErrLowerWork   = errors.New("candidate has lower cumulative work")
	ErrEqualWork   = errors.New("candidate has equal cumulative work")

	ErrBackendFailure = errors.New("backend failure")
	ErrReadOnly       = fmt.Errorf("%w: chain store is read-only", ErrBackendFailure)

	ErrUnknownChain       = errors.New("unknown chain")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrHeaderNotFound     = errors.New("header not found")
)

// BackendError 后端失败（带操作名），Unwrap 同时暴露 ErrBackendFailure 与底层错误
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	if e == nil || e.Err == nil {
		return "backend failure: <nil>"
	}
	return "backend failure@" + e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackendFailure, e.Err} }

// NewBackendError 包装后端错误；nil 输入返回 nil
func NewBackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}
