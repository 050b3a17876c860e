// Package persistence 实现基于 BadgerDB 的区块存储后端。
//
// 写路径唯一：Commit = 追加变更日志 → 在单个事务中应用记录并推进 applied 水位。
// 应用是幂等的（ADD 写入/删除活跃标记，SET 覆盖写），因此 Recover 可以重放 pending 批次。
package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/weisyn/dualchain/internal/core/changelog"
	"github.com/weisyn/dualchain/internal/core/codec"
	"github.com/weisyn/dualchain/internal/core/infrastructure/crypto/hash"
	corelog "github.com/weisyn/dualchain/internal/core/infrastructure/log"
	cryptointf "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
	persistenceif "github.com/weisyn/dualchain/pkg/interfaces/persistence"
	"github.com/weisyn/dualchain/pkg/types"
)

// Backend 区块存储后端
type Backend struct {
	store   storage.BadgerStore
	cache   storage.MemoryStore // 可选：区块头缓存
	log     *changelog.Log
	hashers map[types.ChainMagic]cryptointf.Hasher
	logger  log.Logger

	// 串行化 Commit 与 Recover，保证水位单调
	mu sync.Mutex
}

var _ persistenceif.Backend = (*Backend)(nil)

// New 创建后端；cache 与 logger 可为 nil
func New(store storage.BadgerStore, cache storage.MemoryStore, logger log.Logger) (*Backend, error) {
	if store == nil {
		return nil, fmt.Errorf("badger存储不能为空")
	}
	if logger == nil {
		logger = corelog.NewFromZap(nil)
	}
	cl, err := changelog.New(store, logger.With("component", "changelog"))
	if err != nil {
		return nil, err
	}
	b := &Backend{
		store:   store,
		cache:   cache,
		log:     cl,
		hashers: make(map[types.ChainMagic]cryptointf.Hasher, 2),
		logger:  logger,
	}
	for _, magic := range []types.ChainMagic{types.ReferenceMagic, types.PrimaryMagic} {
		h, err := hash.ForChain(magic)
		if err != nil {
			return nil, err
		}
		b.hashers[magic] = h
	}
	return b, nil
}

// ChangeLog 底层变更日志
func (b *Backend) ChangeLog() persistenceif.ChangeLog { return b.log }

// Hasher 返回链的身份哈希实现
func (b *Backend) Hasher(magic types.ChainMagic) (cryptointf.Hasher, error) {
	h, ok := b.hashers[magic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
	return h, nil
}

// digest 计算序列化区块头的身份哈希（只覆盖原始区块头部分）
func (b *Backend) digest(magic types.ChainMagic, serialized []byte) ([]byte, error) {
	h, err := b.Hasher(magic)
	if err != nil {
		return nil, err
	}
	raw := rawSize(magic)
	if len(serialized) < raw {
		return nil, fmt.Errorf("%w: 需要 %d 字节原始区块头", types.ErrMalformedHeader, raw)
	}
	return h.Digest(serialized[:raw]), nil
}

func rawSize(magic types.ChainMagic) int {
	if types.KindOf(magic) == types.ChainKindReference {
		return types.ReferenceRawSize
	}
	return types.PrimaryRawSize
}

// ============================================================================
//                              区块头池
// ============================================================================

// PutHeader 写入区块头池；哈希以原始区块头的摘要为准，
// 调用方提供的哈希与摘要不一致时返回 ErrMalformedHeader。
func (b *Backend) PutHeader(ctx context.Context, header types.StoredHeader) error {
	if types.IsNilHeader(header) {
		return fmt.Errorf("%w: 区块头为空", types.ErrMalformedHeader)
	}
	magic := header.Chain()
	serialized, err := codec.EncodeHeader(magic, header)
	if err != nil {
		return err
	}
	digest, err := b.digest(magic, serialized)
	if err != nil {
		return err
	}
	if given := header.HashBytes(); len(given) > 0 && !hash.ConstantTimeCompare(given, digest) {
		return fmt.Errorf("%w: 哈希与原始区块头摘要不一致", types.ErrMalformedHeader)
	}

	value := append(digest, serialized...)
	if err := b.store.Set(ctx, headerKey(magic, digest), value); err != nil {
		return types.NewBackendError("put_header", err)
	}
	b.cacheSet(ctx, headerKey(magic, digest), value)
	return nil
}

// GetHeader 按哈希读取区块头，优先命中缓存
func (b *Backend) GetHeader(ctx context.Context, magic types.ChainMagic, hash []byte) (types.StoredHeader, error) {
	key := headerKey(magic, hash)
	value, ok := b.cacheGet(ctx, key)
	if !ok {
		var err error
		value, err = b.store.Get(ctx, key)
		if err != nil {
			return nil, types.NewBackendError("get_header", err)
		}
		if value == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrHeaderNotFound, types.FormatHash(magic, hash))
		}
		b.cacheSet(ctx, key, value)
	}
	return codec.DecodeHeaderWithHash(magic, value)
}

// GetParent 读取父区块头；创世区块返回 nil, nil
func (b *Backend) GetParent(ctx context.Context, header types.StoredHeader) (types.StoredHeader, error) {
	if types.IsNilHeader(header) {
		return nil, fmt.Errorf("%w: 区块头为空", types.ErrMalformedHeader)
	}
	parent := header.ParentHash()
	if parent == nil {
		return nil, fmt.Errorf("%w: 无法解析父哈希", types.ErrMalformedHeader)
	}
	if types.IsZeroHash(parent) {
		return nil, nil
	}
	return b.GetHeader(ctx, header.Chain(), parent)
}

func (b *Backend) cacheGet(ctx context.Context, key []byte) ([]byte, bool) {
	if b.cache == nil {
		return nil, false
	}
	value, ok, err := b.cache.Get(ctx, string(key))
	if err != nil || !ok {
		return nil, false
	}
	return value, true
}

func (b *Backend) cacheSet(ctx context.Context, key, value []byte) {
	if b.cache == nil {
		return
	}
	if err := b.cache.Set(ctx, string(key), value); err != nil {
		b.logger.Debugf("区块头缓存写入失败: %v", err)
	}
}

// ============================================================================
//                              状态读取
// ============================================================================

// IsActive 区块是否在活跃链上
func (b *Backend) IsActive(ctx context.Context, magic types.ChainMagic, hash []byte) (bool, error) {
	ok, err := b.store.Exists(ctx, activeKey(magic, hash))
	if err != nil {
		return false, types.NewBackendError("is_active", err)
	}
	return ok, nil
}

// Head 当前链头；空链返回 nil, nil
func (b *Backend) Head(ctx context.Context, magic types.ChainMagic) (types.StoredHeader, error) {
	if types.KindOf(magic) == types.ChainKindUnknown {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
	value, err := b.store.Get(ctx, headKey(magic))
	if err != nil {
		return nil, types.NewBackendError("head", err)
	}
	if value == nil {
		return nil, nil
	}
	return codec.DecodeHeaderWithHash(magic, value)
}

// Proof 主链当前嵌入的参考链区块头
func (b *Backend) Proof(ctx context.Context) (*types.ReferenceHeader, error) {
	value, err := b.store.Get(ctx, proofKey(types.PrimaryMagic))
	if err != nil {
		return nil, types.NewBackendError("proof", err)
	}
	if value == nil {
		return nil, nil
	}
	h, err := codec.DecodeReference(value)
	if err != nil {
		return nil, err
	}
	if h.Hash, err = b.digest(types.ReferenceMagic, value); err != nil {
		return nil, err
	}
	return h, nil
}

// ============================================================================
//                              写路径
// ============================================================================

// Commit 追加并应用一批记录
//
// 存在 pending 批次时拒绝提交，必须先 Recover。
// 追加成功后的应用阶段不响应 ctx 取消。
func (b *Backend) Commit(ctx context.Context, records []types.ChangeRecord) (uint64, error) {
	if len(records) == 0 {
		return 0, errors.New("变更批次不能为空")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	from, to, err := b.log.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if from != to {
		return 0, fmt.Errorf("%w: 存在 %d 条未应用记录，需先恢复", types.ErrReadOnly, to-from)
	}

	first, err := b.log.Append(ctx, records)
	if err != nil {
		return 0, err
	}

	applyCtx := context.WithoutCancel(ctx)
	if err := b.apply(applyCtx, records, first+uint64(len(records))); err != nil {
		b.logger.Errorf("变更批次应用失败，批次保持 pending: first=%d count=%d err=%v", first, len(records), err)
		return first, types.NewBackendError("apply", err)
	}
	return first, nil
}

// Recover 重放所有 pending 记录
func (b *Backend) Recover(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, to, err := b.log.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if from == to {
		return 0, nil
	}

	var records []types.ChangeRecord
	err = b.log.Range(ctx, from, to, func(_ uint64, rec *types.ReadOnlyChange) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("读取 pending 记录失败: %w", err)
	}
	if err := b.apply(ctx, records, to); err != nil {
		return 0, types.NewBackendError("recover", err)
	}
	b.logger.Infof("已重放 %d 条 pending 变更记录 [%d, %d)", len(records), from, to)
	return len(records), nil
}

// DiscardPending 丢弃 pending 批次，活跃集合与链头保持批次之前的状态
func (b *Backend) DiscardPending(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.log.TruncatePending(ctx)
}

// apply 在单个事务中应用记录并推进水位
func (b *Backend) apply(ctx context.Context, records []types.ChangeRecord, applied uint64) error {
	return b.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		for i, rec := range records {
			if err := b.applyRecord(tx, rec); err != nil {
				return fmt.Errorf("应用第%d条记录(%s/%s)失败: %w", i, rec.ChainIdentifier(), rec.Operation(), err)
			}
		}
		return b.log.MarkAppliedTx(tx, applied)
	})
}

func (b *Backend) applyRecord(tx storage.BadgerTransaction, rec types.ChangeRecord) error {
	magic := rec.ChainIdentifier()
	if types.KindOf(magic) == types.ChainKindUnknown {
		return fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
	oldValue, newValue := rec.OldValue(), rec.NewValue()

	switch rec.Operation() {
	case types.OpAddBlock:
		if err := expectSize(newValue, codec.HeaderSize(magic)); err != nil {
			return err
		}
		if !types.IsAbsent(newValue) {
			digest, err := b.digest(magic, newValue)
			if err != nil {
				return err
			}
			// 区块头池是内容寻址的，重复写入无副作用
			if err := tx.Set(headerKey(magic, digest), append(bytes.Clone(digest), newValue...)); err != nil {
				return err
			}
			return tx.Set(activeKey(magic, digest), activeMarker)
		}
		if types.IsAbsent(oldValue) {
			return nil
		}
		digest, err := b.digest(magic, oldValue)
		if err != nil {
			return err
		}
		return tx.Delete(activeKey(magic, digest))

	case types.OpSetHead:
		if err := expectSize(newValue, codec.HeaderSize(magic)); err != nil {
			return err
		}
		if types.IsAbsent(newValue) {
			return tx.Delete(headKey(magic))
		}
		digest, err := b.digest(magic, newValue)
		if err != nil {
			return err
		}
		return tx.Set(headKey(magic), append(digest, newValue...))

	case types.OpSetProof:
		if types.KindOf(magic) != types.ChainKindPrimary {
			return fmt.Errorf("%w: SET_PROOF 只作用于主链", types.ErrMalformedRecord)
		}
		if err := expectSize(newValue, types.ReferenceHeaderSize); err != nil {
			return err
		}
		if types.IsAbsent(newValue) {
			return tx.Delete(proofKey(magic))
		}
		return tx.Set(proofKey(magic), bytes.Clone(newValue))

	default:
		return fmt.Errorf("%w: %d", types.ErrUnknownOperation, uint16(rec.Operation()))
	}
}

func expectSize(value []byte, size int) error {
	if len(value) != size {
		return fmt.Errorf("%w: 快照长度 %d，期望 %d", types.ErrMalformedRecord, len(value), size)
	}
	return nil
}
