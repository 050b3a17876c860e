// Package memory 提供基于BigCache的区块头缓存实现
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/pbnjay/memory"
	memoryconfig "github.com/weisyn/dualchain/internal/config/storage/memory"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	storage "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/storage"
)

// ErrStoreClosed 缓存已关闭
var ErrStoreClosed = errors.New("memory store is closed")

// Store 实现了MemoryStore接口，基于BigCache提供内存缓存功能
//
// 缓存仅作为读加速层：淘汰、过期或关闭都不影响正确性，调用方回落到 BadgerStore。
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger
	mutex  sync.RWMutex
	config *memoryconfig.Config
	closed bool
}

var _ storage.MemoryStore = (*Store)(nil)

// New 创建一个新的BigCache内存存储实例
//
// 缓存容量上限按系统总内存（pbnjay/memory 探测）的比例计算，并受配置上限约束。
func New(config *memoryconfig.Config, logger log.Logger) (*Store, error) {
	bigCacheConfig := bigcache.DefaultConfig(config.GetLifeWindow())
	bigCacheConfig.Shards = config.GetShards()
	bigCacheConfig.CleanWindow = config.GetCleanWindow()
	bigCacheConfig.MaxEntrySize = config.GetMaxEntrySize()
	bigCacheConfig.HardMaxCacheSize = config.GetHardMaxCacheSizeMB(memory.TotalMemory())
	bigCacheConfig.Verbose = false

	cache, err := bigcache.New(context.Background(), bigCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("创建BigCache实例失败: %w", err)
	}

	if logger != nil {
		logger.Infof("区块头缓存已创建: shards=%d hard_max=%dMB life_window=%s",
			bigCacheConfig.Shards, bigCacheConfig.HardMaxCacheSize, config.GetLifeWindow())
	}

	return &Store{
		cache:  cache,
		logger: logger,
		config: config,
	}, nil
}

// Close 关闭缓存并释放资源
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.cache.Close()
}

// Get 获取缓存值
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}
	value, err := s.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Set 设置缓存值
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := s.cache.Set(key, value); err != nil {
		if s.logger != nil {
			s.logger.Warnf("设置缓存键[%s]失败: %v", key, err)
		}
		return err
	}
	return nil
}

// Delete 删除指定键的缓存；键不存在不报错
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Clear 清空所有缓存
func (s *Store) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.cache.Reset()
}

// Count 获取当前缓存中的条目数量
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return int64(s.cache.Len()), nil
}

// Stats 命中统计
func (s *Store) Stats() storage.CacheStats {
	st := s.cache.Stats()
	return storage.CacheStats{
		Hits:       st.Hits,
		Misses:     st.Misses,
		DelHits:    st.DelHits,
		DelMisses:  st.DelMisses,
		Collisions: st.Collisions,
	}
}
