// maintenance.go - 数据库维护

package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
)

// RunValueLogGC 执行值日志垃圾回收，直到没有可重写的文件或 ctx 结束
func (s *Store) RunValueLogGC(ctx context.Context, discardRatio float64) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("值日志垃圾回收被取消: %w", err)
		}
		err := s.db.RunValueLogGC(discardRatio)
		if err == nil {
			continue
		}
		if errors.Is(err, badgerdb.ErrNoRewrite) || errors.Is(err, badgerdb.ErrRejected) {
			return nil
		}
		// 内存模式下 GC 不可用
		if strings.Contains(err.Error(), "in-memory mode") {
			return nil
		}
		return fmt.Errorf("值日志垃圾回收失败: %w", err)
	}
}

// StartMaintenanceRoutines 启动定期值日志GC；interval<=0 时不启动
func (s *Store) StartMaintenanceRoutines(ctx context.Context, interval time.Duration, discardRatio float64) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.RunValueLogGC(ctx, discardRatio); err != nil {
					s.logger.Warnf("定期值日志垃圾回收失败: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
