// Package fork 实现双链的分叉选择引擎
//
// 🔄 **分叉选择服务 (Fork Choice Service)**
//
// 负责：
// - 按累积工作量比较候选区块头与当前链头
// - 回溯父链定位分叉点，生成撤销/追加/切换链头的变更批次
// - 通过后端 Commit 原子落盘，再发布新的链头
// - 回滚（追加反向记录）、证明锚定、孤块池
//
// 🔧 **并发**：
// - 一把互斥锁串行化所有"评估 + 提交"序列（两条链共用）
// - 链头通过 atomic.Pointer 发布，读者无锁且不会看到重组中间态
package fork

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	chainconfig "github.com/weisyn/dualchain/internal/config/chain"
	corelog "github.com/weisyn/dualchain/internal/core/infrastructure/log"
	chainif "github.com/weisyn/dualchain/pkg/interfaces/chain"
	eventiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/writegate"
	"github.com/weisyn/dualchain/pkg/interfaces/persistence"
	"github.com/weisyn/dualchain/pkg/types"
)

// ============================================================================
//                              服务结构定义
// ============================================================================

// headSlot 链头快照；atomic.Pointer 需要具体类型
type headSlot struct {
	header types.StoredHeader
}

// Service 分叉选择服务实现
type Service struct {
	// 依赖
	backend   persistence.Backend
	config    *chainconfig.Config
	writeGate writegate.WriteGate
	eventBus  eventiface.EventBus // 可选
	logger    log.Logger

	// 评估 + 提交的串行锁
	mu sync.Mutex

	referenceHead atomic.Pointer[headSlot]
	primaryHead   atomic.Pointer[headSlot]

	orphans *orphanPool
	metrics *forkMetrics
}

var _ chainif.ForkChoice = (*Service)(nil)

// ============================================================================
//                              构造函数
// ============================================================================

// NewService 创建分叉选择服务，并从后端加载两条链的链头
//
// 参数：
//   - backend: 存储后端（必需）
//   - config: 分叉选择配置（必需）
//   - writeGate: 写门闸（必需）
//   - eventBus: 事件总线（可选）
//   - registry: 指标注册表（可选）
//   - logger: 日志（可选）
func NewService(
	backend persistence.Backend,
	config *chainconfig.Config,
	writeGate writegate.WriteGate,
	eventBus eventiface.EventBus,
	registry metricsiface.Registry,
	logger log.Logger,
) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend 不能为空")
	}
	if config == nil {
		return nil, fmt.Errorf("config 不能为空")
	}
	if writeGate == nil {
		return nil, fmt.Errorf("writeGate 不能为空")
	}
	if logger == nil {
		logger = corelog.NewFromZap(nil)
	}

	metrics, err := newForkMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("注册分叉选择指标失败: %w", err)
	}

	s := &Service{
		backend:   backend,
		config:    config,
		writeGate: writeGate,
		eventBus:  eventBus,
		logger:    logger,
		orphans:   newOrphanPool(config.GetMaxOrphans(), config.GetOrphanTTL(), time.Now),
		metrics:   metrics,
	}

	if err := s.reloadHeads(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("✅ ForkChoice 服务已创建")
	return s, nil
}

// ============================================================================
//                              链头读取
// ============================================================================

func (s *Service) slot(magic types.ChainMagic) *atomic.Pointer[headSlot] {
	switch types.KindOf(magic) {
	case types.ChainKindReference:
		return &s.referenceHead
	case types.ChainKindPrimary:
		return &s.primaryHead
	default:
		return nil
	}
}

// Head 当前链头；空链或未知链返回 nil
func (s *Service) Head(magic types.ChainMagic) types.StoredHeader {
	slot := s.slot(magic)
	if slot == nil {
		return nil
	}
	if h := slot.Load(); h != nil {
		return h.header
	}
	return nil
}

func (s *Service) publishHead(magic types.ChainMagic, header types.StoredHeader) {
	if slot := s.slot(magic); slot != nil {
		slot.Store(&headSlot{header: header})
	}
}

// reloadHeads 从后端重新读取两条链的链头
func (s *Service) reloadHeads(ctx context.Context) error {
	for _, magic := range []types.ChainMagic{types.ReferenceMagic, types.PrimaryMagic} {
		if err := s.reloadHead(ctx, magic); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reloadHead(ctx context.Context, magic types.ChainMagic) error {
	head, err := s.backend.Head(ctx, magic)
	if err != nil {
		return fmt.Errorf("加载 %s 链头失败: %w", magic, err)
	}
	s.publishHead(magic, head)
	return nil
}

// OrphanCount 孤块池中某条链的区块数
func (s *Service) OrphanCount(magic types.ChainMagic) int {
	return s.orphans.count(magic)
}

// scopeOf 写门闸作用域（每条链一个）
func scopeOf(magic types.ChainMagic) string {
	return magic.String()
}
