package fork

import (
	"context"
	"time"

	eventiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/dualchain/pkg/types"
)

// 分叉选择事件类型；事件总线约定 args[0]=ctx, args[1]=事件数据
const (
	EventTypeHeaderAccepted  eventiface.EventType = "chain.header_accepted"
	EventTypeReorg           eventiface.EventType = "chain.reorg"
	EventTypeRollback        eventiface.EventType = "chain.rollback"
	EventTypeProofAnchored   eventiface.EventType = "chain.proof_anchored"
	EventTypeReadOnlyEntered eventiface.EventType = "chain.readonly_entered"
	EventTypeRecovered       eventiface.EventType = "chain.recovered"
)

// HeaderAcceptedEvent 新链头
type HeaderAcceptedEvent struct {
	Chain      types.ChainMagic
	Hash       []byte
	Work       string
	FirstIndex uint64
	Records    int
}

// ReorgEvent 发生了链重组
type ReorgEvent struct {
	SessionID string
	Chain     types.ChainMagic
	ForkPoint []byte // 空表示从创世开始替换
	OldHead   []byte
	NewHead   []byte
	Detached  int
	Attached  int
	Timestamp time.Time
}

// RollbackEvent 回滚完成
type RollbackEvent struct {
	Chain      types.ChainMagic
	Target     uint64
	FirstIndex uint64
	Records    int
}

// ReadOnlyModeEvent 链进入只读模式
type ReadOnlyModeEvent struct {
	Chain     types.ChainMagic
	Reason    string
	Timestamp time.Time
	Component string
}

// RecoveredEvent 恢复完成
type RecoveredEvent struct {
	Replayed  int
	Discarded int
	Timestamp time.Time
}

func (s *Service) publish(ctx context.Context, eventType eventiface.EventType, data interface{}) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(eventType, ctx, data)
}
