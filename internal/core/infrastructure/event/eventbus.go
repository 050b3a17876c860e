// 基于asaskevich/EventBus的事件总线实现

package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"
	eventconfig "github.com/weisyn/dualchain/internal/config/event"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"
)

// EventBus 是基于asaskevich/EventBus的实现
//
// 在底层总线之上增加了启用开关、生命周期状态和按类型的有界历史记录。
type EventBus struct {
	bus    evbus.Bus
	config *eventconfig.Config

	historyMu    sync.RWMutex
	eventHistory map[event.EventType][][]interface{}

	running atomic.Bool
}

var _ event.EventBus = (*EventBus)(nil)

// New 创建事件总线实例
func New(config *eventconfig.Config) *EventBus {
	return &EventBus{
		bus:          evbus.New(),
		config:       config,
		eventHistory: make(map[event.EventType][][]interface{}),
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil // 如果事件系统未启用，静默成功
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// SubscribeOnce 实现一次性订阅
func (eb *EventBus) SubscribeOnce(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.SubscribeOnce(string(eventType), handler)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if !eb.config.IsEnabled() {
		return
	}
	eb.saveEventToHistory(eventType, args)
	eb.bus.Publish(string(eventType), args...)
}

// PublishEvent 发布Event接口类型事件
func (eb *EventBus) PublishEvent(e event.Event) {
	if e == nil {
		return
	}
	eb.Publish(e.Type(), e.Data())
}

// saveEventToHistory 环形保留最近 history_size 条
func (eb *EventBus) saveEventToHistory(eventType event.EventType, args []interface{}) {
	limit := eb.config.GetHistorySize()
	if limit <= 0 {
		return
	}
	eb.historyMu.Lock()
	defer eb.historyMu.Unlock()

	entries := append(eb.eventHistory[eventType], append([]interface{}(nil), args...))
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	eb.eventHistory[eventType] = entries
}

// GetEventHistory 获取指定类型的事件历史
func (eb *EventBus) GetEventHistory(eventType event.EventType) [][]interface{} {
	eb.historyMu.RLock()
	defer eb.historyMu.RUnlock()

	src := eb.eventHistory[eventType]
	out := make([][]interface{}, len(src))
	copy(out, src)
	return out
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// HasCallback 检查是否有回调
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	if !eb.config.IsEnabled() {
		return false
	}
	return eb.bus.HasCallback(string(eventType))
}

// Start 启动事件总线；总线不派生后台 goroutine，ctx 仅用于满足生命周期签名
func (eb *EventBus) Start(_ context.Context) error {
	if !eb.running.CompareAndSwap(false, true) {
		return fmt.Errorf("event bus already running")
	}
	return nil
}

// Stop 停止事件总线，等待异步 handler 完成
func (eb *EventBus) Stop(ctx context.Context) error {
	if !eb.running.CompareAndSwap(true, false) {
		return fmt.Errorf("event bus not running")
	}
	eb.WaitAsync()
	return nil
}

// IsRunning 检查事件总线是否运行中
func (eb *EventBus) IsRunning() bool {
	return eb.running.Load()
}
