// Package event 定义事件总线接口。
//
// 业务事件类型由各业务模块自行定义（如分叉选择模块的 header accepted / reorg 事件），
// 基础设施层只提供传递能力。
package event

import "context"

// EventType 事件类型
type EventType string

// Event 事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Data 返回事件数据
	Data() interface{}
}

// EventBus 事件总线接口
//
// handler 为任意函数，参数须与 Publish 的参数一一对应（asaskevich/EventBus 约定）。
type EventBus interface {
	Subscribe(eventType EventType, handler interface{}) error
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error
	SubscribeOnce(eventType EventType, handler interface{}) error
	Unsubscribe(eventType EventType, handler interface{}) error

	// Publish 发布事件；事件系统关闭时静默丢弃
	Publish(eventType EventType, args ...interface{})
	// PublishEvent 发布 Event 接口类型事件，handler 收到 Data()
	PublishEvent(e Event)

	// HasCallback 是否存在该类型的订阅
	HasCallback(eventType EventType) bool
	// WaitAsync 等待所有异步 handler 执行完毕
	WaitAsync()

	// GetEventHistory 最近发布的事件参数（按发布顺序，最多 history_size 条）
	GetEventHistory(eventType EventType) [][]interface{}

	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}
