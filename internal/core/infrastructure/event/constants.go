// 事件类型常量定义

package event

import "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/event"

// 业务特定的事件类型由各业务模块定义，这里只保留系统事件
const (
	SystemStarted event.EventType = "system:started"
	SystemStopped event.EventType = "system:stopped"
)
