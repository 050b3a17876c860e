// Package log 定义双链存储使用的日志接口。
//
// 实现位于 internal/core/infrastructure/log（zap + lumberjack）；
// 未注入日志器的组件使用 log.NewFromZap(nil) 得到的空日志器。
package log

import "go.uber.org/zap"

// Logger 日志记录器接口
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})

	Info(msg string)
	Infof(format string, args ...interface{})

	Warn(msg string)
	Warnf(format string, args ...interface{})

	Error(msg string)
	Errorf(format string, args ...interface{})

	// Fatal 记录后退出进程，仅限 CLI 入口使用
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With 返回附加键值对字段的 Logger（key1, value1, key2, value2, ...）
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 获取底层 zap 日志记录器
	GetZapLogger() *zap.Logger
}
