package types

import "strings"

// LogLevel 日志级别类型
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// ParseLogLevel 解析日志级别（大小写不敏感），无法识别时返回 InfoLevel 与 false
func ParseLogLevel(s string) (LogLevel, bool) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DebugLevel:
		return DebugLevel, true
	case InfoLevel:
		return InfoLevel, true
	case WarnLevel, "warning":
		return WarnLevel, true
	case ErrorLevel:
		return ErrorLevel, true
	case FatalLevel:
		return FatalLevel, true
	default:
		return InfoLevel, false
	}
}
