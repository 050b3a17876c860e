// Package log 提供基于 zap 的日志实现：控制台使用彩色控制台编码，
// 文件使用 JSON 编码并由 lumberjack 轮转。
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logconfig "github.com/weisyn/dualchain/internal/config/log"
	logInterface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/dualchain/pkg/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志级别定义
const (
	DebugLevel = string(types.DebugLevel)
	InfoLevel  = string(types.InfoLevel)
	WarnLevel  = string(types.WarnLevel)
	ErrorLevel = string(types.ErrorLevel)
	FatalLevel = string(types.FatalLevel)
)

var (
	// 全局日志实例
	globalLogger logInterface.Logger
	mu           sync.RWMutex
)

// Logger 实现 log.Logger 接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

var _ logInterface.Logger = (*Logger)(nil)

// ResetDefault 将全局日志记录器重置为仅输出到控制台的默认配置
func ResetDefault() {
	logger, err := New(logconfig.FromOptions(&logconfig.LogOptions{
		Level:     InfoLevel,
		FilePath:  logconfig.OutputStderr,
		ToConsole: true,
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// createFileWriter 创建带轮转的日志文件写入器
func createFileWriter(logPath string, opts *logconfig.LogOptions) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, fmt.Errorf("创建日志目录失败 %s: %w", filepath.Dir(logPath), err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    opts.MaxSize, // megabytes
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge, // days
		Compress:   opts.Compress,
	}), nil
}

// New 根据配置创建日志记录器
//
// 输出规则：
//   - file_path 为 stdout/stderr：仅控制台
//   - 其他非空路径：JSON 文件（lumberjack 轮转），to_console 为 true 时同时输出控制台
//   - 空路径：仅控制台
func New(config *logconfig.Config) (logInterface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.ZapLevel())
	opts := config.GetOptions()

	var cores []zapcore.Core
	switch {
	case opts.FilePath == logconfig.OutputStdout:
		cores = append(cores, zapcore.NewCore(config.ConsoleEncoder(), zapcore.AddSync(os.Stdout), level))
	case config.ConsoleOnly():
		cores = append(cores, zapcore.NewCore(config.ConsoleEncoder(), zapcore.AddSync(os.Stderr), level))
	default:
		absPath, err := filepath.Abs(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
		}
		fileWriter, err := createFileWriter(absPath, opts)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(config.FileEncoder(), fileWriter, level))
		if opts.ToConsole {
			cores = append(cores, zapcore.NewCore(config.ConsoleEncoder(), zapcore.AddSync(os.Stderr), level))
		}
	}

	var zapOptions []zap.Option
	if opts.EnableCaller {
		// 跳过一层封装，使调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if opts.EnableStacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// NewFromZap 包装已有的 zap 日志记录器（测试中配合 zaptest/observer 使用）
func NewFromZap(z *zap.Logger) logInterface.Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{zapLogger: z, sugar: z.Sugar()}
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器，未设置时初始化为默认配置
func GetLogger() logInterface.Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil {
		ResetDefault()
		mu.RLock()
		l = globalLogger
		mu.RUnlock()
	}
	return l
}

// 全局日志函数

func Debugf(format string, args ...interface{}) { GetLogger().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetLogger().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetLogger().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetLogger().Errorf(format, args...) }

// With 基于全局日志记录器创建带字段的日志记录器
func With(args ...interface{}) logInterface.Logger {
	return GetLogger().With(args...)
}

// toZapFields 将键值对参数转换为 zap 字段；奇数个参数时丢弃最后一个
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func (l *Logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *Logger) Fatal(msg string)                          { l.sugar.Fatal(msg) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	z := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{zapLogger: z, sugar: z.Sugar()}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
