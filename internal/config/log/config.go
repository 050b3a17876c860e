// Package log 合成日志配置：用户 log 段覆盖 defaults.go 默认值。
package log

import (
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/dualchain/pkg/types"
)

// 特殊输出路径
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// LogOptions 合成后的日志配置
type LogOptions struct {
	Level     string `json:"level"`
	ToConsole bool   `json:"to_console"`
	// FilePath 为 stdout/stderr 时只写控制台
	FilePath string `json:"file_path"`

	MaxSize    int  `json:"max_size"`
	MaxBackups int  `json:"max_backups"`
	MaxAge     int  `json:"max_age"`
	Compress   bool `json:"compress"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"`
}

// Config 日志配置
type Config struct {
	options *LogOptions
}

// New 从用户配置合成；dataDir 决定默认日志文件位置
func New(user *types.UserLogConfig, dataDir string) *Config {
	options := &LogOptions{
		Level:            defaultLogLevel,
		ToConsole:        defaultToConsole,
		FilePath:         OutputStderr,
		MaxSize:          defaultMaxSize,
		MaxBackups:       defaultMaxBackups,
		MaxAge:           defaultMaxAge,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
	}
	if user != nil {
		applyUserLogConfig(options, user, dataDir)
	}
	return &Config{options: options}
}

// FromOptions 包装已合成的配置（测试与 CLI 默认日志器使用）
func FromOptions(options *LogOptions) *Config {
	if options == nil {
		return New(nil, "")
	}
	return &Config{options: options}
}

func applyUserLogConfig(options *LogOptions, user *types.UserLogConfig, dataDir string) {
	if user.Level != nil {
		if lvl, ok := types.ParseLogLevel(*user.Level); ok {
			options.Level = string(lvl)
		}
	}
	if user.FilePath != nil {
		options.FilePath = *user.FilePath
		if options.FilePath == "" {
			options.FilePath = defaultLogPath(dataDir)
		}
		// 写文件时默认不再重复输出到控制台
		options.ToConsole = options.FilePath == OutputStdout || options.FilePath == OutputStderr
	}
	if user.ToConsole != nil {
		options.ToConsole = *user.ToConsole
	}
	if user.MaxSize != nil {
		options.MaxSize = *user.MaxSize
	}
	if user.MaxBackups != nil {
		options.MaxBackups = *user.MaxBackups
	}
	if user.MaxAge != nil {
		options.MaxAge = *user.MaxAge
	}
	if user.Compress != nil {
		options.Compress = *user.Compress
	}
	if user.Caller != nil {
		options.EnableCaller = *user.Caller
	}
	if user.Stacktrace != nil {
		options.EnableStacktrace = *user.Stacktrace
	}
}

// GetOptions 合成后的配置
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// ZapLevel 无法识别的级别按 info 处理
func (c *Config) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.options.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// ConsoleOnly 是否只写控制台
func (c *Config) ConsoleOnly() bool {
	return c.options.FilePath == "" || c.options.FilePath == OutputStdout || c.options.FilePath == OutputStderr
}

// FileEncoder 文件输出为 JSON，每行一条
func (c *Config) FileEncoder() zapcore.Encoder {
	cfg := baseEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// ConsoleEncoder 控制台输出带颜色级别
func (c *Config) ConsoleEncoder() zapcore.Encoder {
	cfg := baseEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func baseEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
