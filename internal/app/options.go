package app

import (
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	"github.com/weisyn/dualchain/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项，实现 config.AppOptions
type options struct {
	// 配置文件路径
	configFilePath string

	// 内置配置内容；未指定配置文件时使用
	embeddedConfig []byte

	// 用户配置；文件配置与选项叠加后的结果
	appConfig *types.AppConfig

	// 启动时是否执行一次完整恢复（重放 pending 批次并解除只读）
	recoverOnStart bool
}

var _ config.AppOptions = (*options)(nil)

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithEmbeddedConfig 设置内置配置内容（优先级低于配置文件）
func WithEmbeddedConfig(configBytes []byte) Option {
	return func(o *options) {
		o.embeddedConfig = configBytes
	}
}

// WithAppConfig 直接使用已构造的用户配置（测试与嵌入场景）
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		if appConfig != nil {
			o.appConfig = appConfig
		}
	}
}

// WithDataDir 覆盖数据目录
func WithDataDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.appConfig.DataDir = types.StringPtr(dir)
		}
	}
}

// WithLogLevel 覆盖日志级别
func WithLogLevel(level string) Option {
	return func(o *options) {
		if level == "" {
			return
		}
		if o.appConfig.Log == nil {
			o.appConfig.Log = &types.UserLogConfig{}
		}
		o.appConfig.Log.Level = types.StringPtr(level)
	}
}

// WithRecoverOnStart 启动后执行 ForkChoice.Recover
func WithRecoverOnStart() Option {
	return func(o *options) {
		o.recoverOnStart = true
	}
}

func newOptions(opts ...Option) *options {
	o := &options{appConfig: &types.AppConfig{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetAppConfig 返回应用程序配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
