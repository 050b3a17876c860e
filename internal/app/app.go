// Package app 装配双链存储应用：配置加载、fx 模块引导与生命周期。
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	config "github.com/weisyn/dualchain/internal/config"
	"github.com/weisyn/dualchain/internal/core/chain/fork"
	"github.com/weisyn/dualchain/internal/core/persistence"
	"github.com/weisyn/dualchain/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/dualchain/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/dualchain/pkg/types"
)

// ConfigPathEnv 配置文件路径环境变量，优先级高于命令行参数
const ConfigPathEnv = "DUALCHAIN_CONFIG"

// App 运行中的应用实例
type App interface {
	// ForkChoice 分叉选择服务
	ForkChoice() *fork.Service

	// Backend 存储后端
	Backend() *persistence.Backend

	// Metrics 指标注册表
	Metrics() metricsiface.Registry

	// Logger 根日志记录器
	Logger() log.Logger

	// Stop 停止应用并关闭存储
	Stop(ctx context.Context) error
}

type internalApp struct {
	bootstrap *Bootstrap
	handles   *handles
}

func (a *internalApp) ForkChoice() *fork.Service { return a.handles.ForkService }
func (a *internalApp) Backend() *persistence.Backend { return a.handles.Backend }
func (a *internalApp) Metrics() metricsiface.Registry { return a.handles.Metrics }
func (a *internalApp) Logger() log.Logger { return a.handles.Logger }
func (a *internalApp) Stop(ctx context.Context) error { return a.bootstrap.StopApp(ctx) }

// Start 加载配置、装配模块并启动
func Start(appOptions ...Option) (App, error) {
	opts := newOptions(appOptions...)

	fileConfig, err := loadConfigFile(opts.configFilePath)
	if err != nil {
		return nil, err
	}
	if fileConfig == nil && len(opts.embeddedConfig) > 0 {
		if fileConfig, err = config.ParseAppConfig(opts.embeddedConfig); err != nil {
			return nil, fmt.Errorf("内置配置无效: %w", err)
		}
	}
	if fileConfig != nil {
		// 选项优先于文件：先取文件配置，再重放选项
		opts = newOptions(append([]Option{WithAppConfig(fileConfig)}, appOptions...)...)
	}

	bootstrap := NewBootstrap(opts)
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}

	app := &internalApp{bootstrap: bootstrap, handles: bootstrap.handles}
	if opts.recoverOnStart {
		if _, err := app.ForkChoice().Recover(ctx); err != nil {
			_ = app.Stop(context.Background())
			return nil, fmt.Errorf("启动恢复失败: %w", err)
		}
	}
	return app, nil
}

// loadConfigFile 解析配置文件；路径为空且未设置环境变量时返回 nil
func loadConfigFile(path string) (*types.AppConfig, error) {
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		path = envPath
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("配置文件 %s 不存在", path)
	}
	return config.LoadAppConfig(path)
}
