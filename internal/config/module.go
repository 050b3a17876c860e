// Package config 提供应用配置管理功能
package config

import (
	chainconfig "github.com/weisyn/dualchain/internal/config/chain"
	"github.com/weisyn/dualchain/pkg/interfaces/config"
	"github.com/weisyn/dualchain/pkg/types"
	"go.uber.org/fx"
)

// ConfigParams 配置模块依赖
type ConfigParams struct {
	fx.In

	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 配置模块输出
type ConfigOutput struct {
	fx.Out

	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			func(provider config.Provider) *chainconfig.ChainOptions {
				return provider.GetChain()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}
	if err := ValidateAppConfig(appConfig); err != nil {
		return ConfigOutput{}, err
	}
	return ConfigOutput{
		Provider: NewProvider(appConfig),
	}, nil
}

// appOptions AppOptions 的简单实现
type appOptions struct {
	appConfig *types.AppConfig
}

func (o *appOptions) GetAppConfig() *types.AppConfig { return o.appConfig }

// NewAppOptions 包装已解析的用户配置
func NewAppOptions(appConfig *types.AppConfig) config.AppOptions {
	return &appOptions{appConfig: appConfig}
}
