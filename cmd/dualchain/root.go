package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weisyn/dualchain/configs"
	"github.com/weisyn/dualchain/internal/app"
	"github.com/weisyn/dualchain/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigFile string
	DataDir    string
	LogLevel   string
	Timeout    time.Duration
	NoColor    bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "dualchain",
	Short: "双链区块头存储运维工具",
	Long: `dualchain - 参考链与主链区块头存储的运维工具

所有写操作都会追加到变更日志，可通过 rollback 撤销、通过 log export 导出审计。`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// 输出被重定向（导出到文件、管道给 jq 等）时去掉颜色控制符
		if globalFlags.NoColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			pterm.DisableStyling()
		}
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "配置文件路径（也可通过 "+app.ConfigPathEnv+" 指定）")
	rootCmd.PersistentFlags().StringVar(&globalFlags.DataDir, "data-dir", "", "数据目录（覆盖配置文件）")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "日志级别: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.NoColor, "no-color", false, "禁用彩色输出")
	rootCmd.PersistentFlags().DurationVar(&globalFlags.Timeout, "timeout", 5*time.Minute, "单个命令的超时时间")

	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// withApp 启动应用、执行 fn 后停止；fn 的错误优先返回
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a app.App) error, extra ...app.Option) (err error) {
	opts := append([]app.Option{
		app.WithConfigFile(globalFlags.ConfigFile),
		app.WithEmbeddedConfig(configs.Default()),
		app.WithDataDir(globalFlags.DataDir),
		app.WithLogLevel(globalFlags.LogLevel),
	}, extra...)

	a, err := app.Start(opts...)
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if stopErr := a.Stop(stopCtx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), globalFlags.Timeout)
	defer cancel()
	return fn(ctx, a)
}

// parseChain 解析链参数
func parseChain(s string) (types.ChainMagic, error) {
	magic, err := types.ParseChainMagic(s)
	if err != nil {
		return types.ChainMagic{}, err
	}
	if types.KindOf(magic) == types.ChainKindUnknown {
		return types.ChainMagic{}, fmt.Errorf("%w: %s", types.ErrUnknownChain, magic)
	}
	return magic, nil
}

// chainsFromArgs 未指定链时返回两条链
func chainsFromArgs(args []string) ([]types.ChainMagic, error) {
	if len(args) == 0 {
		return []types.ChainMagic{types.ReferenceMagic, types.PrimaryMagic}, nil
	}
	out := make([]types.ChainMagic, 0, len(args))
	for _, arg := range args {
		magic, err := parseChain(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, magic)
	}
	return out, nil
}
