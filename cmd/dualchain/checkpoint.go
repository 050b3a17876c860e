package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/dualchain/internal/app"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "命名检查点",
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set <name> [index]",
	Short: "记录检查点；省略 index 时使用当前日志长度",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a app.App) error {
			log := a.Backend().ChangeLog()
			index, err := log.Len(ctx)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if index, err = strconv.ParseUint(args[1], 10, 64); err != nil {
					return fmt.Errorf("无效的序号 %q: %w", args[1], err)
				}
			}
			if err := log.SetCheckpoint(ctx, args[0], index); err != nil {
				return err
			}
			pterm.Success.Printfln("检查点 %s -> %d", args[0], index)
			return nil
		})
	},
}

var checkpointListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出检查点",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a app.App) error {
			checkpoints, err := a.Backend().ChangeLog().Checkpoints(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(checkpoints))
			for name := range checkpoints {
				names = append(names, name)
			}
			sort.Strings(names)

			data := pterm.TableData{{"名称", "序号"}}
			for _, name := range names {
				data = append(data, []string{name, fmt.Sprint(checkpoints[name])})
			}
			return pterm.DefaultTable.WithHasHeader(true).WithData(data).Render()
		})
	},
}

var checkpointDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "删除检查点",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a app.App) error {
			if err := a.Backend().ChangeLog().DeleteCheckpoint(ctx, args[0]); err != nil {
				return err
			}
			pterm.Success.Printfln("已删除检查点 %s", args[0])
			return nil
		})
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointSetCmd, checkpointListCmd, checkpointDeleteCmd)
}
