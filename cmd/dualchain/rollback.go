package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/dualchain/internal/app"
	"github.com/weisyn/dualchain/pkg/types"
)

var rollbackFlags struct {
	to         int64
	count      int
	checkpoint string
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <chain>",
	Short: "撤销某条链的变更记录",
	Long: `追加反向记录撤销指定链的变更；历史记录不会被删除。

必须且只能指定 --to、--count、--checkpoint 之一。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		magic, err := parseChain(args[0])
		if err != nil {
			return err
		}
		selected := 0
		if rollbackFlags.to >= 0 {
			selected++
		}
		if rollbackFlags.count > 0 {
			selected++
		}
		if rollbackFlags.checkpoint != "" {
			selected++
		}
		if selected != 1 {
			return fmt.Errorf("必须且只能指定 --to、--count、--checkpoint 之一")
		}

		return withApp(cmd, func(ctx context.Context, a app.App) error {
			svc := a.ForkChoice()
			var result *types.RollbackResult
			switch {
			case rollbackFlags.to >= 0:
				result, err = svc.RollbackTo(ctx, magic, uint64(rollbackFlags.to))
			case rollbackFlags.count > 0:
				result, err = svc.RollbackCount(ctx, magic, rollbackFlags.count)
			default:
				result, err = svc.RollbackToCheckpoint(ctx, magic, rollbackFlags.checkpoint)
			}
			if err != nil {
				return err
			}
			if len(result.Records) == 0 {
				pterm.Info.Printfln("%s 链没有需要撤销的记录", magic)
				return nil
			}
			pterm.Success.Printfln("已撤销 %d 条记录（目标序号 %d），反向记录起始序号 %d",
				len(result.Records), result.Target, result.FirstIndex)
			if head := svc.Head(magic); !types.IsNilHeader(head) {
				pterm.Info.Printfln("当前链头: %s", types.FormatHash(magic, head.HashBytes()))
			} else {
				pterm.Info.Printfln("%s 链已清空", magic)
			}
			return nil
		})
	},
}

func init() {
	rollbackCmd.Flags().Int64Var(&rollbackFlags.to, "to", -1, "撤销序号 >= 该值的记录")
	rollbackCmd.Flags().IntVar(&rollbackFlags.count, "count", 0, "撤销最近 n 条记录")
	rollbackCmd.Flags().StringVar(&rollbackFlags.checkpoint, "checkpoint", "", "回滚到命名检查点")
}
