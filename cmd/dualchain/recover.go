package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/dualchain/internal/app"
)

var recoverFlags struct {
	discardPending bool
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "重放未应用的变更批次并解除只读模式",
	Long: `默认重放 pending 批次，使链状态前进到故障前最后一次提交的结果。

--discard-pending 改为丢弃 pending 批次，链状态回到该批次之前。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a app.App) error {
			if recoverFlags.discardPending {
				discarded, err := a.ForkChoice().DiscardPending(ctx)
				if err != nil {
					return err
				}
				if discarded == 0 {
					pterm.Info.Println("没有待应用的变更记录")
					return nil
				}
				pterm.Warning.Printfln("已丢弃 %d 条未应用的变更记录", discarded)
				return nil
			}

			replayed, err := a.ForkChoice().Recover(ctx)
			if err != nil {
				return err
			}
			if replayed == 0 {
				pterm.Info.Println("没有待应用的变更记录")
				return nil
			}
			pterm.Success.Printfln("已重放 %d 条变更记录", replayed)
			return nil
		})
	},
}

func init() {
	recoverCmd.Flags().BoolVar(&recoverFlags.discardPending, "discard-pending", false, "丢弃 pending 批次而不是重放")
}
