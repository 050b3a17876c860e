package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/dualchain/internal/app"
	"github.com/weisyn/dualchain/pkg/types"
)

var headCmd = &cobra.Command{
	Use:   "head [chain...]",
	Short: "查看链头与主链证明",
	Long:  "查看参考链（BTCR）与主链（PRIM）的当前链头；chain 可以是 4 字节标识或 reference/primary",
	RunE: func(cmd *cobra.Command, args []string) error {
		chains, err := chainsFromArgs(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a app.App) error {
			data := pterm.TableData{{"链", "哈希", "累积工作量", "只读"}}
			svc := a.ForkChoice()
			for _, magic := range chains {
				head := svc.Head(magic)
				if types.IsNilHeader(head) {
					data = append(data, []string{magic.String(), "-", "-", fmt.Sprint(svc.IsReadOnly(magic))})
					continue
				}
				data = append(data, []string{
					magic.String(),
					types.FormatHash(magic, head.HashBytes()),
					head.CumulativeWork().String(),
					fmt.Sprint(svc.IsReadOnly(magic)),
				})
			}
			if err := pterm.DefaultTable.WithHasHeader(true).WithData(data).Render(); err != nil {
				return err
			}

			proof, err := a.Backend().Proof(ctx)
			if err != nil {
				return err
			}
			if proof == nil {
				pterm.Info.Println("主链尚未锚定参考链证明")
				return nil
			}
			pterm.Info.Printfln("主链证明: %s (高度 %d)", types.FormatHash(types.ReferenceMagic, proof.Hash), proof.Height)
			return nil
		})
	},
}
