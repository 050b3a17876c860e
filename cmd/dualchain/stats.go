package main

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/dualchain/internal/app"
	"github.com/weisyn/dualchain/internal/core/infrastructure/metrics"
	"github.com/weisyn/dualchain/pkg/types"
)

var statsShowMetrics bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "存储统计",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a app.App) error {
			stats, err := a.Backend().Stats(ctx)
			if err != nil {
				return err
			}

			pterm.DefaultSection.Println("链")
			data := pterm.TableData{{"链", "区块头", "活跃区块", "孤块", "链头"}}
			for _, magic := range []types.ChainMagic{types.ReferenceMagic, types.PrimaryMagic} {
				cs := stats.Chains[magic]
				head := "-"
				if !types.IsNilHeader(cs.Head) {
					head = types.FormatHash(magic, cs.Head.HashBytes())
				}
				data = append(data, []string{
					magic.String(),
					fmt.Sprint(cs.Headers),
					fmt.Sprint(cs.Active),
					fmt.Sprint(a.ForkChoice().OrphanCount(magic)),
					head,
				})
			}
			if err := pterm.DefaultTable.WithHasHeader(true).WithData(data).Render(); err != nil {
				return err
			}

			pterm.DefaultSection.Println("变更日志")
			logData := pterm.TableData{
				{"长度", fmt.Sprint(stats.LogLen)},
				{"已应用", fmt.Sprint(stats.LogApplied)},
			}
			if stats.Cache != nil {
				logData = append(logData,
					[]string{"缓存命中", fmt.Sprint(stats.Cache.Hits)},
					[]string{"缓存未命中", fmt.Sprint(stats.Cache.Misses)},
				)
			}
			if err := pterm.DefaultTable.WithData(logData).Render(); err != nil {
				return err
			}
			if stats.LogApplied < stats.LogLen {
				pterm.Warning.Printfln("有 %d 条记录尚未应用，请执行 recover", stats.LogLen-stats.LogApplied)
			}

			if !statsShowMetrics {
				return nil
			}
			samples, err := metrics.Snapshot(a.Metrics().Gatherer())
			if err != nil {
				return err
			}
			pterm.DefaultSection.Println("指标")
			metricData := pterm.TableData{{"名称", "标签", "值"}}
			for _, s := range samples {
				metricData = append(metricData, []string{s.Name, s.Labels, fmt.Sprint(s.Value)})
			}
			return pterm.DefaultTable.WithHasHeader(true).WithData(metricData).Render()
		})
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsShowMetrics, "metrics", false, "同时输出本进程的指标快照")
}
