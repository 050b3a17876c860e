package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/dualchain/internal/app/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetBuildInfo().String())
	},
}
