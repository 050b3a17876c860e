// Package version 构建信息，Version/Commit/BuildTime 由 ldflags 注入
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/weisyn/dualchain/pkg/types"
)

var (
	Version   = "v0.1.0-dev"
	Commit    = ""
	BuildTime = ""
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit,omitempty"`
	BuildTime string   `json:"build_time,omitempty"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Chains    []string `json:"chains"`
}

// GetBuildInfo ldflags 未注入 Commit 时取 go 工具链记录的 vcs.revision
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Chains:    []string{types.ReferenceMagic.String(), types.PrimaryMagic.String()},
	}
	if info.Commit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.Commit = s.Value
				case "vcs.time":
					if info.BuildTime == "" {
						info.BuildTime = s.Value
					}
				}
			}
		}
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	return info
}

// String 多行文本，供 version 子命令输出
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "dualchain %s", b.Version)
	if b.Commit != "" {
		fmt.Fprintf(&sb, " (%s)", b.Commit)
	}
	if b.BuildTime != "" {
		fmt.Fprintf(&sb, "\n构建时间: %s", b.BuildTime)
	}
	fmt.Fprintf(&sb, "\nGo版本: %s\n平台: %s\n链: %s", b.GoVersion, b.Platform, strings.Join(b.Chains, ", "))
	return sb.String()
}
