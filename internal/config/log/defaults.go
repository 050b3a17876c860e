package log

import "path/filepath"

const (
	defaultLogLevel = "info"

	// 未配置文件路径时只写控制台
	defaultToConsole = true

	// lumberjack 轮转：MB / 份 / 天
	defaultMaxSize    = 64
	defaultMaxBackups = 8
	defaultMaxAge     = 14
	defaultCompress   = true

	defaultEnableCaller = true
	// 重组回滚失败时需要堆栈定位
	defaultEnableStacktrace = true
)

// defaultLogPath {data_dir}/logs/dualchain.log；data_dir 为空时相对工作目录
func defaultLogPath(dataDir string) string {
	if dataDir == "" {
		dataDir = filepath.Join(".", "data")
	}
	return filepath.Join(dataDir, "logs", "dualchain.log")
}
