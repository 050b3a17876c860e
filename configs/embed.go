// Package configs 内置默认配置
package configs

import _ "embed"

//go:embed dualchain.json
var defaultConfig []byte

// Default 内置默认配置（未指定配置文件时使用）
func Default() []byte {
	return defaultConfig
}
