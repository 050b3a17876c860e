package chain

import "time"

const (
	// defaultMaxReorgDepth 回溯窗口；超过即视为孤链
	defaultMaxReorgDepth = 288

	// defaultMaxOrphans 孤块池容量
	defaultMaxOrphans = 100

	// defaultOrphanTTL 孤块过期时间
	defaultOrphanTTL = time.Hour
)
