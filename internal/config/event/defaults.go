package event

const (
	defaultEnabled = true

	// CLI stats 展示最近的链头切换与重组
	defaultHistorySize = 64
)
