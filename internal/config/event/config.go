package event

import "github.com/weisyn/dualchain/pkg/types"

// EventOptions 事件总线配置
type EventOptions struct {
	Enabled bool `json:"enabled"`
	// HistorySize 每种事件保留的最近条数，0 不保留
	HistorySize int `json:"history_size"`
}

// Config 事件配置
type Config struct {
	options *EventOptions
}

// New 用户 event 段覆盖默认值；负的 history_size 忽略
func New(user *types.UserEventConfig) *Config {
	options := &EventOptions{Enabled: defaultEnabled, HistorySize: defaultHistorySize}
	if user != nil {
		if user.Enabled != nil {
			options.Enabled = *user.Enabled
		}
		if user.HistorySize != nil && *user.HistorySize >= 0 {
			options.HistorySize = *user.HistorySize
		}
	}
	return &Config{options: options}
}

// NewFromOptions nil 视为关闭
func NewFromOptions(options *EventOptions) *Config {
	return &Config{options: options}
}

func (c *Config) GetOptions() *EventOptions { return c.options }

func (c *Config) IsEnabled() bool { return c.options != nil && c.options.Enabled }

func (c *Config) GetHistorySize() int {
	if c.options == nil {
		return 0
	}
	return c.options.HistorySize
}
