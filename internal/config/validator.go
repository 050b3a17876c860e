package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weisyn/dualchain/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidateAppConfig 启动前校验用户配置
//
// 只校验用户显式写出的字段；缺省字段由默认值补齐，不在此处报错。
// 非法值直接拒绝启动，避免静默回退到默认值。
func ValidateAppConfig(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errs []error

	if l := appConfig.Log; l != nil {
		if _, ok := types.ParseLogLevel(derefString(l.Level)); l.Level != nil && !ok {
			errs = append(errs, &ValidationError{Field: "log.level", Message: fmt.Sprintf("未知日志级别 %q", *l.Level)})
		}
		for field, v := range map[string]*int{"log.max_size": l.MaxSize, "log.max_backups": l.MaxBackups, "log.max_age": l.MaxAge} {
			if v != nil && *v < 0 {
				errs = append(errs, &ValidationError{Field: field, Message: "不能为负数"})
			}
		}
	}

	if s := appConfig.Storage; s != nil {
		if s.GCInterval != nil {
			errs = append(errs, validateDuration("storage.gc_interval", *s.GCInterval, true)...)
		}
		if s.MemTableSize != nil && *s.MemTableSize <= 0 {
			errs = append(errs, &ValidationError{Field: "storage.mem_table_size", Message: "必须 > 0"})
		}
	}

	if c := appConfig.Cache; c != nil {
		if c.LifeWindow != nil {
			errs = append(errs, validateDuration("cache.life_window", *c.LifeWindow, false)...)
		}
		if c.MaxEntrySize != nil && *c.MaxEntrySize <= 0 {
			errs = append(errs, &ValidationError{Field: "cache.max_entry_size", Message: "必须 > 0"})
		}
		if c.MemoryFraction != nil && (*c.MemoryFraction <= 0 || *c.MemoryFraction > 1) {
			errs = append(errs, &ValidationError{Field: "cache.memory_fraction", Message: "必须在 (0, 1] 之间"})
		}
	}

	if c := appConfig.Chain; c != nil {
		// max_reorg_depth 为 0 表示不限制回溯深度
		if c.MaxReorgDepth != nil && *c.MaxReorgDepth < 0 {
			errs = append(errs, &ValidationError{Field: "chain.max_reorg_depth", Message: "不能为负数"})
		}
		if c.MaxOrphans != nil && *c.MaxOrphans < 0 {
			errs = append(errs, &ValidationError{Field: "chain.max_orphans", Message: "不能为负数"})
		}
		if c.OrphanTTL != nil {
			errs = append(errs, validateDuration("chain.orphan_ttl", *c.OrphanTTL, false)...)
		}
	}

	if e := appConfig.Event; e != nil && e.HistorySize != nil && *e.HistorySize < 0 {
		errs = append(errs, &ValidationError{Field: "event.history_size", Message: "不能为负数"})
	}

	if m := appConfig.Metrics; m != nil && m.Namespace != nil && strings.ContainsAny(*m.Namespace, " -.") {
		errs = append(errs, &ValidationError{Field: "metrics.namespace", Message: "只能包含字母、数字与下划线"})
	}

	return errors.Join(errs...)
}

func validateDuration(field, value string, allowZero bool) []error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return []error{&ValidationError{Field: field, Message: fmt.Sprintf("时长格式无效: %q（期望类似 \"30m\"）", value)}}
	}
	if d < 0 || (!allowZero && d == 0) {
		return []error{&ValidationError{Field: field, Message: "时长必须为正"}}
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
