package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"WarTrack/internal/model"
)

// ErrImportBusy 同一实体的导入任务尚在执行（调用方应返回409或跳过本轮）
var ErrImportBusy = errors.New("该实体的导入任务正在执行中")

// ValidationError 请求参数校验错误，应映射为HTTP 400
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

const dateLayout = "2006-01-02"

// validateDateRange 校验 [start, end] 闭区间。
// nil 表示不过滤；长度必须为2，两端都必须是YYYY-MM-DD，且start不得晚于end
// （字符串区间比较只有在格式受控时才成立）。
func validateDateRange(dateRange []string) (start, end string, err error) {
	if len(dateRange) == 0 {
		return "", "", nil
	}
	if len(dateRange) != 2 {
		return "", "", newValidationError("日期区间必须为 [开始日期, 结束日期] 两个元素，实际%d个", len(dateRange))
	}
	start, end = strings.TrimSpace(dateRange[0]), strings.TrimSpace(dateRange[1])
	if _, perr := time.Parse(dateLayout, start); perr != nil {
		return "", "", newValidationError("开始日期格式错误: %q，应为YYYY-MM-DD", start)
	}
	if _, perr := time.Parse(dateLayout, end); perr != nil {
		return "", "", newValidationError("结束日期格式错误: %q，应为YYYY-MM-DD", end)
	}
	if start > end {
		return "", "", newValidationError("开始日期不能晚于结束日期: %s > %s", start, end)
	}
	return start, end, nil
}

// coerceInt 外部数据边界的数值转换：缺失或空串按0处理，
// 非数值垃圾是本次导入的硬失败（显式报错而不是悄悄丢行）。
func coerceInt(rec model.RawRecord, field string) (int, error) {
	raw := strings.TrimSpace(rec.Get(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("字段%s无法转换为整数: %q", field, raw)
	}
	return n, nil
}

// coerceDate 外部数据边界的日期校验：必须为YYYY-MM-DD
func coerceDate(rec model.RawRecord, field string) (string, error) {
	raw := strings.TrimSpace(rec.Get(field))
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", fmt.Errorf("字段%s日期格式错误: %q，应为YYYY-MM-DD", field, raw)
	}
	return raw, nil
}
