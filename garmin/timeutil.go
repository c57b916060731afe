package garmin

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 测试中可替换的本地时钟
var nowLocal = func() time.Time {
	return time.Now()
}

// truncateToDay 归零到当天零点
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseTimeRange 解析时间区间表达式为 [start, end]
// 支持相对区间 "7d"/"30d"/"90d"、命名区间 "ytd"/"this-week"/"this-month"/"this-year"、
// 绝对区间 "YYYY-MM-DD:YYYY-MM-DD"
func ParseTimeRange(period string) (start, end time.Time, err error) {
	today := truncateToDay(nowLocal())

	if strings.HasSuffix(period, "d") {
		days, convErr := strconv.Atoi(strings.TrimSuffix(period, "d"))
		if convErr != nil {
			return start, end, NewValidationError("invalid relative period format: %s", period)
		}
		return today.AddDate(0, 0, -days), today, nil
	}

	switch period {
	case "ytd", "this-year":
		return time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location()), today, nil
	case "this-week":
		// 周一为一周之始
		return today.AddDate(0, 0, -daysSinceMonday(today)), today, nil
	case "this-month":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), today, nil
	}

	if strings.Contains(period, ":") {
		parts := strings.SplitN(period, ":", 2)
		start, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[0]), today.Location())
		if err != nil {
			return start, end, NewValidationError("invalid absolute date range format: %s, use YYYY-MM-DD:YYYY-MM-DD", period)
		}
		end, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(parts[1]), today.Location())
		if err != nil {
			return start, end, NewValidationError("invalid absolute date range format: %s, use YYYY-MM-DD:YYYY-MM-DD", period)
		}
		if start.After(end) {
			return start, end, NewValidationError("start date must be before or equal to end date")
		}
		return start, end, nil
	}

	return start, end, NewValidationError(
		"invalid period format: %s, supported: '7d', '30d', '90d', 'ytd', 'this-week', 'this-month', 'this-year', or 'YYYY-MM-DD:YYYY-MM-DD'", period)
}

// ValidateRangeSpan 校验区间跨度,分页类查询调用前置检查
// [注意]: 按首尾日期差("30d" 的区间差恰为 30 天)而非含首尾的日历天数校验,
// 默认区间 "30d" 在 maxDays=30 下必须通过
func ValidateRangeSpan(start, end time.Time, maxDays int) error {
	if end.Before(start) {
		return NewValidationError("date range must cover at least 1 day")
	}
	span := RangeDays(start, end) - 1
	if span > maxDays {
		return NewValidationError("date range spans %d days, maximum is %d", span, maxDays)
	}
	return nil
}

// RangeDays 区间覆盖的天数(含首尾)
// [注意]: 按日历日计算,夏令时导致的 23/25 小时天不影响结果
func RangeDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// GetRangeDescription 生成区间的人类可读描述,解析失败时原样返回
func GetRangeDescription(period string) string {
	start, end, err := ParseTimeRange(period)
	if err != nil {
		return period
	}

	switch {
	case strings.HasSuffix(period, "d"):
		return fmt.Sprintf("Last %s days", strings.TrimSuffix(period, "d"))
	case period == "ytd":
		return fmt.Sprintf("Year to date (%d)", start.Year())
	case period == "this-week":
		return "This week"
	case period == "this-month":
		return start.Format("January 2006")
	case period == "this-year":
		return fmt.Sprintf("Year %d", start.Year())
	default:
		return fmt.Sprintf("%s to %s (%d days)",
			start.Format("2006-01-02"), end.Format("2006-01-02"), RangeDays(start, end))
	}
}

// FormatDateForAPI 上游 API 统一使用 YYYY-MM-DD
func FormatDateForAPI(t time.Time) string {
	return t.Format("2006-01-02")
}

// TodayDateString 今天的 YYYY-MM-DD
func TodayDateString() string {
	return FormatDateForAPI(nowLocal())
}

// GetWeekRanges 把区间切为周一至周日的周片段,首尾对齐到实际区间
func GetWeekRanges(start, end time.Time) [][2]time.Time {
	var weeks [][2]time.Time
	current := start

	for !current.After(end) {
		weekStart := current.AddDate(0, 0, -daysSinceMonday(current))
		weekEnd := weekStart.AddDate(0, 0, 6)

		if weekStart.Before(start) {
			weekStart = start
		}
		if weekEnd.After(end) {
			weekEnd = end
		}

		weeks = append(weeks, [2]time.Time{weekStart, weekEnd})
		current = weekEnd.AddDate(0, 0, 1)
	}

	return weeks
}

// daysSinceMonday 距本周一的天数,周一为 0
func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDateString 解析日期入参
// 支持 "today"、"yesterday"、"YYYY-MM-DD" 及 ISO-8601 字符串
func ParseDateString(dateStr string) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(dateStr))

	switch s {
	case "today":
		return truncateToDay(nowLocal()), nil
	case "yesterday":
		return truncateToDay(nowLocal().AddDate(0, 0, -1)), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	if t, err := ParseDateTimeString(s); err == nil {
		return t, nil
	}
	return time.Time{}, NewValidationError("invalid date format: %s, use 'today', 'yesterday', or 'YYYY-MM-DD'", dateStr)
}

// ParseDateTimeString 解析上游返回的时间字符串
// 依次尝试无时区 ISO、带时区 RFC3339 与纯日期
func ParseDateTimeString(s string) (time.Time, error) {
	for _, layout := range []string{
		isoLayout,
		"2006-01-02T15:04:05.999999999",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, NewValidationError("unrecognized datetime: %s", s)
}
