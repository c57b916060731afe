package garmin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixLocalClock 固定本地时钟为 2025-10-15(周三)
func fixLocalClock(t *testing.T) time.Time {
	t.Helper()
	fixed := time.Date(2025, 10, 15, 9, 30, 0, 0, time.Local)
	old := nowLocal
	nowLocal = func() time.Time { return fixed }
	t.Cleanup(func() { nowLocal = old })
	return fixed
}

func TestParseTimeRangeRelative(t *testing.T) {
	fixLocalClock(t)

	start, end, err := ParseTimeRange("7d")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-08", FormatDateForAPI(start))
	assert.Equal(t, "2025-10-15", FormatDateForAPI(end))

	start, _, err = ParseTimeRange("30d")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-15", FormatDateForAPI(start))

	_, _, err = ParseTimeRange("xd")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseTimeRangeNamed(t *testing.T) {
	fixLocalClock(t)

	start, end, err := ParseTimeRange("ytd")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", FormatDateForAPI(start))
	assert.Equal(t, "2025-10-15", FormatDateForAPI(end))

	// 2025-10-15 是周三,本周一为 10-13
	start, _, err = ParseTimeRange("this-week")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-13", FormatDateForAPI(start))

	start, _, err = ParseTimeRange("this-month")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", FormatDateForAPI(start))

	start, _, err = ParseTimeRange("this-year")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", FormatDateForAPI(start))
}

func TestParseTimeRangeAbsolute(t *testing.T) {
	start, end, err := ParseTimeRange("2025-01-01:2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", FormatDateForAPI(start))
	assert.Equal(t, "2025-01-31", FormatDateForAPI(end))

	// 起止颠倒
	_, _, err = ParseTimeRange("2025-02-01:2025-01-01")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = ParseTimeRange("2025-1-1:2025-01-31")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = ParseTimeRange("whenever")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateRangeSpan(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)

	assert.NoError(t, ValidateRangeSpan(start, start, 30))
	assert.NoError(t, ValidateRangeSpan(start, start.AddDate(0, 0, 30), 30))
	assert.ErrorIs(t, ValidateRangeSpan(start, start.AddDate(0, 0, 31), 30), ErrValidation)
	assert.ErrorIs(t, ValidateRangeSpan(start, start.AddDate(0, 0, -1), 30), ErrValidation)
}

func TestDefaultPeriodPassesRangeValidation(t *testing.T) {
	fixLocalClock(t)

	// "30d" 是多个工具的默认区间,必须在 30 天上限内通过校验
	start, end, err := ParseTimeRange("30d")
	require.NoError(t, err)
	assert.NoError(t, ValidateRangeSpan(start, end, 30))

	start, end, err = ParseTimeRange("7d")
	require.NoError(t, err)
	assert.NoError(t, ValidateRangeSpan(start, end, 30))
}

func TestRangeDays(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	assert.Equal(t, 1, RangeDays(start, start))
	assert.Equal(t, 31, RangeDays(start, start.AddDate(0, 0, 30)))
}

func TestGetRangeDescription(t *testing.T) {
	fixLocalClock(t)

	assert.Equal(t, "Last 7 days", GetRangeDescription("7d"))
	assert.Equal(t, "Year to date (2025)", GetRangeDescription("ytd"))
	assert.Equal(t, "This week", GetRangeDescription("this-week"))
	assert.Equal(t, "October 2025", GetRangeDescription("this-month"))
	assert.Equal(t, "Year 2025", GetRangeDescription("this-year"))
	assert.Equal(t, "2025-01-01 to 2025-01-31 (31 days)", GetRangeDescription("2025-01-01:2025-01-31"))
	// 解析失败原样返回
	assert.Equal(t, "whenever", GetRangeDescription("whenever"))
}

func TestGetWeekRanges(t *testing.T) {
	// 2025-10-08(周三)到 2025-10-21(周二),跨三个自然周
	start := time.Date(2025, 10, 8, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 10, 21, 0, 0, 0, 0, time.Local)

	weeks := GetWeekRanges(start, end)
	require.Len(t, weeks, 3)

	// 首周起点夹到区间起点
	assert.Equal(t, "2025-10-08", FormatDateForAPI(weeks[0][0]))
	assert.Equal(t, "2025-10-12", FormatDateForAPI(weeks[0][1]))

	assert.Equal(t, "2025-10-13", FormatDateForAPI(weeks[1][0]))
	assert.Equal(t, "2025-10-19", FormatDateForAPI(weeks[1][1]))

	// 末周终点夹到区间终点
	assert.Equal(t, "2025-10-20", FormatDateForAPI(weeks[2][0]))
	assert.Equal(t, "2025-10-21", FormatDateForAPI(weeks[2][1]))
}

func TestParseDateString(t *testing.T) {
	fixed := fixLocalClock(t)

	day, err := ParseDateString("today")
	require.NoError(t, err)
	assert.Equal(t, FormatDateForAPI(fixed), FormatDateForAPI(day))
	assert.Equal(t, 0, day.Hour())

	day, err = ParseDateString("yesterday")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-14", FormatDateForAPI(day))

	day, err = ParseDateString(" 2025-06-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", FormatDateForAPI(day))

	day, err = ParseDateString("2025-06-01T08:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", FormatDateForAPI(day))

	_, err = ParseDateString("june first")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseDateTimeString(t *testing.T) {
	tt, err := ParseDateTimeString("2025-10-15T06:30:00")
	require.NoError(t, err)
	assert.Equal(t, 6, tt.Hour())

	tt, err = ParseDateTimeString("2025-10-15 06:30:00")
	require.NoError(t, err)
	assert.Equal(t, 30, tt.Minute())

	tt, err = ParseDateTimeString("2025-10-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-15", FormatDateForAPI(tt))

	_, err = ParseDateTimeString("nope")
	assert.Error(t, err)
}
