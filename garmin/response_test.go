package garmin

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fixClock 固定时钟,测试结束后还原
func fixClock(t *testing.T, fixed time.Time) {
	t.Helper()
	old := nowUTC
	nowUTC = func() time.Time { return fixed }
	t.Cleanup(func() { nowUTC = old })
}

func TestBuildResponseNormalizesDatetime(t *testing.T) {
	ts := time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC)
	body, err := BuildResponse(map[string]any{"ts": ts}, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-10-15T14:30:00", gjson.Get(body, "data.ts").String())
}

func TestBuildResponseNormalizesNestedDatetime(t *testing.T) {
	ts := time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC)
	data := map[string]any{
		"items": []any{
			map[string]any{"start": ts, "label": "run"},
		},
	}
	body, err := BuildResponse(data, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-10-15T14:30:00", gjson.Get(body, "data.items.0.start").String())
	assert.Equal(t, "run", gjson.Get(body, "data.items.0.label").String())
	// 写时复制,原始 map 不被修改
	_, stillTime := data["items"].([]any)[0].(map[string]any)["start"].(time.Time)
	assert.True(t, stillTime)
}

func TestBuildResponseCompactOutput(t *testing.T) {
	body, err := BuildResponse(map[string]any{"a": 1, "b": []any{1, 2}}, nil, nil, nil)
	require.NoError(t, err)

	assert.NotContains(t, body, "\n")
	assert.NotContains(t, body, ": ")
	assert.NotContains(t, body, ", ")
}

func TestBuildResponseFetchedAt(t *testing.T) {
	fixClock(t, time.Date(2025, 10, 15, 14, 30, 0, 123456000, time.UTC))

	body, err := BuildResponse(nil, nil, nil, nil)
	require.NoError(t, err)

	fetchedAt := gjson.Get(body, "metadata.fetched_at").String()
	assert.Equal(t, "2025-10-15T14:30:00.123456Z", fetchedAt)
	assert.True(t, strings.HasSuffix(fetchedAt, "Z"))
}

func TestBuildResponseAnalysisOmittedWhenEmpty(t *testing.T) {
	body, err := BuildResponse(map[string]any{"a": 1}, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, gjson.Get(body, "analysis").Exists())

	body, err = BuildResponse(map[string]any{"a": 1}, map[string]any{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, gjson.Get(body, "analysis").Exists())

	body, err = BuildResponse(map[string]any{"a": 1}, map[string]any{"insights": []any{"x"}}, nil, nil)
	require.NoError(t, err)
	assert.True(t, gjson.Get(body, "analysis").Exists())
}

func TestBuildResponsePaginationBlock(t *testing.T) {
	info := BuildPaginationInfo(3, 10, 2, false, nil)
	body, err := BuildResponse(map[string]any{}, nil, nil, info)
	require.NoError(t, err)

	require.True(t, gjson.Get(body, "pagination").Exists())
	assert.Equal(t, gjson.Null, gjson.Get(body, "pagination.cursor").Type)
	assert.False(t, gjson.Get(body, "pagination.has_more").Bool())
	assert.EqualValues(t, 10, gjson.Get(body, "pagination.limit").Int())
	assert.EqualValues(t, 3, gjson.Get(body, "pagination.returned").Int())

	// 非分页查询不携带 pagination 块
	body, err = BuildResponse(map[string]any{}, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, gjson.Get(body, "pagination").Exists())
}

func TestBuildResponseMetadataNotMutated(t *testing.T) {
	metadata := map[string]any{"unit": "metric"}
	_, err := BuildResponse(nil, nil, metadata, nil)
	require.NoError(t, err)

	_, injected := metadata["fetched_at"]
	assert.False(t, injected)
}

func TestBuildResponseDepthBound(t *testing.T) {
	// 构造超过深度上限的嵌套
	nested := map[string]any{}
	top := nested
	for i := 0; i < maxNormalizeDepth+5; i++ {
		inner := map[string]any{}
		nested["next"] = inner
		nested = inner
	}

	_, err := BuildResponse(top, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestBuildErrorResponse(t *testing.T) {
	fixClock(t, time.Date(2025, 10, 15, 14, 30, 0, 0, time.UTC))

	body := BuildErrorResponse("limit must be between 1 and 50", ErrorTypeValidation,
		[]string{"Reduce the limit"})

	assert.Equal(t, ErrorTypeValidation, gjson.Get(body, "error.type").String())
	assert.Equal(t, "limit must be between 1 and 50", gjson.Get(body, "error.message").String())
	assert.True(t, strings.HasSuffix(gjson.Get(body, "error.timestamp").String(), "Z"))
	assert.Equal(t, "Reduce the limit", gjson.Get(body, "error.suggestions.0").String())
	assert.False(t, gjson.Get(body, "data").Exists())

	body = BuildErrorResponse("boom", ErrorTypeInternal, nil)
	assert.False(t, gjson.Get(body, "error.suggestions").Exists())
}

func TestBuildErrorResponseFromErr(t *testing.T) {
	_, err := DecodeCursor("invalid-cursor-data")
	require.Error(t, err)

	body := BuildErrorResponseFromErr(err)
	assert.Equal(t, ErrorTypeValidation, gjson.Get(body, "error.type").String())
	assert.Contains(t, gjson.Get(body, "error.suggestions.0").String(), "restart pagination")

	body = BuildErrorResponseFromErr(&APIError{Kind: KindRateLimit})
	assert.Equal(t, ErrorTypeRateLimit, gjson.Get(body, "error.type").String())

	body = BuildErrorResponseFromErr(&APIError{Kind: KindAuth})
	assert.Equal(t, ErrorTypeAuth, gjson.Get(body, "error.type").String())

	body = BuildErrorResponseFromErr(&APIError{Kind: KindNotFound, Message: "activity not found"})
	assert.Equal(t, ErrorTypeNotFound, gjson.Get(body, "error.type").String())
}

func TestFormatDateWithDay(t *testing.T) {
	// 2025-10-15 是周三
	dt := time.Date(2025, 10, 15, 14, 30, 0, 0, time.Local)
	out := FormatDateWithDay(dt)

	assert.Equal(t, "2025-10-15T14:30:00", out["datetime"])
	assert.Equal(t, "2025-10-15", out["date"])
	assert.Equal(t, "Wednesday", out["day_of_week"])
	assert.Equal(t, "Wednesday, October 15, 2025 at 02:30 PM", out["formatted"])
}

func TestFormatDateStringWithDay(t *testing.T) {
	out, ok := FormatDateStringWithDay("2025-10-15T14:30:00").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2025-10-15T14:30:00", out["datetime"])
	assert.Equal(t, "Wednesday", out["day_of_week"])

	// 无法解析时原样透传
	assert.Equal(t, "not-a-date", FormatDateStringWithDay("not-a-date"))
	assert.Nil(t, FormatDateStringWithDay(""))
}
