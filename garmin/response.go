package garmin

import (
	"encoding/json"
	"fmt"
	"time"
)

// 归一化递归深度上限,超过即视为循环引用
const maxNormalizeDepth = 100

// 响应中所有业务时间统一为无时区 ISO-8601
const isoLayout = "2006-01-02T15:04:05"

// envelope 成功响应信封,字段顺序即输出顺序
type envelope struct {
	Data       any             `json:"data"`
	Analysis   map[string]any  `json:"analysis,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Metadata   map[string]any  `json:"metadata"`
}

type errorBody struct {
	Type        string   `json:"type"`
	Message     string   `json:"message"`
	Timestamp   string   `json:"timestamp"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// BuildResponse 构造成功响应 JSON 字符串
// data 恒存在(可为 null);analysis 为空时整体省略;pagination 仅分页查询携带;
// metadata 恒注入 fetched_at(UTC,以字面量 Z 结尾)
// [注意]: 输出为紧凑 JSON,":" 和 "," 后不含空格
func BuildResponse(data any, analysis map[string]any, metadata map[string]any, pagination *PaginationInfo) (string, error) {
	normData, err := normalizeValue(data, 0)
	if err != nil {
		return "", err
	}

	var normAnalysis map[string]any
	if len(analysis) > 0 {
		v, err := normalizeValue(analysis, 0)
		if err != nil {
			return "", err
		}
		normAnalysis = v.(map[string]any)
	}

	// 复制而非原地修改,调用方的 metadata 不被污染
	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		nv, err := normalizeValue(v, 0)
		if err != nil {
			return "", err
		}
		meta[k] = nv
	}
	meta["fetched_at"] = nowUTC().Format("2006-01-02T15:04:05.000000") + "Z"

	b, err := json.Marshal(envelope{
		Data:       normData,
		Analysis:   normAnalysis,
		Pagination: pagination,
		Metadata:   meta,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}

// BuildErrorResponse 构造错误响应 JSON 字符串
// 错误响应不含 data/metadata,只有 error 块,time 戳与 fetched_at 同格式
func BuildErrorResponse(message, errorType string, suggestions []string) string {
	b, _ := json.Marshal(errorEnvelope{Error: errorBody{
		Type:        errorType,
		Message:     message,
		Timestamp:   nowUTC().Format("2006-01-02T15:04:05.000000") + "Z",
		Suggestions: suggestions,
	}})
	return string(b)
}

// BuildErrorResponseFromErr 按错误分类构造错误响应
func BuildErrorResponseFromErr(err error) string {
	errorType, message, suggestions := ClassifyError(err)
	return BuildErrorResponse(message, errorType, suggestions)
}

// 测试中可替换的时钟
var nowUTC = func() time.Time {
	return time.Now().UTC()
}

// normalizeValue 深度遍历,把 time.Time 统一替换为无时区 ISO-8601 字符串
// [重要]: 写时复制,原始 map/slice 不被修改;深度超限返回 ErrSerialization
func normalizeValue(v any, depth int) (any, error) {
	if depth > maxNormalizeDepth {
		return nil, fmt.Errorf("%w: value nesting exceeds %d levels", ErrSerialization, maxNormalizeDepth)
	}

	switch val := v.(type) {
	case time.Time:
		return val.Format(isoLayout), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.Format(isoLayout), nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			nv, err := normalizeValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			nv, err := normalizeValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			nv, err := normalizeValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}

// FormatDateWithDay 格式化日期并附带星期信息,供 LLM 直接引用
func FormatDateWithDay(t time.Time) map[string]any {
	return map[string]any{
		"datetime":    t.Format(isoLayout),
		"date":        t.Format("2006-01-02"),
		"day_of_week": t.Format("Monday"),
		"formatted":   t.Format("Monday, January 02, 2006 at 03:04 PM"),
	}
}

// FormatDateStringWithDay 解析上游返回的时间字符串并附带星期信息
// [注意]: datetime 字段保留原始字符串,解析失败时原样返回不做增强
func FormatDateStringWithDay(s string) any {
	if s == "" {
		return nil
	}
	t, err := ParseDateTimeString(s)
	if err != nil {
		return s
	}
	out := FormatDateWithDay(t)
	out["datetime"] = s
	return out
}
