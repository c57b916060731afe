package garmin

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnitSystem 输出单位制
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// 单位换算常量
const (
	metersPerMile = 1609.34
	feetPerMeter  = 3.28084
	mphPerMps     = 2.23694
	gramsPerPound = 453.592
)

// ParseUnitSystem 解析单位制入参,空值回落到公制
func ParseUnitSystem(s string) (UnitSystem, error) {
	switch s {
	case "", string(UnitMetric):
		return UnitMetric, nil
	case string(UnitImperial):
		return UnitImperial, nil
	default:
		return "", NewValidationError("unit must be 'metric' or 'imperial', got %q", s)
	}
}

// FormatDistance 距离(米)格式化
func FormatDistance(meters float64, unit UnitSystem) string {
	if unit == UnitImperial {
		return fmt.Sprintf("%.2f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatDuration 时长(秒)格式化,省略前导为零的单位
func FormatDuration(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatElevation 海拔(米)格式化
func FormatElevation(meters float64, unit UnitSystem) string {
	if unit == UnitImperial {
		return fmt.Sprintf("%.0f ft", meters*feetPerMeter)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// FormatSpeed 速度(米/秒)格式化
func FormatSpeed(mps float64, unit UnitSystem) string {
	if unit == UnitImperial {
		return fmt.Sprintf("%.2f mph", mps*mphPerMps)
	}
	return fmt.Sprintf("%.2f km/h", mps*3.6)
}

// FormatPace 配速(米/秒)格式化为 "M:SS /km" 或 "M:SS /mi"
func FormatPace(mps float64, unit UnitSystem) string {
	if mps == 0 {
		return "N/A"
	}
	secondsPer := 1000 / mps
	suffix := "/km"
	if unit == UnitImperial {
		secondsPer = metersPerMile / mps
		suffix = "/mi"
	}
	minutes := int(secondsPer) / 60
	seconds := int(secondsPer) % 60
	return fmt.Sprintf("%d:%02d %s", minutes, seconds, suffix)
}

// FormatWeight 体重(克)格式化
func FormatWeight(grams float64, unit UnitSystem) string {
	if unit == UnitImperial {
		return fmt.Sprintf("%.2f lbs", grams/gramsPerPound)
	}
	return fmt.Sprintf("%.2f kg", grams/1000)
}

// FormatActivity 增强活动数据:在原始字段旁补充人类可读格式
// [设计决策]: 写时复制原始 map,上游数值字段被替换为 {raw, formatted} 结构,
// 未知字段原样透传,LLM 同时拿到原始值与可读文本
func FormatActivity(activity map[string]any, unit UnitSystem) map[string]any {
	formatted := make(map[string]any, len(activity))
	for k, v := range activity {
		formatted[k] = v
	}

	if meters, ok := numberField(activity, "distance"); ok {
		formatted["distance"] = map[string]any{
			"meters":    meters,
			"formatted": FormatDistance(meters, unit),
		}
	}

	if seconds, ok := numberField(activity, "duration"); ok {
		formatted["duration"] = map[string]any{
			"seconds":   seconds,
			"formatted": FormatDuration(seconds),
		}
	}

	if meters, ok := numberField(activity, "elevationGain"); ok {
		formatted["elevationGain"] = map[string]any{
			"meters":    meters,
			"formatted": FormatElevation(meters, unit),
		}
	}

	if mps, ok := numberField(activity, "averageSpeed"); ok {
		formatted["averageSpeed"] = map[string]any{
			"mps":             mps,
			"formatted_speed": FormatSpeed(mps, unit),
			"formatted_pace":  FormatPace(mps, unit),
		}
	}

	for _, field := range []string{"startTimeLocal", "startTimeGMT", "endTimeLocal"} {
		if s, ok := activity[field].(string); ok && s != "" {
			formatted[field] = FormatDateStringWithDay(s)
		}
	}

	if avgHR, ok := numberField(activity, "averageHR"); ok {
		formatted["heart_rate"] = map[string]any{"avg_bpm": roundHalfUp(avgHR)}
	}
	if maxHR, ok := numberField(activity, "maxHR"); ok {
		hr, ok := formatted["heart_rate"].(map[string]any)
		if !ok {
			hr = map[string]any{}
			formatted["heart_rate"] = hr
		}
		hr["max_bpm"] = roundHalfUp(maxHR)
	}

	if avgPower, ok := numberField(activity, "avgPower"); ok {
		formatted["power"] = map[string]any{"avg_watts": roundHalfUp(avgPower)}
	}
	if maxPower, ok := numberField(activity, "maxPower"); ok {
		p, ok := formatted["power"].(map[string]any)
		if !ok {
			p = map[string]any{}
			formatted["power"] = p
		}
		p["max_watts"] = roundHalfUp(maxPower)
	}

	// 跑步步频优先,否则取骑行踏频
	if cadence, ok := numberField(activity, "avgRunCadence"); ok {
		formatted["cadence"] = map[string]any{"avg_spm": roundHalfUp(cadence)}
	} else if cadence, ok := numberField(activity, "averageBikingCadenceInRevPerMinute"); ok {
		formatted["cadence"] = map[string]any{"avg_rpm": roundHalfUp(cadence)}
	}

	return formatted
}

// FormatHealthMetric 增强健康指标数据(体重、步数、心率)
func FormatHealthMetric(metric map[string]any, unit UnitSystem) map[string]any {
	formatted := make(map[string]any, len(metric))
	for k, v := range metric {
		formatted[k] = v
	}

	if grams, ok := numberField(metric, "weight"); ok {
		formatted["weight"] = map[string]any{
			"grams":     grams,
			"formatted": FormatWeight(grams, unit),
		}
	}

	if steps, ok := numberField(metric, "steps"); ok {
		formatted["steps"] = map[string]any{
			"value":     steps,
			"formatted": formatThousands(int64(steps)),
		}
	}

	if hr, ok := numberField(metric, "heartRate"); ok {
		formatted["heartRate"] = map[string]any{
			"bpm":       hr,
			"formatted": fmt.Sprintf("%v bpm", trimFloat(hr)),
		}
	}

	return formatted
}

// AggregateActivities 跨活动聚合统计
func AggregateActivities(activities []map[string]any, unit UnitSystem) map[string]any {
	if len(activities) == 0 {
		return map[string]any{}
	}

	var totalDistance, totalTime, totalElevation, totalCalories float64
	for _, act := range activities {
		if v, ok := numberField(act, "distance"); ok {
			totalDistance += v
		}
		if v, ok := numberField(act, "duration"); ok {
			totalTime += v
		}
		if v, ok := numberField(act, "elevationGain"); ok {
			totalElevation += v
		}
		if v, ok := numberField(act, "calories"); ok {
			totalCalories += v
		}
	}

	aggregated := map[string]any{
		"count": len(activities),
		"total_distance": map[string]any{
			"meters":    totalDistance,
			"formatted": FormatDistance(totalDistance, unit),
		},
		"total_time": map[string]any{
			"seconds":   totalTime,
			"formatted": FormatDuration(totalTime),
		},
		"total_elevation": map[string]any{
			"meters":    totalElevation,
			"formatted": FormatElevation(totalElevation, unit),
		},
	}

	if totalCalories > 0 {
		aggregated["total_calories"] = totalCalories
	}

	avgDistance := totalDistance / float64(len(activities))
	aggregated["avg_distance_per_activity"] = map[string]any{
		"meters":    avgDistance,
		"formatted": FormatDistance(avgDistance, unit),
	}

	if totalTime > 0 && totalDistance > 0 {
		avgSpeed := totalDistance / totalTime
		aggregated["avg_speed"] = map[string]any{
			"mps":             avgSpeed,
			"formatted_speed": FormatSpeed(avgSpeed, unit),
			"formatted_pace":  FormatPace(avgSpeed, unit),
		}
	}

	return aggregated
}

// numberField 从 JSON 解码的 map 中取数值字段
func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func roundHalfUp(v float64) int {
	return int(math.Round(v))
}

// formatThousands 千分位分隔,如 12345 -> "12,345"
func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// trimFloat 整数值去掉小数部分展示
func trimFloat(v float64) any {
	if v == math.Trunc(v) {
		return int64(v)
	}
	return v
}
