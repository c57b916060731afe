package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type compareActivitiesRequest struct {
	ActivityIDs string `json:"activity_ids" description:"Comma-separated activity IDs (2-5 activities), e.g. '12345678,12345679'"`
	Unit        string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

type analyzeTrainingPeriodRequest struct {
	Period       string `json:"period,omitempty" description:"Time period: '7d', '30d', 'this-month', or 'YYYY-MM-DD:YYYY-MM-DD'. Default '30d'."`
	ActivityType string `json:"activity_type,omitempty" description:"Filter by activity type, e.g. 'running'. Empty for all."`
	Unit         string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

func (h *handlers) registerAnalysisTools(srv *server.Server) error {
	if err := register(srv, "compare_activities",
		"Compare 2-5 activities side-by-side with best/worst identification and insights.",
		compareActivitiesRequest{}, h.compareActivities); err != nil {
		return err
	}
	return register(srv, "analyze_training_period",
		"Analyze training over a period: total volume, activity type breakdown, weekly trends, and insights.",
		analyzeTrainingPeriodRequest{}, h.analyzeTrainingPeriod)
}

func (h *handlers) compareActivities(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in compareActivitiesRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("compare_activities", garmin.NewValidationError("%v", err))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult("compare_activities", err)
	}

	ids, err := parseActivityIDs(in.ActivityIDs)
	if err != nil {
		return h.errResult("compare_activities", err)
	}

	// 单个活动取不到时跳过,剩余不足 2 个才算失败
	var activities []map[string]any
	for _, id := range ids {
		act, err := h.api.Activity(ctx, id)
		if err != nil || act == nil {
			continue
		}
		activities = append(activities, garmin.FormatActivity(act, unit))
	}
	if len(activities) < 2 {
		return h.errResult("compare_activities", garmin.NewValidationError(
			"could only fetch %d of %d activities, need at least 2 to compare", len(activities), len(ids)))
	}

	comparison := map[string]any{}

	type metric struct {
		id        any
		value     float64
		formatted string
	}

	var distances []metric
	for _, act := range activities {
		d, ok := act["distance"].(map[string]any)
		if !ok {
			continue
		}
		meters, _ := d["meters"].(float64)
		formatted, _ := d["formatted"].(string)
		distances = append(distances, metric{act["activityId"], meters, formatted})
	}
	if len(distances) > 0 {
		sort.Slice(distances, func(i, j int) bool { return distances[i].value > distances[j].value })
		comparison["distance"] = map[string]any{
			"longest":  map[string]any{"id": distances[0].id, "meters": distances[0].value, "formatted": distances[0].formatted},
			"shortest": map[string]any{"id": distances[len(distances)-1].id, "meters": distances[len(distances)-1].value, "formatted": distances[len(distances)-1].formatted},
		}
	}

	var times []metric
	for _, act := range activities {
		d, ok := act["duration"].(map[string]any)
		if !ok {
			continue
		}
		seconds, _ := d["seconds"].(float64)
		formatted, _ := d["formatted"].(string)
		times = append(times, metric{act["activityId"], seconds, formatted})
	}
	if len(times) > 0 {
		sort.Slice(times, func(i, j int) bool { return times[i].value < times[j].value })
		comparison["time"] = map[string]any{
			"fastest": map[string]any{"id": times[0].id, "seconds": times[0].value, "formatted": times[0].formatted},
			"slowest": map[string]any{"id": times[len(times)-1].id, "seconds": times[len(times)-1].value, "formatted": times[len(times)-1].formatted},
		}
	}

	// 配速由距离和时长推导,任一缺失或为零则跳过该活动
	var paces []metric
	for _, act := range activities {
		d, _ := act["distance"].(map[string]any)
		dur, _ := act["duration"].(map[string]any)
		if d == nil || dur == nil {
			continue
		}
		meters, _ := d["meters"].(float64)
		seconds, _ := dur["seconds"].(float64)
		if meters <= 0 || seconds <= 0 {
			continue
		}
		mps := meters / seconds
		paces = append(paces, metric{act["activityId"], mps, garmin.FormatPace(mps, unit)})
	}
	if len(paces) > 0 {
		// m/s 越大配速越快
		sort.Slice(paces, func(i, j int) bool { return paces[i].value > paces[j].value })
		comparison["pace"] = map[string]any{
			"fastest": map[string]any{"id": paces[0].id, "mps": paces[0].value, "formatted": paces[0].formatted},
			"slowest": map[string]any{"id": paces[len(paces)-1].id, "mps": paces[len(paces)-1].value, "formatted": paces[len(paces)-1].formatted},
		}
	}

	var elevations []metric
	for _, act := range activities {
		e, ok := act["elevationGain"].(map[string]any)
		if !ok {
			continue
		}
		meters, _ := e["meters"].(float64)
		formatted, _ := e["formatted"].(string)
		elevations = append(elevations, metric{act["activityId"], meters, formatted})
	}
	if len(elevations) > 0 {
		sort.Slice(elevations, func(i, j int) bool { return elevations[i].value > elevations[j].value })
		comparison["elevation"] = map[string]any{
			"most":  map[string]any{"id": elevations[0].id, "meters": elevations[0].value, "formatted": elevations[0].formatted},
			"least": map[string]any{"id": elevations[len(elevations)-1].id, "meters": elevations[len(elevations)-1].value, "formatted": elevations[len(elevations)-1].formatted},
		}
	}

	var hrs []metric
	for _, act := range activities {
		avgHR, ok := act["averageHR"].(float64)
		if !ok || avgHR == 0 {
			continue
		}
		hrs = append(hrs, metric{act["activityId"], avgHR, fmt.Sprintf("%g bpm", avgHR)})
	}
	if len(hrs) > 0 {
		sort.Slice(hrs, func(i, j int) bool { return hrs[i].value > hrs[j].value })
		comparison["heart_rate"] = map[string]any{
			"highest_avg": map[string]any{"id": hrs[0].id, "bpm": hrs[0].value, "formatted": hrs[0].formatted},
			"lowest_avg":  map[string]any{"id": hrs[len(hrs)-1].id, "bpm": hrs[len(hrs)-1].value, "formatted": hrs[len(hrs)-1].formatted},
		}
	}

	var insights []string

	// 活动类型构成
	var types []string
	seen := map[string]bool{}
	for _, act := range activities {
		key := activityTypeKey(act)
		if !seen[key] {
			seen[key] = true
			types = append(types, key)
		}
	}
	if len(types) == 1 {
		insights = append(insights, fmt.Sprintf("All activities are %s type", types[0]))
	} else {
		insights = append(insights, fmt.Sprintf("Activities span %d different types: %s", len(types), strings.Join(types, ", ")))
	}

	// 配速离散度,25%/10% 分界
	if len(paces) >= 2 {
		fastest, slowest := paces[0].value, paces[len(paces)-1].value
		if slowest > 0 {
			diffPercent := (fastest - slowest) / slowest * 100
			switch {
			case diffPercent > 25:
				insights = append(insights, fmt.Sprintf("Large pace variation: fastest is %.0f%% faster than slowest", diffPercent))
			case diffPercent > 10:
				insights = append(insights, fmt.Sprintf("Moderate pace variation: fastest is %.0f%% faster than slowest", diffPercent))
			default:
				insights = append(insights, fmt.Sprintf("Consistent pace: only %.0f%% difference between fastest and slowest", diffPercent))
			}
		}
	}

	if len(distances) >= 2 {
		longest, shortest := distances[0].value, distances[len(distances)-1].value
		if shortest > 0 && (longest-shortest)/shortest*100 < 10 {
			insights = append(insights, "Similar distance across all activities")
		}
	}

	return h.okResult("compare_activities",
		map[string]any{"activities": activities, "comparison": comparison, "count": len(activities)},
		map[string]any{"insights": insights},
		map[string]any{"activity_ids": ids, "unit": string(unit)}, nil)
}

// parseActivityIDs 解析逗号分隔的活动 ID 列表,允许 2-5 个
func parseActivityIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	var ids []int64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, garmin.NewValidationError("invalid activity id %q", p)
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, garmin.NewValidationError("must provide at least 2 activities to compare")
	}
	if len(ids) > 5 {
		return nil, garmin.NewValidationError("cannot compare more than 5 activities at once")
	}
	return ids, nil
}

func (h *handlers) analyzeTrainingPeriod(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in analyzeTrainingPeriodRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("analyze_training_period", garmin.NewValidationError("%v", err))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult("analyze_training_period", err)
	}

	period := in.Period
	if period == "" {
		period = "30d"
	}
	start, end, err := garmin.ParseTimeRange(period)
	if err != nil {
		return h.errResult("analyze_training_period", err)
	}

	startStr, endStr := garmin.FormatDateForAPI(start), garmin.FormatDateForAPI(end)
	activityType := in.ActivityType
	if activityType == "" {
		activityType = "all"
	}
	metadata := map[string]any{
		"period":        period,
		"activity_type": activityType,
		"unit":          string(unit),
	}
	periodBlock := map[string]any{
		"description": garmin.GetRangeDescription(period),
		"start_date":  startStr,
		"end_date":    endStr,
		"days":        garmin.RangeDays(start, end),
	}

	activities, err := h.api.ActivitiesByDate(ctx, startStr, endStr, in.ActivityType)
	if err != nil {
		return h.errResult("analyze_training_period", err)
	}
	if len(activities) == 0 {
		return h.okResult("analyze_training_period",
			map[string]any{
				"period":  periodBlock,
				"summary": map[string]any{"total_activities": 0},
			},
			map[string]any{"insights": []string{"No activities found in this period"}},
			metadata, nil)
	}

	summary := garmin.AggregateActivities(activities, unit)
	byType := breakdownByType(activities, unit)
	weekly := weeklyTrends(activities, start, end, unit)
	insights := trainingInsights(activities, byType, weekly)

	return h.okResult("analyze_training_period",
		map[string]any{
			"period":        periodBlock,
			"summary":       summary,
			"by_type":       byType,
			"weekly_trends": weekly,
		},
		map[string]any{"insights": insights},
		metadata, nil)
}

// breakdownByType 按活动类型分组统计,按次数降序
func breakdownByType(activities []map[string]any, unit garmin.UnitSystem) []map[string]any {
	type bucket struct {
		count    int
		distance float64
		seconds  float64
	}
	buckets := map[string]*bucket{}
	for _, act := range activities {
		b := buckets[activityTypeKey(act)]
		if b == nil {
			b = &bucket{}
			buckets[activityTypeKey(act)] = b
		}
		b.count++
		b.distance += numField(act, "distance")
		b.seconds += numField(act, "duration")
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if buckets[keys[i]].count != buckets[keys[j]].count {
			return buckets[keys[i]].count > buckets[keys[j]].count
		}
		return keys[i] < keys[j]
	})

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		percentage := float64(b.count) / float64(len(activities)) * 100
		out = append(out, map[string]any{
			"type":       k,
			"count":      b.count,
			"percentage": roundTo1(percentage),
			"distance": map[string]any{
				"meters":    b.distance,
				"formatted": garmin.FormatDistance(b.distance, unit),
			},
			"time": map[string]any{
				"seconds":   b.seconds,
				"formatted": garmin.FormatDuration(b.seconds),
			},
		})
	}
	return out
}

// weeklyTrends 周一至周日切片统计每周活动量
func weeklyTrends(activities []map[string]any, start, end time.Time, unit garmin.UnitSystem) []map[string]any {
	var trends []map[string]any
	for _, week := range garmin.GetWeekRanges(start, end) {
		weekStart := garmin.FormatDateForAPI(week[0])
		weekEnd := garmin.FormatDateForAPI(week[1])

		var count int
		var distance, seconds float64
		for _, act := range activities {
			day, _ := act["startTimeLocal"].(string)
			if len(day) >= 10 {
				day = day[:10]
			}
			if day >= weekStart && day <= weekEnd {
				count++
				distance += numField(act, "distance")
				seconds += numField(act, "duration")
			}
		}

		trends = append(trends, map[string]any{
			"week_start": weekStart,
			"week_end":   weekEnd,
			"activities": count,
			"distance": map[string]any{
				"meters":    distance,
				"formatted": garmin.FormatDistance(distance, unit),
			},
			"time": map[string]any{
				"seconds":   seconds,
				"formatted": garmin.FormatDuration(seconds),
			},
		})
	}
	return trends
}

// trainingInsights 从分组与周趋势推导文字洞察
func trainingInsights(activities []map[string]any, byType []map[string]any, weekly []map[string]any) []string {
	var insights []string

	// 前后半程活动量对比
	if len(weekly) >= 2 {
		half := len(weekly) / 2
		var firstHalf, secondHalf int
		for i, w := range weekly {
			count, _ := w["activities"].(int)
			if i < half {
				firstHalf += count
			} else {
				secondHalf += count
			}
		}
		switch {
		case float64(secondHalf) > float64(firstHalf)*1.2:
			insights = append(insights, "Training volume increasing over time")
		case float64(secondHalf) < float64(firstHalf)*0.8:
			insights = append(insights, "Training volume decreasing over time")
		default:
			insights = append(insights, "Training volume relatively consistent")
		}
	}

	if len(byType) > 0 {
		dominant := byType[0]
		percentage, _ := dominant["percentage"].(float64)
		typeKey, _ := dominant["type"].(string)
		switch {
		case percentage > 70:
			insights = append(insights, fmt.Sprintf("Training heavily focused on %s", typeKey))
		case percentage > 50:
			insights = append(insights, fmt.Sprintf("Training primarily focused on %s", typeKey))
		default:
			insights = append(insights, "Varied training across multiple activity types")
		}
	}

	if len(insights) == 0 {
		insights = append(insights, fmt.Sprintf("Analyzed %d activities", len(activities)))
	}
	return insights
}

func activityTypeKey(act map[string]any) string {
	if t, ok := act["activityType"].(map[string]any); ok {
		if key, ok := t["typeKey"].(string); ok && key != "" {
			return key
		}
	}
	return "unknown"
}

func numField(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	if v, ok := m[key].(int); ok {
		return float64(v)
	}
	return 0
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
