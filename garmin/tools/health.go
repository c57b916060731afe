package tools

import (
	"context"
	"time"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type dateRequest struct {
	Date string `json:"date,omitempty" description:"Date to query: 'today', 'yesterday', or YYYY-MM-DD. Default today."`
	Unit string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

type periodRequest struct {
	Period string `json:"period,omitempty" description:"Time period: '7d', '30d', 'this-week', 'this-month', or 'YYYY-MM-DD:YYYY-MM-DD'. Default '7d'. Max 30 days."`
}

type listDailySummariesRequest struct {
	Cursor string `json:"cursor,omitempty" description:"Opaque pagination cursor from a previous response. Omit for the first page."`
	Limit  int    `json:"limit,omitempty" description:"Days per page (1-30, default 10)"`
	Period string `json:"period,omitempty" description:"Time period: '7d', '30d', 'this-week', 'this-month', or 'YYYY-MM-DD:YYYY-MM-DD'. Default '7d'. Max 30 days."`
	Unit   string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

func (h *handlers) registerHealthTools(srv *server.Server) error {
	type entry struct {
		name        string
		description string
		reqStruct   any
		handler     server.ToolHandlerFunc
	}
	for _, e := range []entry{
		{"get_sleep", "Get sleep data for a specific date.", dateRequest{}, h.getSleep},
		{"get_steps", "Get step counts for a specific date.", dateRequest{}, h.getSteps},
		{"get_heart_rates", "Get heart rate data for a specific date.", dateRequest{}, h.getHeartRates},
		{"get_stress", "Get stress levels for a specific date.", dateRequest{}, h.getStress},
		{"get_body_battery", "Get Body Battery levels over a period (max 30 days).", periodRequest{}, h.getBodyBattery},
		{"get_daily_summary", "Get the daily wellness summary for a specific date.", dateRequest{}, h.getDailySummary},
		{"list_daily_summaries", "List daily wellness summaries over a period with cursor pagination.", listDailySummariesRequest{}, h.listDailySummaries},
	} {
		if err := register(srv, e.name, e.description, e.reqStruct, e.handler); err != nil {
			return err
		}
	}
	return nil
}

// dateMetric 单日期健康查询的公共骨架
func (h *handlers) dateMetric(
	ctx context.Context,
	req *protocol.CallToolRequest,
	toolName string,
	fetch func(ctx context.Context, date string) (any, error),
	format func(data any, unit garmin.UnitSystem) any,
) (*protocol.CallToolResult, error) {
	var in dateRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult(toolName, garmin.NewValidationError("%v", err))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult(toolName, err)
	}

	dateStr := in.Date
	if dateStr == "" {
		dateStr = "today"
	}
	day, err := garmin.ParseDateString(dateStr)
	if err != nil {
		return h.errResult(toolName, err)
	}
	apiDate := garmin.FormatDateForAPI(day)

	data, err := fetch(ctx, apiDate)
	if err != nil {
		return h.errResult(toolName, err)
	}
	if format != nil {
		data = format(data, unit)
	}

	return h.okResult(toolName, data, nil, map[string]any{
		"date": garmin.FormatDateWithDay(day),
		"unit": string(unit),
	}, nil)
}

func (h *handlers) getSleep(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.dateMetric(ctx, req, "get_sleep",
		func(ctx context.Context, date string) (any, error) {
			return h.api.Sleep(ctx, date)
		}, nil)
}

func (h *handlers) getSteps(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.dateMetric(ctx, req, "get_steps",
		func(ctx context.Context, date string) (any, error) {
			return h.api.Steps(ctx, date)
		}, nil)
}

func (h *handlers) getHeartRates(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.dateMetric(ctx, req, "get_heart_rates",
		func(ctx context.Context, date string) (any, error) {
			return h.api.HeartRates(ctx, date)
		},
		func(data any, unit garmin.UnitSystem) any {
			if m, ok := data.(map[string]any); ok {
				return garmin.FormatHealthMetric(m, unit)
			}
			return data
		})
}

func (h *handlers) getStress(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.dateMetric(ctx, req, "get_stress",
		func(ctx context.Context, date string) (any, error) {
			return h.api.Stress(ctx, date)
		}, nil)
}

func (h *handlers) getDailySummary(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.dateMetric(ctx, req, "get_daily_summary",
		func(ctx context.Context, date string) (any, error) {
			return h.api.DailySummary(ctx, date)
		},
		func(data any, unit garmin.UnitSystem) any {
			if m, ok := data.(map[string]any); ok {
				return garmin.FormatHealthMetric(m, unit)
			}
			return data
		})
}

func (h *handlers) getBodyBattery(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in periodRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_body_battery", garmin.NewValidationError("%v", err))
	}

	period := in.Period
	if period == "" {
		period = "7d"
	}
	start, end, err := garmin.ParseTimeRange(period)
	if err != nil {
		return h.errResult("get_body_battery", err)
	}
	// 区间跨度在上游调用前校验,避免白耗一次请求
	if err := garmin.ValidateRangeSpan(start, end, maxRangeDays); err != nil {
		return h.errResult("get_body_battery", err)
	}

	startStr, endStr := garmin.FormatDateForAPI(start), garmin.FormatDateForAPI(end)
	levels, err := h.api.BodyBattery(ctx, startStr, endStr)
	if err != nil {
		return h.errResult("get_body_battery", err)
	}

	return h.okResult("get_body_battery",
		map[string]any{"body_battery": levels, "count": len(levels)},
		nil, map[string]any{
			"period":     garmin.GetRangeDescription(period),
			"start_date": startStr,
			"end_date":   endStr,
		}, nil)
}

func (h *handlers) listDailySummaries(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in listDailySummariesRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("list_daily_summaries", garmin.NewValidationError("%v", err))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult("list_daily_summaries", err)
	}

	// 首页把 period 解析为绝对日期后钉进游标,相对区间不随翻页漂移
	filters := map[string]string{}
	if in.Cursor == "" {
		period := in.Period
		if period == "" {
			period = "7d"
		}
		start, end, err := garmin.ParseTimeRange(period)
		if err != nil {
			return h.errResult("list_daily_summaries", err)
		}
		if err := garmin.ValidateRangeSpan(start, end, maxRangeDays); err != nil {
			return h.errResult("list_daily_summaries", err)
		}
		filters["start_date"] = garmin.FormatDateForAPI(start)
		filters["end_date"] = garmin.FormatDateForAPI(end)
	}

	result, err := garmin.Paginate(ctx, in.Cursor, defaultLimit(in.Limit), maxDayPageLimit, filters,
		func(ctx context.Context, offset, fetchLimit int, filters map[string]string) ([]map[string]any, error) {
			dates, err := datesInRange(filters["start_date"], filters["end_date"])
			if err != nil {
				return nil, err
			}
			// 从区间末日(最新)往回翻页
			var page []map[string]any
			for i := offset; i < len(dates) && len(page) < fetchLimit; i++ {
				date := dates[len(dates)-1-i]
				summary, err := h.api.DailySummary(ctx, date)
				if err != nil {
					return nil, err
				}
				if summary == nil {
					summary = map[string]any{}
				}
				summary["calendarDate"] = date
				page = append(page, garmin.FormatHealthMetric(summary, unit))
			}
			return page, nil
		})
	if err != nil {
		return h.errResult("list_daily_summaries", err)
	}

	return h.okResult("list_daily_summaries",
		map[string]any{"summaries": result.Items, "count": len(result.Items)},
		nil, map[string]any{
			"page":       result.Page,
			"start_date": result.Filters["start_date"],
			"end_date":   result.Filters["end_date"],
			"unit":       string(unit),
		}, result.Info)
}

// datesInRange 展开 [start, end] 的每一天(YYYY-MM-DD,升序)
func datesInRange(startStr, endStr string) ([]string, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		return nil, garmin.NewValidationError("invalid start_date in cursor: %s", startStr)
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		return nil, garmin.NewValidationError("invalid end_date in cursor: %s", endStr)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, garmin.FormatDateForAPI(d))
	}
	return dates, nil
}
