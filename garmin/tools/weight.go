package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type weighInsRequest struct {
	Period string `json:"period,omitempty" description:"Time period: '7d', '30d', 'this-month', or 'YYYY-MM-DD:YYYY-MM-DD'. Default '30d'. Max 30 days."`
	Unit   string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

type addWeighInRequest struct {
	WeightKg float64 `json:"weight_kg" description:"Body weight in kilograms"`
	Date     string  `json:"date,omitempty" description:"Date of the weigh-in: 'today', 'yesterday', or YYYY-MM-DD. Default today."`
}

func (h *handlers) registerWeightTools(srv *server.Server) error {
	if err := register(srv, "get_weigh_ins",
		"Get weigh-in records over a period (max 30 days).",
		weighInsRequest{}, h.getWeighIns); err != nil {
		return err
	}
	return register(srv, "add_weigh_in",
		"Record a manual weigh-in.",
		addWeighInRequest{}, h.addWeighIn)
}

func (h *handlers) getWeighIns(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in weighInsRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_weigh_ins", garmin.NewValidationError("%v", err))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult("get_weigh_ins", err)
	}

	period := in.Period
	if period == "" {
		period = "30d"
	}
	start, end, err := garmin.ParseTimeRange(period)
	if err != nil {
		return h.errResult("get_weigh_ins", err)
	}
	if err := garmin.ValidateRangeSpan(start, end, maxRangeDays); err != nil {
		return h.errResult("get_weigh_ins", err)
	}

	startStr, endStr := garmin.FormatDateForAPI(start), garmin.FormatDateForAPI(end)
	weighIns, err := h.api.WeighIns(ctx, startStr, endStr)
	if err != nil {
		return h.errResult("get_weigh_ins", err)
	}

	return h.okResult("get_weigh_ins",
		garmin.FormatHealthMetric(weighIns, unit),
		nil, map[string]any{
			"period":     garmin.GetRangeDescription(period),
			"start_date": startStr,
			"end_date":   endStr,
			"unit":       string(unit),
		}, nil)
}

func (h *handlers) addWeighIn(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in addWeighInRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("add_weigh_in", garmin.NewValidationError("%v", err))
	}
	// 人类体重的合理区间,防止单位混淆(磅当公斤传入)
	if in.WeightKg < 20 || in.WeightKg > 400 {
		return h.errResult("add_weigh_in", garmin.NewValidationError("weight_kg must be between 20 and 400, got %v", in.WeightKg))
	}

	dateStr := in.Date
	if dateStr == "" {
		dateStr = "today"
	}
	day, err := garmin.ParseDateString(dateStr)
	if err != nil {
		return h.errResult("add_weigh_in", err)
	}
	apiDate := garmin.FormatDateForAPI(day)

	resp, err := h.api.AddWeighIn(ctx, in.WeightKg, apiDate)
	if err != nil {
		return h.errResult("add_weigh_in", err)
	}

	return h.okResult("add_weigh_in",
		map[string]any{"recorded": true, "weight_kg": in.WeightKg, "upstream": resp},
		nil, map[string]any{"date": garmin.FormatDateWithDay(day)}, nil)
}
