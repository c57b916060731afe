package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type listActivitiesRequest struct {
	Cursor       string `json:"cursor,omitempty" description:"Opaque pagination cursor from a previous response. Omit for the first page."`
	Limit        int    `json:"limit,omitempty" description:"Items per page (1-50, default 10)"`
	ActivityType string `json:"activity_type,omitempty" description:"Filter by activity type, e.g. 'running', 'cycling'. Empty for all."`
	Unit         string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

type activityIDRequest struct {
	ActivityID int64  `json:"activity_id" description:"Garmin Connect activity ID"`
	Unit       string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

type lastActivityRequest struct {
	Unit string `json:"unit,omitempty" description:"Unit system for formatted values" enum:"metric,imperial"`
}

func (h *handlers) registerActivityTools(srv *server.Server) error {
	type entry struct {
		name        string
		description string
		reqStruct   any
		handler     server.ToolHandlerFunc
	}
	for _, e := range []entry{
		{"list_activities", "List recent activities with cursor pagination. Returns raw metrics alongside human-readable formatting.", listActivitiesRequest{}, h.listActivities},
		{"get_activity", "Get detailed information about a specific activity.", activityIDRequest{}, h.getActivity},
		{"get_activity_splits", "Get lap/split data for a specific activity.", activityIDRequest{}, h.getActivitySplits},
		{"get_activity_weather", "Get weather conditions recorded for a specific activity.", activityIDRequest{}, h.getActivityWeather},
		{"get_activity_hr_zones", "Get time in heart rate zones for a specific activity.", activityIDRequest{}, h.getActivityHRZones},
		{"get_activity_gear", "Get gear used for a specific activity.", activityIDRequest{}, h.getActivityGear},
		{"get_last_activity", "Get the most recent activity.", lastActivityRequest{}, h.getLastActivity},
	} {
		if err := register(srv, e.name, e.description, e.reqStruct, e.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *handlers) listActivities(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in listActivitiesRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("list_activities", garmin.NewValidationError("%v", err))
	}

	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult("list_activities", err)
	}

	filters := map[string]string{}
	if in.ActivityType != "" {
		filters["activity_type"] = in.ActivityType
	}

	result, err := garmin.Paginate(ctx, in.Cursor, defaultLimit(in.Limit), maxPageLimit, filters,
		func(ctx context.Context, offset, fetchLimit int, filters map[string]string) ([]map[string]any, error) {
			return h.api.ListActivities(ctx, offset, fetchLimit, filters["activity_type"])
		})
	if err != nil {
		return h.errResult("list_activities", err)
	}

	formatted := make([]map[string]any, 0, len(result.Items))
	for _, act := range result.Items {
		formatted = append(formatted, garmin.FormatActivity(act, unit))
	}

	metadata := map[string]any{
		"page": result.Page,
		"unit": string(unit),
	}
	if t, ok := result.Filters["activity_type"]; ok {
		metadata["activity_type"] = t
	}

	return h.okResult("list_activities",
		map[string]any{"activities": formatted, "count": len(formatted)},
		nil, metadata, result.Info)
}

func (h *handlers) getActivity(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.activityDetail(ctx, req, "get_activity",
		func(ctx context.Context, id int64) (any, error) {
			return h.api.Activity(ctx, id)
		},
		func(data any, unit garmin.UnitSystem) any {
			if m, ok := data.(map[string]any); ok {
				return garmin.FormatActivity(m, unit)
			}
			return data
		})
}

func (h *handlers) getActivitySplits(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.activityDetail(ctx, req, "get_activity_splits",
		func(ctx context.Context, id int64) (any, error) {
			return h.api.ActivitySplits(ctx, id)
		}, nil)
}

func (h *handlers) getActivityWeather(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.activityDetail(ctx, req, "get_activity_weather",
		func(ctx context.Context, id int64) (any, error) {
			return h.api.ActivityWeather(ctx, id)
		}, nil)
}

func (h *handlers) getActivityHRZones(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.activityDetail(ctx, req, "get_activity_hr_zones",
		func(ctx context.Context, id int64) (any, error) {
			return h.api.ActivityHRZones(ctx, id)
		}, nil)
}

func (h *handlers) getActivityGear(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return h.activityDetail(ctx, req, "get_activity_gear",
		func(ctx context.Context, id int64) (any, error) {
			return h.api.ActivityGear(ctx, id)
		}, nil)
}

// activityDetail 按活动 ID 查询的公共骨架,format 为空时原样透传上游数据
func (h *handlers) activityDetail(
	ctx context.Context,
	req *protocol.CallToolRequest,
	toolName string,
	fetch func(ctx context.Context, id int64) (any, error),
	format func(data any, unit garmin.UnitSystem) any,
) (*protocol.CallToolResult, error) {
	var in activityIDRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult(toolName, garmin.NewValidationError("%v", err))
	}
	if in.ActivityID <= 0 {
		return h.errResult(toolName, garmin.NewValidationError("activity_id must be positive, got %d", in.ActivityID))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult(toolName, err)
	}

	data, err := fetch(ctx, in.ActivityID)
	if err != nil {
		return h.errResult(toolName, err)
	}
	if format != nil {
		data = format(data, unit)
	}

	return h.okResult(toolName, data, nil, map[string]any{
		"activity_id": in.ActivityID,
		"unit":        string(unit),
	}, nil)
}

func (h *handlers) getLastActivity(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in lastActivityRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_last_activity", garmin.NewValidationError("%v", err))
	}
	unit, err := garmin.ParseUnitSystem(in.Unit)
	if err != nil {
		return h.errResult("get_last_activity", err)
	}

	activities, err := h.api.ListActivities(ctx, 0, 1, "")
	if err != nil {
		return h.errResult("get_last_activity", err)
	}
	if len(activities) == 0 {
		return h.errResult("get_last_activity",
			&garmin.APIError{Kind: garmin.KindNotFound, Message: "no activities found"})
	}

	return h.okResult("get_last_activity",
		garmin.FormatActivity(activities[0], unit),
		nil, map[string]any{"unit": string(unit)}, nil)
}
