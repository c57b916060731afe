package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type listGearRequest struct{}

type gearStatsRequest struct {
	GearUUID string `json:"gear_uuid" description:"Gear UUID from list_gear"`
}

func (h *handlers) registerGearTools(srv *server.Server) error {
	if err := register(srv, "list_gear",
		"List registered gear (shoes, bikes, etc.).",
		listGearRequest{}, h.listGear); err != nil {
		return err
	}
	return register(srv, "get_gear_stats",
		"Get usage statistics for a specific piece of gear.",
		gearStatsRequest{}, h.getGearStats)
}

func (h *handlers) listGear(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	gear, err := h.api.Gear(ctx)
	if err != nil {
		return h.errResult("list_gear", err)
	}
	return h.okResult("list_gear",
		map[string]any{"gear": gear, "count": len(gear)},
		nil, nil, nil)
}

func (h *handlers) getGearStats(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in gearStatsRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_gear_stats", garmin.NewValidationError("%v", err))
	}
	if in.GearUUID == "" {
		return h.errResult("get_gear_stats", garmin.NewValidationError("gear_uuid is required"))
	}

	stats, err := h.api.GearStats(ctx, in.GearUUID)
	if err != nil {
		return h.errResult("get_gear_stats", err)
	}
	return h.okResult("get_gear_stats", stats, nil, map[string]any{"gear_uuid": in.GearUUID}, nil)
}
