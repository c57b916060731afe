package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type goalsRequest struct {
	Status string `json:"status,omitempty" description:"Goal status filter" enum:"active,future,past"`
}

type emptyRequest struct{}

func (h *handlers) registerProfileTools(srv *server.Server) error {
	type entry struct {
		name        string
		description string
		reqStruct   any
		handler     server.ToolHandlerFunc
	}
	for _, e := range []entry{
		{"get_goals", "Get personal goals, optionally filtered by status.", goalsRequest{}, h.getGoals},
		{"get_earned_badges", "Get earned badges.", emptyRequest{}, h.getEarnedBadges},
		{"get_user_profile", "Get the user's social profile.", emptyRequest{}, h.getUserProfile},
	} {
		if err := register(srv, e.name, e.description, e.reqStruct, e.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *handlers) getGoals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in goalsRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_goals", garmin.NewValidationError("%v", err))
	}

	status := in.Status
	if status == "" {
		status = "active"
	}
	goals, err := h.api.Goals(ctx, status)
	if err != nil {
		return h.errResult("get_goals", err)
	}

	return h.okResult("get_goals",
		map[string]any{"goals": goals, "count": len(goals)},
		nil, map[string]any{"status": status}, nil)
}

func (h *handlers) getEarnedBadges(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	badges, err := h.api.EarnedBadges(ctx)
	if err != nil {
		return h.errResult("get_earned_badges", err)
	}
	return h.okResult("get_earned_badges",
		map[string]any{"badges": badges, "count": len(badges)},
		nil, nil, nil)
}

func (h *handlers) getUserProfile(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	profile, err := h.api.UserProfile(ctx)
	if err != nil {
		return h.errResult("get_user_profile", err)
	}
	return h.okResult("get_user_profile", profile, nil, nil, nil)
}
