package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type listWorkoutsRequest struct {
	Cursor string `json:"cursor,omitempty" description:"Opaque pagination cursor from a previous response. Omit for the first page."`
	Limit  int    `json:"limit,omitempty" description:"Items per page (1-50, default 10)"`
}

type workoutIDRequest struct {
	WorkoutID int64 `json:"workout_id" description:"Garmin Connect workout ID"`
}

func (h *handlers) registerWorkoutTools(srv *server.Server) error {
	if err := register(srv, "list_workouts",
		"List saved workouts with cursor pagination.",
		listWorkoutsRequest{}, h.listWorkouts); err != nil {
		return err
	}
	return register(srv, "get_workout",
		"Get the full definition of a saved workout.",
		workoutIDRequest{}, h.getWorkout)
}

func (h *handlers) listWorkouts(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in listWorkoutsRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("list_workouts", garmin.NewValidationError("%v", err))
	}

	result, err := garmin.Paginate(ctx, in.Cursor, defaultLimit(in.Limit), maxPageLimit, nil,
		func(ctx context.Context, offset, fetchLimit int, _ map[string]string) ([]map[string]any, error) {
			return h.api.ListWorkouts(ctx, offset, fetchLimit)
		})
	if err != nil {
		return h.errResult("list_workouts", err)
	}

	return h.okResult("list_workouts",
		map[string]any{"workouts": result.Items, "count": len(result.Items)},
		nil, map[string]any{"page": result.Page}, result.Info)
}

func (h *handlers) getWorkout(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in workoutIDRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_workout", garmin.NewValidationError("%v", err))
	}
	if in.WorkoutID <= 0 {
		return h.errResult("get_workout", garmin.NewValidationError("workout_id must be positive, got %d", in.WorkoutID))
	}

	workout, err := h.api.Workout(ctx, in.WorkoutID)
	if err != nil {
		return h.errResult("get_workout", err)
	}

	return h.okResult("get_workout", workout, nil, map[string]any{"workout_id": in.WorkoutID}, nil)
}
