package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type addBodyCompositionRequest struct {
	WeightKg         float64 `json:"weight_kg" description:"Body weight in kilograms"`
	PercentFat       float64 `json:"percent_fat,omitempty" description:"Body fat percentage (0-100)"`
	PercentHydration float64 `json:"percent_hydration,omitempty" description:"Hydration percentage (0-100)"`
	BoneMassKg       float64 `json:"bone_mass_kg,omitempty" description:"Bone mass in kilograms"`
	MuscleMassKg     float64 `json:"muscle_mass_kg,omitempty" description:"Muscle mass in kilograms"`
	Date             string  `json:"date,omitempty" description:"Measurement date: 'today', 'yesterday', or YYYY-MM-DD. Default today."`
}

type setBloodPressureRequest struct {
	Systolic  int    `json:"systolic" description:"Systolic pressure in mmHg"`
	Diastolic int    `json:"diastolic" description:"Diastolic pressure in mmHg"`
	Pulse     int    `json:"pulse" description:"Pulse rate in bpm"`
	Notes     string `json:"notes,omitempty" description:"Optional notes"`
}

type addHydrationRequest struct {
	ValueML int    `json:"value_in_ml" description:"Water intake in milliliters"`
	Date    string `json:"date,omitempty" description:"Date of intake: 'today', 'yesterday', or YYYY-MM-DD. Default today."`
}

func (h *handlers) registerRecordTools(srv *server.Server) error {
	if err := register(srv, "add_body_composition",
		"Record a body composition measurement (weight plus optional body fat, hydration, bone and muscle mass).",
		addBodyCompositionRequest{}, h.addBodyComposition); err != nil {
		return err
	}
	if err := register(srv, "set_blood_pressure",
		"Record a blood pressure measurement.",
		setBloodPressureRequest{}, h.setBloodPressure); err != nil {
		return err
	}
	return register(srv, "add_hydration",
		"Log water intake for a day.",
		addHydrationRequest{}, h.addHydration)
}

func (h *handlers) addBodyComposition(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in addBodyCompositionRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("add_body_composition", garmin.NewValidationError("%v", err))
	}
	if in.WeightKg < 20 || in.WeightKg > 400 {
		return h.errResult("add_body_composition", garmin.NewValidationError("weight_kg must be between 20 and 400, got %v", in.WeightKg))
	}
	for _, p := range []struct {
		name  string
		value float64
	}{{"percent_fat", in.PercentFat}, {"percent_hydration", in.PercentHydration}} {
		if p.value < 0 || p.value > 100 {
			return h.errResult("add_body_composition", garmin.NewValidationError("%s must be between 0 and 100, got %v", p.name, p.value))
		}
	}
	if in.BoneMassKg < 0 || in.MuscleMassKg < 0 {
		return h.errResult("add_body_composition", garmin.NewValidationError("bone_mass_kg and muscle_mass_kg must not be negative"))
	}

	dateStr := in.Date
	if dateStr == "" {
		dateStr = "today"
	}
	day, err := garmin.ParseDateString(dateStr)
	if err != nil {
		return h.errResult("add_body_composition", err)
	}
	apiDate := garmin.FormatDateForAPI(day)

	resp, err := h.api.AddBodyComposition(ctx, apiDate, garmin.BodyComposition{
		WeightKg:         in.WeightKg,
		PercentFat:       in.PercentFat,
		PercentHydration: in.PercentHydration,
		BoneMassKg:       in.BoneMassKg,
		MuscleMassKg:     in.MuscleMassKg,
	})
	if err != nil {
		return h.errResult("add_body_composition", err)
	}

	return h.okResult("add_body_composition",
		map[string]any{"recorded": true, "weight_kg": in.WeightKg, "upstream": resp},
		nil, map[string]any{"date": garmin.FormatDateWithDay(day)}, nil)
}

func (h *handlers) setBloodPressure(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in setBloodPressureRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("set_blood_pressure", garmin.NewValidationError("%v", err))
	}
	// 生理可达范围,拦截明显的录入错误
	if in.Systolic < 50 || in.Systolic > 250 {
		return h.errResult("set_blood_pressure", garmin.NewValidationError("systolic must be between 50 and 250, got %d", in.Systolic))
	}
	if in.Diastolic < 30 || in.Diastolic > 150 {
		return h.errResult("set_blood_pressure", garmin.NewValidationError("diastolic must be between 30 and 150, got %d", in.Diastolic))
	}
	if in.Diastolic >= in.Systolic {
		return h.errResult("set_blood_pressure", garmin.NewValidationError("diastolic (%d) must be lower than systolic (%d)", in.Diastolic, in.Systolic))
	}
	if in.Pulse < 20 || in.Pulse > 250 {
		return h.errResult("set_blood_pressure", garmin.NewValidationError("pulse must be between 20 and 250, got %d", in.Pulse))
	}

	resp, err := h.api.SetBloodPressure(ctx, in.Systolic, in.Diastolic, in.Pulse, in.Notes)
	if err != nil {
		return h.errResult("set_blood_pressure", err)
	}

	return h.okResult("set_blood_pressure",
		map[string]any{
			"recorded":  true,
			"systolic":  in.Systolic,
			"diastolic": in.Diastolic,
			"pulse":     in.Pulse,
			"upstream":  resp,
		}, nil, nil, nil)
}

func (h *handlers) addHydration(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in addHydrationRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("add_hydration", garmin.NewValidationError("%v", err))
	}
	if in.ValueML < 1 || in.ValueML > 10000 {
		return h.errResult("add_hydration", garmin.NewValidationError("value_in_ml must be between 1 and 10000, got %d", in.ValueML))
	}

	dateStr := in.Date
	if dateStr == "" {
		dateStr = "today"
	}
	day, err := garmin.ParseDateString(dateStr)
	if err != nil {
		return h.errResult("add_hydration", err)
	}
	apiDate := garmin.FormatDateForAPI(day)

	resp, err := h.api.AddHydration(ctx, apiDate, in.ValueML)
	if err != nil {
		return h.errResult("add_hydration", err)
	}

	return h.okResult("add_hydration",
		map[string]any{"recorded": true, "value_in_ml": in.ValueML, "upstream": resp},
		nil, map[string]any{"date": garmin.FormatDateWithDay(day)}, nil)
}
