package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/pkg"
	"github.com/justinwongcn/garmin-mcp/protocol"
)

var errFakeNotImplemented = errors.New("fake: not implemented")

// fakeAPI 按需注入单个方法的假实现,未注入的方法一律报错
type fakeAPI struct {
	listActivities   func(ctx context.Context, offset, limit int, activityType string) ([]map[string]any, error)
	activitiesByDate func(ctx context.Context, startDate, endDate, activityType string) ([]map[string]any, error)
	activity         func(ctx context.Context, activityID int64) (map[string]any, error)
	listWorkouts     func(ctx context.Context, offset, limit int) ([]map[string]any, error)
	dailySummary     func(ctx context.Context, date string) (map[string]any, error)
	bodyBattery      func(ctx context.Context, startDate, endDate string) ([]map[string]any, error)
	weighIns         func(ctx context.Context, startDate, endDate string) (map[string]any, error)
	addWeighIn       func(ctx context.Context, weightKg float64, date string) (map[string]any, error)
	addBodyComp      func(ctx context.Context, date string, comp garmin.BodyComposition) (map[string]any, error)
	setBloodPressure func(ctx context.Context, systolic, diastolic, pulse int, notes string) (map[string]any, error)
	addHydration     func(ctx context.Context, date string, valueML int) (map[string]any, error)
	devices          func(ctx context.Context) ([]map[string]any, error)
}

func (f *fakeAPI) ListActivities(ctx context.Context, offset, limit int, activityType string) ([]map[string]any, error) {
	if f.listActivities == nil {
		return nil, errFakeNotImplemented
	}
	return f.listActivities(ctx, offset, limit, activityType)
}

func (f *fakeAPI) ActivitiesByDate(ctx context.Context, startDate, endDate, activityType string) ([]map[string]any, error) {
	if f.activitiesByDate == nil {
		return nil, errFakeNotImplemented
	}
	return f.activitiesByDate(ctx, startDate, endDate, activityType)
}

func (f *fakeAPI) Activity(ctx context.Context, activityID int64) (map[string]any, error) {
	if f.activity == nil {
		return nil, errFakeNotImplemented
	}
	return f.activity(ctx, activityID)
}

func (f *fakeAPI) ActivitySplits(ctx context.Context, activityID int64) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) ActivityWeather(ctx context.Context, activityID int64) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) ActivityHRZones(ctx context.Context, activityID int64) ([]map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) ActivityGear(ctx context.Context, activityID int64) ([]map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) ListWorkouts(ctx context.Context, offset, limit int) ([]map[string]any, error) {
	if f.listWorkouts == nil {
		return nil, errFakeNotImplemented
	}
	return f.listWorkouts(ctx, offset, limit)
}

func (f *fakeAPI) Workout(ctx context.Context, workoutID int64) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) Sleep(ctx context.Context, date string) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) Steps(ctx context.Context, date string) ([]map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) HeartRates(ctx context.Context, date string) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) Stress(ctx context.Context, date string) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) BodyBattery(ctx context.Context, startDate, endDate string) ([]map[string]any, error) {
	if f.bodyBattery == nil {
		return nil, errFakeNotImplemented
	}
	return f.bodyBattery(ctx, startDate, endDate)
}

func (f *fakeAPI) DailySummary(ctx context.Context, date string) (map[string]any, error) {
	if f.dailySummary == nil {
		return nil, errFakeNotImplemented
	}
	return f.dailySummary(ctx, date)
}

func (f *fakeAPI) Devices(ctx context.Context) ([]map[string]any, error) {
	if f.devices == nil {
		return nil, errFakeNotImplemented
	}
	return f.devices(ctx)
}

func (f *fakeAPI) DeviceSettings(ctx context.Context, deviceID int64) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) Gear(ctx context.Context) ([]map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) GearStats(ctx context.Context, gearUUID string) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) WeighIns(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	if f.weighIns == nil {
		return nil, errFakeNotImplemented
	}
	return f.weighIns(ctx, startDate, endDate)
}

func (f *fakeAPI) AddWeighIn(ctx context.Context, weightKg float64, date string) (map[string]any, error) {
	if f.addWeighIn == nil {
		return nil, errFakeNotImplemented
	}
	return f.addWeighIn(ctx, weightKg, date)
}

func (f *fakeAPI) AddBodyComposition(ctx context.Context, date string, comp garmin.BodyComposition) (map[string]any, error) {
	if f.addBodyComp == nil {
		return nil, errFakeNotImplemented
	}
	return f.addBodyComp(ctx, date, comp)
}

func (f *fakeAPI) SetBloodPressure(ctx context.Context, systolic, diastolic, pulse int, notes string) (map[string]any, error) {
	if f.setBloodPressure == nil {
		return nil, errFakeNotImplemented
	}
	return f.setBloodPressure(ctx, systolic, diastolic, pulse, notes)
}

func (f *fakeAPI) AddHydration(ctx context.Context, date string, valueML int) (map[string]any, error) {
	if f.addHydration == nil {
		return nil, errFakeNotImplemented
	}
	return f.addHydration(ctx, date, valueML)
}

func (f *fakeAPI) Goals(ctx context.Context, status string) ([]map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) EarnedBadges(ctx context.Context) ([]map[string]any, error) {
	return nil, errFakeNotImplemented
}

func (f *fakeAPI) UserProfile(ctx context.Context) (map[string]any, error) {
	return nil, errFakeNotImplemented
}

var _ garmin.API = (*fakeAPI)(nil)

// seedSchemas 为全部入参结构体生成 schema,参数校验依赖缓存的 schema
func seedSchemas(t *testing.T) {
	t.Helper()
	for _, reqStruct := range []any{
		listActivitiesRequest{}, activityIDRequest{}, lastActivityRequest{},
		listWorkoutsRequest{}, workoutIDRequest{},
		dateRequest{}, periodRequest{}, listDailySummariesRequest{},
		listDevicesRequest{}, deviceIDRequest{},
		listGearRequest{}, gearStatsRequest{},
		weighInsRequest{}, addWeighInRequest{},
		addBodyCompositionRequest{}, setBloodPressureRequest{}, addHydrationRequest{},
		goalsRequest{}, emptyRequest{},
		compareActivitiesRequest{}, analyzeTrainingPeriodRequest{},
	} {
		_, err := protocol.NewTool("seed", "", reqStruct)
		require.NoError(t, err)
	}
}

func newTestHandlers(api garmin.API) *handlers {
	return &handlers{api: api, logger: pkg.DefaultLogger}
}

func callArgs(t *testing.T, args map[string]any) *protocol.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return &protocol.CallToolRequest{RawArguments: raw}
}

// resultText 提取结果的文本信封
func resultText(t *testing.T, result *protocol.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*protocol.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListActivitiesFirstPage(t *testing.T) {
	seedSchemas(t)

	var gotOffset, gotLimit int
	api := &fakeAPI{
		listActivities: func(_ context.Context, offset, limit int, activityType string) ([]map[string]any, error) {
			gotOffset, gotLimit = offset, limit
			assert.Equal(t, "running", activityType)
			items := make([]map[string]any, limit)
			for i := range items {
				items[i] = map[string]any{
					"activityId": float64(1000 + i),
					"distance":   float64(5000),
					"duration":   float64(1800),
				}
			}
			return items, nil
		},
	}

	h := newTestHandlers(api)
	result, err := h.listActivities(context.Background(),
		callArgs(t, map[string]any{"limit": 10, "activity_type": "running"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, 11, gotLimit)
	assert.EqualValues(t, 10, gjson.Get(body, "data.count").Int())
	assert.True(t, gjson.Get(body, "pagination.has_more").Bool())
	assert.EqualValues(t, 10, gjson.Get(body, "pagination.returned").Int())
	assert.Equal(t, "5.00 km", gjson.Get(body, "data.activities.0.distance.formatted").String())
	assert.EqualValues(t, 1, gjson.Get(body, "metadata.page").Int())
	assert.Equal(t, "running", gjson.Get(body, "metadata.activity_type").String())

	// 游标指向下一页并钉住过滤条件
	cursor := gjson.Get(body, "pagination.cursor").String()
	decoded, err := garmin.DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Page)
	assert.Equal(t, "running", decoded.Filters["activity_type"])
}

func TestListActivitiesLastPage(t *testing.T) {
	seedSchemas(t)

	api := &fakeAPI{
		listActivities: func(_ context.Context, offset, limit int, _ string) ([]map[string]any, error) {
			assert.Equal(t, 20, offset)
			return []map[string]any{{"activityId": float64(1)}}, nil
		},
	}

	h := newTestHandlers(api)
	cursor := garmin.EncodeCursor(3, nil)
	result, err := h.listActivities(context.Background(),
		callArgs(t, map[string]any{"limit": 10, "cursor": cursor}))
	require.NoError(t, err)

	body := resultText(t, result)
	assert.False(t, gjson.Get(body, "pagination.has_more").Bool())
	assert.Equal(t, gjson.Null, gjson.Get(body, "pagination.cursor").Type)
	assert.EqualValues(t, 3, gjson.Get(body, "metadata.page").Int())
}

func TestListActivitiesInvalidCursor(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{})

	result, err := h.listActivities(context.Background(),
		callArgs(t, map[string]any{"cursor": "invalid-cursor-data"}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
	assert.Contains(t, gjson.Get(body, "error.suggestions.0").String(), "restart pagination")
}

func TestListActivitiesLimitOutOfRange(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{
		listActivities: func(_ context.Context, _, _ int, _ string) ([]map[string]any, error) {
			t.Fatal("upstream must not be called when validation fails")
			return nil, nil
		},
	})

	result, err := h.listActivities(context.Background(), callArgs(t, map[string]any{"limit": 51}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
}

func TestGetActivityNotFound(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{
		activity: func(_ context.Context, _ int64) (map[string]any, error) {
			return nil, garmin.NewAPIError(404, "activity not found", nil)
		},
	})

	result, err := h.getActivity(context.Background(), callArgs(t, map[string]any{"activity_id": 42}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "not_found", gjson.Get(body, "error.type").String())
	assert.NotEmpty(t, gjson.Get(body, "error.suggestions").Array())
}

func TestGetActivityAuthFailure(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{
		activity: func(_ context.Context, _ int64) (map[string]any, error) {
			return nil, garmin.NewAPIError(401, "unauthorized", nil)
		},
	})

	result, err := h.getActivity(context.Background(), callArgs(t, map[string]any{"activity_id": 42}))
	require.NoError(t, err)

	body := resultText(t, result)
	assert.Equal(t, "auth_error", gjson.Get(body, "error.type").String())
}

func TestGetLastActivityEmpty(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{
		listActivities: func(_ context.Context, _, _ int, _ string) ([]map[string]any, error) {
			return nil, nil
		},
	})

	result, err := h.getLastActivity(context.Background(), callArgs(t, map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "not_found", gjson.Get(body, "error.type").String())
}

func TestGetBodyBatteryRangeTooWide(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{
		bodyBattery: func(_ context.Context, _, _ string) ([]map[string]any, error) {
			t.Fatal("upstream must not be called when range validation fails")
			return nil, nil
		},
	})

	result, err := h.getBodyBattery(context.Background(), callArgs(t, map[string]any{"period": "90d"}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
}

func TestListDailySummariesPagination(t *testing.T) {
	seedSchemas(t)

	api := &fakeAPI{
		dailySummary: func(_ context.Context, date string) (map[string]any, error) {
			return map[string]any{"steps": float64(10000)}, nil
		},
	}
	h := newTestHandlers(api)

	// 3 天区间,每页 2 天
	result, err := h.listDailySummaries(context.Background(), callArgs(t, map[string]any{
		"period": "2025-10-01:2025-10-03",
		"limit":  2,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.EqualValues(t, 2, gjson.Get(body, "data.count").Int())
	assert.True(t, gjson.Get(body, "pagination.has_more").Bool())
	// 最新日期在前
	assert.Equal(t, "2025-10-03", gjson.Get(body, "data.summaries.0.calendarDate").String())
	assert.Equal(t, "2025-10-02", gjson.Get(body, "data.summaries.1.calendarDate").String())
	assert.Equal(t, "2025-10-01", gjson.Get(body, "metadata.start_date").String())
	assert.Equal(t, "2025-10-03", gjson.Get(body, "metadata.end_date").String())

	// 第二页:区间来自游标,与首页钉死的日期一致
	cursor := gjson.Get(body, "pagination.cursor").String()
	result, err = h.listDailySummaries(context.Background(), callArgs(t, map[string]any{
		"cursor": cursor,
		"limit":  2,
	}))
	require.NoError(t, err)

	body = resultText(t, result)
	assert.EqualValues(t, 1, gjson.Get(body, "data.count").Int())
	assert.False(t, gjson.Get(body, "pagination.has_more").Bool())
	assert.Equal(t, "2025-10-01", gjson.Get(body, "data.summaries.0.calendarDate").String())
}

func TestAddWeighInValidation(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{})

	result, err := h.addWeighIn(context.Background(), callArgs(t, map[string]any{"weight_kg": 5}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
}

func TestAddWeighInSuccess(t *testing.T) {
	seedSchemas(t)

	var gotWeight float64
	var gotDate string
	h := newTestHandlers(&fakeAPI{
		addWeighIn: func(_ context.Context, weightKg float64, date string) (map[string]any, error) {
			gotWeight, gotDate = weightKg, date
			return map[string]any{"ok": true}, nil
		},
	})

	result, err := h.addWeighIn(context.Background(), callArgs(t, map[string]any{
		"weight_kg": 75.5,
		"date":      "2025-10-15",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, 75.5, gotWeight)
	assert.Equal(t, "2025-10-15", gotDate)

	body := resultText(t, result)
	assert.True(t, gjson.Get(body, "data.recorded").Bool())
	assert.Equal(t, "Wednesday", gjson.Get(body, "metadata.date.day_of_week").String())
}

func TestGetWeighInsDefaultPeriod(t *testing.T) {
	seedSchemas(t)

	var gotStart, gotEnd string
	h := newTestHandlers(&fakeAPI{
		weighIns: func(_ context.Context, startDate, endDate string) (map[string]any, error) {
			gotStart, gotEnd = startDate, endDate
			return map[string]any{"dailyWeightSummaries": []any{}}, nil
		},
	})

	// 省略 period 时默认最近 30 天,必须通过跨度校验
	result, err := h.getWeighIns(context.Background(), callArgs(t, map[string]any{}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "Last 30 days", gjson.Get(body, "metadata.period").String())
	assert.Equal(t, gotStart, gjson.Get(body, "metadata.start_date").String())
	assert.Equal(t, gotEnd, gjson.Get(body, "metadata.end_date").String())
}

func TestListDailySummariesLimitTooHigh(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{
		dailySummary: func(_ context.Context, _ string) (map[string]any, error) {
			t.Fatal("upstream must not be called when validation fails")
			return nil, nil
		},
	})

	// 按天分页的单页上限是 30
	result, err := h.listDailySummaries(context.Background(), callArgs(t, map[string]any{"limit": 31}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
	assert.Contains(t, gjson.Get(body, "error.message").String(), "30")
}

func TestAddBodyCompositionSuccess(t *testing.T) {
	seedSchemas(t)

	var gotDate string
	var gotComp garmin.BodyComposition
	h := newTestHandlers(&fakeAPI{
		addBodyComp: func(_ context.Context, date string, comp garmin.BodyComposition) (map[string]any, error) {
			gotDate, gotComp = date, comp
			return map[string]any{"ok": true}, nil
		},
	})

	result, err := h.addBodyComposition(context.Background(), callArgs(t, map[string]any{
		"weight_kg":      72.4,
		"percent_fat":    18.5,
		"muscle_mass_kg": 34.2,
		"date":           "2025-10-15",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "2025-10-15", gotDate)
	assert.Equal(t, 72.4, gotComp.WeightKg)
	assert.Equal(t, 18.5, gotComp.PercentFat)
	assert.Equal(t, 34.2, gotComp.MuscleMassKg)
	assert.Zero(t, gotComp.BoneMassKg)

	body := resultText(t, result)
	assert.True(t, gjson.Get(body, "data.recorded").Bool())
	assert.Equal(t, "Wednesday", gjson.Get(body, "metadata.date.day_of_week").String())
}

func TestAddBodyCompositionValidation(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{})

	for name, args := range map[string]map[string]any{
		"weight out of range": {"weight_kg": 5},
		"percent over 100":    {"weight_kg": 72, "percent_fat": 130},
		"negative mass":       {"weight_kg": 72, "bone_mass_kg": -1},
	} {
		result, err := h.addBodyComposition(context.Background(), callArgs(t, args))
		require.NoError(t, err)
		require.True(t, result.IsError, name)

		body := resultText(t, result)
		assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String(), name)
	}
}

func TestSetBloodPressureSuccess(t *testing.T) {
	seedSchemas(t)

	var gotNotes string
	h := newTestHandlers(&fakeAPI{
		setBloodPressure: func(_ context.Context, systolic, diastolic, pulse int, notes string) (map[string]any, error) {
			assert.Equal(t, 120, systolic)
			assert.Equal(t, 80, diastolic)
			assert.Equal(t, 60, pulse)
			gotNotes = notes
			return map[string]any{"ok": true}, nil
		},
	})

	result, err := h.setBloodPressure(context.Background(), callArgs(t, map[string]any{
		"systolic":  120,
		"diastolic": 80,
		"pulse":     60,
		"notes":     "morning reading",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "morning reading", gotNotes)
	body := resultText(t, result)
	assert.True(t, gjson.Get(body, "data.recorded").Bool())
	assert.EqualValues(t, 120, gjson.Get(body, "data.systolic").Int())
}

func TestSetBloodPressureValidation(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{})

	for name, args := range map[string]map[string]any{
		"systolic too high":        {"systolic": 300, "diastolic": 80, "pulse": 60},
		"diastolic above systolic": {"systolic": 110, "diastolic": 120, "pulse": 60},
		"pulse too low":            {"systolic": 120, "diastolic": 80, "pulse": 10},
	} {
		result, err := h.setBloodPressure(context.Background(), callArgs(t, args))
		require.NoError(t, err)
		require.True(t, result.IsError, name)

		body := resultText(t, result)
		assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String(), name)
	}
}

func TestAddHydration(t *testing.T) {
	seedSchemas(t)

	var gotDate string
	var gotML int
	h := newTestHandlers(&fakeAPI{
		addHydration: func(_ context.Context, date string, valueML int) (map[string]any, error) {
			gotDate, gotML = date, valueML
			return map[string]any{"ok": true}, nil
		},
	})

	result, err := h.addHydration(context.Background(), callArgs(t, map[string]any{
		"value_in_ml": 500,
		"date":        "2025-10-15",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "2025-10-15", gotDate)
	assert.Equal(t, 500, gotML)
	body := resultText(t, result)
	assert.EqualValues(t, 500, gjson.Get(body, "data.value_in_ml").Int())

	// 非正值拒绝
	result, err = h.addHydration(context.Background(), callArgs(t, map[string]any{"value_in_ml": 0}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Equal(t, "validation_error", gjson.Get(resultText(t, result), "error.type").String())
}

func TestCompareActivities(t *testing.T) {
	seedSchemas(t)

	h := newTestHandlers(&fakeAPI{
		activity: func(_ context.Context, id int64) (map[string]any, error) {
			return map[string]any{
				"activityId":    float64(id),
				"activityType":  map[string]any{"typeKey": "running"},
				"distance":      float64(id * 1000),
				"duration":      float64(id*500 + 1000),
				"elevationGain": float64(id * 10),
				"averageHR":     float64(id * 30),
			}, nil
		},
	})

	result, err := h.compareActivities(context.Background(), callArgs(t, map[string]any{
		"activity_ids": "3,5",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.EqualValues(t, 2, gjson.Get(body, "data.count").Int())
	assert.EqualValues(t, 5, gjson.Get(body, "data.comparison.distance.longest.id").Int())
	assert.EqualValues(t, 3, gjson.Get(body, "data.comparison.distance.shortest.id").Int())
	assert.EqualValues(t, 3, gjson.Get(body, "data.comparison.time.fastest.id").Int())

	// 3000m/2500s = 1.2 m/s,5000m/3500s ≈ 1.43 m/s
	assert.EqualValues(t, 5, gjson.Get(body, "data.comparison.pace.fastest.id").Int())
	assert.EqualValues(t, 3, gjson.Get(body, "data.comparison.pace.slowest.id").Int())
	assert.InDelta(t, 1.4286, gjson.Get(body, "data.comparison.pace.fastest.mps").Num, 0.001)

	assert.EqualValues(t, 5, gjson.Get(body, "data.comparison.elevation.most.id").Int())
	assert.EqualValues(t, 3, gjson.Get(body, "data.comparison.elevation.least.id").Int())

	assert.EqualValues(t, 5, gjson.Get(body, "data.comparison.heart_rate.highest_avg.id").Int())
	assert.EqualValues(t, 90, gjson.Get(body, "data.comparison.heart_rate.lowest_avg.bpm").Num)
	assert.Equal(t, "150 bpm", gjson.Get(body, "data.comparison.heart_rate.highest_avg.formatted").String())

	insights := gjson.Get(body, "analysis.insights").Array()
	require.Len(t, insights, 2)
	assert.Equal(t, "All activities are running type", insights[0].String())
	assert.Equal(t, "Moderate pace variation: fastest is 19% faster than slowest", insights[1].String())
}

func TestCompareActivitiesPaceVariationTiers(t *testing.T) {
	seedSchemas(t)

	// 配速差由距离拉开,时长相同
	cases := []struct {
		name     string
		fastDist float64
		insight  string
	}{
		{"large", 2600, "Large pace variation: fastest is 30% faster than slowest"},
		{"moderate", 2300, "Moderate pace variation: fastest is 15% faster than slowest"},
		{"consistent", 2100, "Consistent pace: only 5% difference between fastest and slowest"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandlers(&fakeAPI{
				activity: func(_ context.Context, id int64) (map[string]any, error) {
					dist := float64(2000)
					if id == 2 {
						dist = tc.fastDist
					}
					return map[string]any{
						"activityId": float64(id),
						"distance":   dist,
						"duration":   float64(1000),
					}, nil
				},
			})

			result, err := h.compareActivities(context.Background(), callArgs(t, map[string]any{
				"activity_ids": "1,2",
			}))
			require.NoError(t, err)
			require.False(t, result.IsError)

			body := resultText(t, result)
			assert.Equal(t, tc.insight, gjson.Get(body, "analysis.insights.1").String())
		})
	}
}

func TestCompareActivitiesMixedTypes(t *testing.T) {
	seedSchemas(t)

	h := newTestHandlers(&fakeAPI{
		activity: func(_ context.Context, id int64) (map[string]any, error) {
			typeKey := "running"
			if id == 2 {
				typeKey = "cycling"
			}
			return map[string]any{
				"activityId":   float64(id),
				"activityType": map[string]any{"typeKey": typeKey},
				"distance":     float64(5000),
				"duration":     float64(1800),
			}, nil
		},
	})

	result, err := h.compareActivities(context.Background(), callArgs(t, map[string]any{
		"activity_ids": "1,2",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	insights := gjson.Get(body, "analysis.insights").Array()
	require.Len(t, insights, 3)
	assert.Equal(t, "Activities span 2 different types: running, cycling", insights[0].String())
	assert.Equal(t, "Consistent pace: only 0% difference between fastest and slowest", insights[1].String())
	assert.Equal(t, "Similar distance across all activities", insights[2].String())
}

func TestCompareActivitiesIDValidation(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{})

	for _, ids := range []string{"123", "1,2,3,4,5,6", "1,abc"} {
		result, err := h.compareActivities(context.Background(),
			callArgs(t, map[string]any{"activity_ids": ids}))
		require.NoError(t, err)
		require.True(t, result.IsError, "ids=%s", ids)

		body := resultText(t, result)
		assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
	}
}

func TestAnalyzeTrainingPeriod(t *testing.T) {
	seedSchemas(t)

	h := newTestHandlers(&fakeAPI{
		activitiesByDate: func(_ context.Context, startDate, endDate, activityType string) ([]map[string]any, error) {
			assert.Equal(t, "2025-10-01", startDate)
			assert.Equal(t, "2025-10-14", endDate)
			return []map[string]any{
				{"activityType": map[string]any{"typeKey": "running"}, "distance": float64(5000), "duration": float64(1800), "startTimeLocal": "2025-10-02T06:30:00"},
				{"activityType": map[string]any{"typeKey": "running"}, "distance": float64(8000), "duration": float64(2700), "startTimeLocal": "2025-10-06T06:30:00"},
				{"activityType": map[string]any{"typeKey": "running"}, "distance": float64(10000), "duration": float64(3300), "startTimeLocal": "2025-10-10T06:30:00"},
				{"activityType": map[string]any{"typeKey": "cycling"}, "distance": float64(30000), "duration": float64(5400), "startTimeLocal": "2025-10-12T08:00:00"},
			}, nil
		},
	})

	result, err := h.analyzeTrainingPeriod(context.Background(), callArgs(t, map[string]any{
		"period": "2025-10-01:2025-10-14",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.EqualValues(t, 4, gjson.Get(body, "data.summary.count").Int())
	assert.Equal(t, "running", gjson.Get(body, "data.by_type.0.type").String())
	assert.EqualValues(t, 3, gjson.Get(body, "data.by_type.0.count").Int())
	assert.EqualValues(t, 75, gjson.Get(body, "data.by_type.0.percentage").Num)
	assert.Equal(t, "Training heavily focused on running", gjson.Get(body, "analysis.insights.1").String())
	assert.EqualValues(t, 14, gjson.Get(body, "data.period.days").Int())
	assert.True(t, gjson.Get(body, "data.weekly_trends").IsArray())
}

func TestAnalyzeTrainingPeriodEmpty(t *testing.T) {
	seedSchemas(t)

	h := newTestHandlers(&fakeAPI{
		activitiesByDate: func(_ context.Context, _, _, _ string) ([]map[string]any, error) {
			return nil, nil
		},
	})

	result, err := h.analyzeTrainingPeriod(context.Background(), callArgs(t, map[string]any{
		"period": "2025-10-01:2025-10-07",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.EqualValues(t, 0, gjson.Get(body, "data.summary.total_activities").Int())
	assert.Equal(t, "No activities found in this period", gjson.Get(body, "analysis.insights.0").String())
}

func TestListDevicesNoArguments(t *testing.T) {
	seedSchemas(t)

	h := newTestHandlers(&fakeAPI{
		devices: func(_ context.Context) ([]map[string]any, error) {
			return []map[string]any{{"deviceId": float64(1), "productDisplayName": "Forerunner 965"}}, nil
		},
	})

	// arguments 可整体省略
	result, err := h.listDevices(context.Background(), &protocol.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultText(t, result)
	assert.EqualValues(t, 1, gjson.Get(body, "data.count").Int())
	assert.True(t, gjson.Get(body, "metadata.fetched_at").Exists())
}

func TestInvalidUnitRejected(t *testing.T) {
	seedSchemas(t)
	h := newTestHandlers(&fakeAPI{})

	result, err := h.listActivities(context.Background(), callArgs(t, map[string]any{"unit": "nautical"}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	body := resultText(t, result)
	assert.Equal(t, "validation_error", gjson.Get(body, "error.type").String())
}
