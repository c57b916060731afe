package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

// API Garmin Connect 上游能力接口,每个方法对应一个上游端点
// [设计决策]: 工具层只依赖此窄接口,测试用假实现注入,不经过 HTTP
type API interface {
	// 活动
	ListActivities(ctx context.Context, offset, limit int, activityType string) ([]map[string]any, error)
	ActivitiesByDate(ctx context.Context, startDate, endDate, activityType string) ([]map[string]any, error)
	Activity(ctx context.Context, activityID int64) (map[string]any, error)
	ActivitySplits(ctx context.Context, activityID int64) (map[string]any, error)
	ActivityWeather(ctx context.Context, activityID int64) (map[string]any, error)
	ActivityHRZones(ctx context.Context, activityID int64) ([]map[string]any, error)
	ActivityGear(ctx context.Context, activityID int64) ([]map[string]any, error)

	// 训练计划
	ListWorkouts(ctx context.Context, offset, limit int) ([]map[string]any, error)
	Workout(ctx context.Context, workoutID int64) (map[string]any, error)

	// 健康指标
	Sleep(ctx context.Context, date string) (map[string]any, error)
	Steps(ctx context.Context, date string) ([]map[string]any, error)
	HeartRates(ctx context.Context, date string) (map[string]any, error)
	Stress(ctx context.Context, date string) (map[string]any, error)
	BodyBattery(ctx context.Context, startDate, endDate string) ([]map[string]any, error)
	DailySummary(ctx context.Context, date string) (map[string]any, error)

	// 设备与装备
	Devices(ctx context.Context) ([]map[string]any, error)
	DeviceSettings(ctx context.Context, deviceID int64) (map[string]any, error)
	Gear(ctx context.Context) ([]map[string]any, error)
	GearStats(ctx context.Context, gearUUID string) (map[string]any, error)

	// 体重
	WeighIns(ctx context.Context, startDate, endDate string) (map[string]any, error)
	AddWeighIn(ctx context.Context, weightKg float64, date string) (map[string]any, error)

	// 健康数据录入
	AddBodyComposition(ctx context.Context, date string, comp BodyComposition) (map[string]any, error)
	SetBloodPressure(ctx context.Context, systolic, diastolic, pulse int, notes string) (map[string]any, error)
	AddHydration(ctx context.Context, date string, valueML int) (map[string]any, error)

	// 用户
	Goals(ctx context.Context, status string) ([]map[string]any, error)
	EarnedBadges(ctx context.Context) ([]map[string]any, error)
	UserProfile(ctx context.Context) (map[string]any, error)
}

// RestClient API 的 HTTP 实现
type RestClient struct {
	baseURL    string
	httpClient *http.Client
	auth       *Authenticator
	logger     pkg.Logger

	// displayName 部分 wellness 端点要求用户标识,首次使用时从 socialProfile 取得
	displayNameOnce sync.Once
	displayName     string
	displayNameErr  error
}

// NewRestClient 构造上游客户端,认证器负责令牌获取与续期
func NewRestClient(cfg *Config, auth *Authenticator, logger pkg.Logger) *RestClient {
	return &RestClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		auth:       auth,
		logger:     logger,
	}
}

var _ API = (*RestClient)(nil)

// get 发起带令牌的 GET,按状态码归类错误
// [注意]: 不做重试,限流错误直接上抛,由调用方提示用户等待
func (c *RestClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *RestClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindGeneric, Message: fmt.Sprintf("request %s failed", path), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindGeneric, Message: fmt.Sprintf("read response of %s", path), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debugf("upstream %s %s returned status %d", method, path, resp.StatusCode)
		return NewAPIError(resp.StatusCode, fmt.Sprintf("upstream request %s failed", path), nil)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := pkg.JSONUnmarshal(raw, out); err != nil {
		return &APIError{Kind: KindGeneric, Message: fmt.Sprintf("decode response of %s", path), Err: err}
	}
	return nil
}

// getDisplayName 惰性获取并缓存用户 displayName
func (c *RestClient) getDisplayName(ctx context.Context) (string, error) {
	c.displayNameOnce.Do(func() {
		profile, err := c.UserProfile(ctx)
		if err != nil {
			c.displayNameErr = err
			return
		}
		name, _ := profile["displayName"].(string)
		if name == "" {
			c.displayNameErr = &APIError{Kind: KindGeneric, Message: "user profile has no displayName"}
			return
		}
		c.displayName = name
	})
	return c.displayName, c.displayNameErr
}

func (c *RestClient) ListActivities(ctx context.Context, offset, limit int, activityType string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if activityType != "" {
		q.Set("activityType", activityType)
	}
	var out []map[string]any
	if err := c.get(ctx, "/activitylist-service/activities/search/activities", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) ActivitiesByDate(ctx context.Context, startDate, endDate, activityType string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	// 上游按日期过滤时仍需要翻页参数,这里直接取区间内全部
	q.Set("start", "0")
	q.Set("limit", "1000")
	if activityType != "" {
		q.Set("activityType", activityType)
	}
	var out []map[string]any
	if err := c.get(ctx, "/activitylist-service/activities/search/activities", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Activity(ctx context.Context, activityID int64) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/activity-service/activity/%d", activityID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) ActivitySplits(ctx context.Context, activityID int64) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/activity-service/activity/%d/splits", activityID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) ActivityWeather(ctx context.Context, activityID int64) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/activity-service/activity/%d/weather", activityID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) ActivityHRZones(ctx context.Context, activityID int64) ([]map[string]any, error) {
	var out []map[string]any
	path := fmt.Sprintf("/activity-service/activity/%d/hrTimeInZones", activityID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) ActivityGear(ctx context.Context, activityID int64) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("activityId", strconv.FormatInt(activityID, 10))
	var out []map[string]any
	if err := c.get(ctx, "/gear-service/gear/filterGear", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) ListWorkouts(ctx context.Context, offset, limit int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var out []map[string]any
	if err := c.get(ctx, "/workout-service/workouts", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Workout(ctx context.Context, workoutID int64) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/workout-service/workout/%d", workoutID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Sleep(ctx context.Context, date string) (map[string]any, error) {
	name, err := c.getDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("date", date)
	var out map[string]any
	path := "/wellness-service/wellness/dailySleepData/" + url.PathEscape(name)
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Steps(ctx context.Context, date string) ([]map[string]any, error) {
	name, err := c.getDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	path := fmt.Sprintf("/wellness-service/wellness/dailySummaryChart/%s", url.PathEscape(name))
	q := url.Values{}
	q.Set("date", date)
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) HeartRates(ctx context.Context, date string) (map[string]any, error) {
	name, err := c.getDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("date", date)
	var out map[string]any
	path := "/wellness-service/wellness/dailyHeartRate/" + url.PathEscape(name)
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Stress(ctx context.Context, date string) (map[string]any, error) {
	var out map[string]any
	path := "/wellness-service/wellness/dailyStress/" + url.PathEscape(date)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) BodyBattery(ctx context.Context, startDate, endDate string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var out []map[string]any
	if err := c.get(ctx, "/wellness-service/wellness/bodyBattery/reports/daily", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) DailySummary(ctx context.Context, date string) (map[string]any, error) {
	name, err := c.getDisplayName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("calendarDate", date)
	var out map[string]any
	path := "/usersummary-service/usersummary/daily/" + url.PathEscape(name)
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Devices(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.get(ctx, "/device-service/deviceregistration/devices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) DeviceSettings(ctx context.Context, deviceID int64) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/device-service/deviceservice/device-info/settings/%d", deviceID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Gear(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.get(ctx, "/gear-service/gear/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) GearStats(ctx context.Context, gearUUID string) (map[string]any, error) {
	var out map[string]any
	path := "/gear-service/gear/stats/" + url.PathEscape(gearUUID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) WeighIns(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	var out map[string]any
	if err := c.get(ctx, "/weight-service/weight/range", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) AddWeighIn(ctx context.Context, weightKg float64, date string) (map[string]any, error) {
	body := map[string]any{
		"dateTimestamp": date + "T00:00:00.00",
		"gmtTimestamp":  date + "T00:00:00.00",
		"unitKey":       "kg",
		"sourceType":    "MANUAL",
		"value":         weightKg,
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/weight-service/user-weight", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BodyComposition 手动录入的身体成分,体重必填,其余字段为零时不上传
type BodyComposition struct {
	WeightKg         float64
	PercentFat       float64
	PercentHydration float64
	BoneMassKg       float64
	MuscleMassKg     float64
}

func (c *RestClient) AddBodyComposition(ctx context.Context, date string, comp BodyComposition) (map[string]any, error) {
	body := map[string]any{
		"dateTimestamp": date + "T00:00:00.00",
		"gmtTimestamp":  date + "T00:00:00.00",
		"unitKey":       "kg",
		"sourceType":    "MANUAL",
		"value":         comp.WeightKg,
	}
	if comp.PercentFat > 0 {
		body["percentFat"] = comp.PercentFat
	}
	if comp.PercentHydration > 0 {
		body["percentHydration"] = comp.PercentHydration
	}
	if comp.BoneMassKg > 0 {
		body["boneMass"] = comp.BoneMassKg
	}
	if comp.MuscleMassKg > 0 {
		body["muscleMass"] = comp.MuscleMassKg
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/weight-service/user-weight", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) SetBloodPressure(ctx context.Context, systolic, diastolic, pulse int, notes string) (map[string]any, error) {
	const stamp = "2006-01-02T15:04:05.00"
	body := map[string]any{
		"measurementTimestampLocal": nowLocal().Format(stamp),
		"measurementTimestampGMT":   nowLocal().UTC().Format(stamp),
		"systolic":                  systolic,
		"diastolic":                 diastolic,
		"pulse":                     pulse,
		"sourceType":                "MANUAL",
	}
	if notes != "" {
		body["notes"] = notes
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/bloodpressure-service/bloodpressure", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) AddHydration(ctx context.Context, date string, valueML int) (map[string]any, error) {
	body := map[string]any{
		"calendarDate":   date,
		"timestampLocal": nowLocal().Format("2006-01-02T15:04:05.00"),
		"valueInML":      valueML,
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPut, "/usersummary-service/usersummary/hydration/log", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) Goals(ctx context.Context, status string) ([]map[string]any, error) {
	q := url.Values{}
	if status == "" {
		status = "active"
	}
	q.Set("status", status)
	q.Set("start", "1")
	q.Set("limit", "30")
	var out []map[string]any
	if err := c.get(ctx, "/goal-service/goal/goals", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) EarnedBadges(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.get(ctx, "/badge-service/badge/earned", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RestClient) UserProfile(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "/userprofile-service/socialProfile", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
