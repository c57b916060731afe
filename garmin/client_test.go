package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

// newTestRestClient 预置有效令牌,跳过凭证登录
func newTestRestClient(t *testing.T, handler http.Handler) (*RestClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	require.NoError(t, NewTokenStore(dir).Save(&Token{
		AccessToken: "test-token",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	cfg := &Config{
		TokenDir:    dir,
		BaseURL:     srv.URL,
		HTTPTimeout: 5 * time.Second,
	}
	return NewRestClient(cfg, NewAuthenticator(cfg, pkg.DefaultLogger), pkg.DefaultLogger), srv
}

func TestRestClientListActivities(t *testing.T) {
	client, _ := newTestRestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activitylist-service/activities/search/activities", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "20", r.URL.Query().Get("start"))
		assert.Equal(t, "11", r.URL.Query().Get("limit"))
		assert.Equal(t, "running", r.URL.Query().Get("activityType"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"activityId": 1, "distance": 5000.0},
			{"activityId": 2, "distance": 8000.0},
		})
	}))

	activities, err := client.ListActivities(context.Background(), 20, 11, "running")
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, float64(5000), activities[0]["distance"])
}

func TestRestClientErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   APIKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusInternalServerError, KindGeneric},
	}
	for _, tt := range tests {
		client, _ := newTestRestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))

		_, err := client.Activity(context.Background(), 42)
		require.Error(t, err, "status %d", tt.status)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), "status %d", tt.status)
		assert.Equal(t, tt.kind, apiErr.Kind, "status %d", tt.status)
		assert.Equal(t, tt.status, apiErr.StatusCode, "status %d", tt.status)
	}
}

func TestRestClientDisplayNameCached(t *testing.T) {
	var profileHits int32
	client, _ := newTestRestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/userprofile-service/socialProfile":
			atomic.AddInt32(&profileHits, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"displayName": "athlete-1"})
		case "/wellness-service/wellness/dailySleepData/athlete-1":
			assert.Equal(t, "2025-10-15", r.URL.Query().Get("date"))
			_ = json.NewEncoder(w).Encode(map[string]any{"sleepTimeSeconds": 28800})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	for i := 0; i < 2; i++ {
		sleep, err := client.Sleep(context.Background(), "2025-10-15")
		require.NoError(t, err)
		assert.Equal(t, float64(28800), sleep["sleepTimeSeconds"])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&profileHits))
}

func TestRestClientAddWeighIn(t *testing.T) {
	client, _ := newTestRestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/weight-service/user-weight", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 75.5, body["value"])
		assert.Equal(t, "kg", body["unitKey"])
		assert.Equal(t, "2025-10-15T00:00:00.00", body["dateTimestamp"])

		w.WriteHeader(http.StatusOK)
	}))

	resp, err := client.AddWeighIn(context.Background(), 75.5, "2025-10-15")
	require.NoError(t, err)
	assert.Nil(t, resp)
}
