package garmin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(t.TempDir())

	token := &Token{
		AccessToken:  "access-123",
		TokenType:    "Bearer",
		RefreshToken: "refresh-456",
		ExpiresAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(token))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.True(t, token.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestTokenStoreLoadMissing(t *testing.T) {
	store := NewTokenStore(t.TempDir())

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestTokenExpired(t *testing.T) {
	assert.True(t, (*Token)(nil).Expired())
	assert.True(t, (&Token{}).Expired())
	// 余量 60 秒内视为过期
	assert.True(t, (&Token{AccessToken: "x", ExpiresAt: time.Now().Add(30 * time.Second)}).Expired())
	assert.False(t, (&Token{AccessToken: "x", ExpiresAt: time.Now().Add(5 * time.Minute)}).Expired())
}

func TestValidateCredentials(t *testing.T) {
	cfg := &Config{Email: "user@example.com", Password: "secret"}
	require.NoError(t, cfg.ValidateCredentials())

	for _, bad := range []*Config{
		{Email: "", Password: "secret"},
		{Email: "your_email@example.com", Password: "secret"},
		{Email: "user@example.com", Password: ""},
		{Email: "user@example.com", Password: "your_password"},
	} {
		err := bad.ValidateCredentials()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestAuthenticatorLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth-service/oauth/exchange/user/2.0", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "user@example.com", r.FormValue("username"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","refresh_token":"ref-1","expires_in":3600}`))
	}))
	defer srv.Close()

	cfg := &Config{
		Email:       "user@example.com",
		Password:    "secret",
		TokenDir:    t.TempDir(),
		BaseURL:     srv.URL,
		HTTPTimeout: 5 * time.Second,
	}
	auth := NewAuthenticator(cfg, pkg.DefaultLogger)

	token, err := auth.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token.AccessToken)
	assert.False(t, token.Expired())

	// 令牌已持久化,Token() 不应再触发登录
	stored, err := auth.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", stored.AccessToken)

	reused, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", reused.AccessToken)
}

func TestAuthenticatorLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := &Config{
		Email:       "user@example.com",
		Password:    "wrong",
		TokenDir:    t.TempDir(),
		BaseURL:     srv.URL,
		HTTPTimeout: 5 * time.Second,
	}
	auth := NewAuthenticator(cfg, pkg.DefaultLogger)

	_, err := auth.Login(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindAuth, apiErr.Kind)
}
