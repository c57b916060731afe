package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/justinwongcn/garmin-mcp/pkg"
)

const tokenFileName = "oauth2_token.json"

// Token OAuth2 访问令牌,持久化在 token 目录下
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired 过期判定,留 60 秒余量避免边界竞争
func (t *Token) Expired() bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	return time.Now().After(t.ExpiresAt.Add(-60 * time.Second))
}

// TokenStore 文件令牌存储
// [注意]: 目录不存在时惰性创建,权限 0700,令牌文件 0600
type TokenStore struct {
	dir string
}

func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

func (s *TokenStore) Path() string {
	return filepath.Join(s.dir, tokenFileName)
}

// Load 读取持久化令牌,文件不存在返回 os.ErrNotExist
func (s *TokenStore) Load() (*Token, error) {
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var t Token
	if err := pkg.JSONUnmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &t, nil
}

// Save 持久化令牌
func (s *TokenStore) Save(t *Token) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(s.Path(), raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Authenticator 登录编排:先尝试已持久化令牌,失效再走凭证登录
type Authenticator struct {
	cfg        *Config
	store      *TokenStore
	httpClient *http.Client
	logger     pkg.Logger
}

func NewAuthenticator(cfg *Config, logger pkg.Logger) *Authenticator {
	return &Authenticator{
		cfg:        cfg,
		store:      NewTokenStore(cfg.TokenDir),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     logger,
	}
}

// Token 返回可用令牌
// [重要]: 令牌优先,凭证登录只在令牌缺失或过期时触发,避免频繁登录触发风控
func (a *Authenticator) Token(ctx context.Context) (*Token, error) {
	if t, err := a.store.Load(); err == nil && !t.Expired() {
		return t, nil
	} else if err == nil {
		a.logger.Infof("stored token expired, falling back to credential login")
	}
	return a.Login(ctx)
}

// Login 凭证登录并持久化新令牌
func (a *Authenticator) Login(ctx context.Context) (*Token, error) {
	if err := a.cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", a.cfg.Email)
	form.Set("password", a.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/oauth-service/oauth/exchange/user/2.0", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindGeneric, Message: "login request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindGeneric, Message: "read login response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError(resp.StatusCode, "credential login rejected", nil)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := pkg.JSONUnmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse login response: %w", err)
	}

	token := &Token{
		AccessToken:  payload.AccessToken,
		TokenType:    payload.TokenType,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}
	if err := a.store.Save(token); err != nil {
		// 持久化失败不阻断本次会话,下次启动重新登录即可
		a.logger.Warnf("persist token failed: %v", err)
	}
	a.logger.Infof("credential login succeeded, token saved to %s", a.store.Path())
	return token, nil
}
