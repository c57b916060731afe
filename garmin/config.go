package garmin

import (
	"os"
	"path/filepath"
	"time"
)

// 环境变量名,与 .env 约定保持一致
const (
	envEmail    = "GARMIN_EMAIL"
	envPassword = "GARMIN_PASSWORD"
	envTokenDir = "GARMINTOKENS"
	envBaseURL  = "GARMIN_BASE_URL"
)

// 凭证占位值,视为未配置
const (
	placeholderEmail    = "your_email@example.com"
	placeholderPassword = "your_password"
)

// Config Garmin Connect 连接配置,全部来自环境变量
type Config struct {
	Email       string
	Password    string
	TokenDir    string
	BaseURL     string
	HTTPTimeout time.Duration
}

// LoadConfig 读取环境变量并填充默认值
func LoadConfig() *Config {
	cfg := &Config{
		Email:       os.Getenv(envEmail),
		Password:    os.Getenv(envPassword),
		TokenDir:    os.Getenv(envTokenDir),
		BaseURL:     os.Getenv(envBaseURL),
		HTTPTimeout: 30 * time.Second,
	}
	if cfg.TokenDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.TokenDir = filepath.Join(home, ".garminconnect")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://connectapi.garmin.com"
	}
	return cfg
}

// ValidateCredentials 校验凭证是否已配置,占位值视为未配置
func (c *Config) ValidateCredentials() error {
	if c.Email == "" || c.Email == placeholderEmail {
		return NewValidationError("GARMIN_EMAIL is not configured, run 'garmin-mcp auth' to set up authentication")
	}
	if c.Password == "" || c.Password == placeholderPassword {
		return NewValidationError("GARMIN_PASSWORD is not configured, run 'garmin-mcp auth' to set up authentication")
	}
	return nil
}
