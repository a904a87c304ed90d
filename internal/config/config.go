package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	SecretKey   string
	Location    *time.Location
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string
	Release     string

	AccessTokenTTL time.Duration
	CORSOrigins    []string
	AdminEmails    []string

	AI       AIConfig
	WeChat   OAuthApp
	DingTalk OAuthApp

	LedgerStatsInterval time.Duration
}

// AIConfig: OpenAI-совместимый API для разбора голосовых команд.
type AIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	RatePerMinute int
}

func (c AIConfig) Enabled() bool { return c.APIKey != "" }

type OAuthApp struct {
	AppID     string
	AppSecret string
}

func (a OAuthApp) Enabled() bool { return a.AppID != "" && a.AppSecret != "" }

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Shanghai")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	ttlMin, err := getint("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7)
	if err != nil {
		return nil, err
	}
	aiRate, err := getint("AI_RATE_PER_MINUTE", 20)
	if err != nil {
		return nil, err
	}
	statsEvery, err := time.ParseDuration(getenv("LEDGER_STATS_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_STATS_INTERVAL: %w", err)
	}
	origins, err := parseList(os.Getenv("BACKEND_CORS_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_CORS_ORIGINS: %w", err)
	}
	admins, err := parseList(os.Getenv("ADMIN_EMAILS"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_EMAILS: %w", err)
	}

	cfg := &Config{
		DatabaseURL:    mustEnv("DATABASE_URL"),
		SecretKey:      mustEnv("SECRET_KEY"),
		Location:       loc,
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		Env:            getenv("ENV", "dev"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		Release:        os.Getenv("RELEASE"),
		AccessTokenTTL: time.Duration(ttlMin) * time.Minute,
		CORSOrigins:    origins,
		AdminEmails:    admins,
		AI: AIConfig{
			APIKey:        os.Getenv("AI_API_KEY"),
			BaseURL:       strings.TrimRight(getenv("AI_API_BASE_URL", "https://api.deepseek.com"), "/"),
			Model:         getenv("AI_MODEL", "deepseek-chat"),
			RatePerMinute: aiRate,
		},
		WeChat: OAuthApp{
			AppID:     os.Getenv("WECHAT_APP_ID"),
			AppSecret: os.Getenv("WECHAT_APP_SECRET"),
		},
		DingTalk: OAuthApp{
			AppID:     os.Getenv("DINGTALK_APP_KEY"),
			AppSecret: os.Getenv("DINGTALK_APP_SECRET"),
		},
		LedgerStatsInterval: statsEvery,
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: bad positive int %q", k, v)
	}
	return n, nil
}

// parseList понимает и JSON-массив, и список через запятую/пробел.
func parseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }), nil
}
