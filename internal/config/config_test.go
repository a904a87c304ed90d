package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/family")
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("AI_API_BASE_URL", "https://ai.example.com/")
	t.Setenv("ADMIN_EMAILS", "mama@example.com papa@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.LedgerStatsInterval)
	assert.Equal(t, "https://ai.example.com", cfg.AI.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.AI.Model)
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.WeChat.Enabled())
	assert.Equal(t, []string{"mama@example.com", "papa@example.com"}, cfg.AdminEmails)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SECRET_KEY", "secret")
	assert.Panics(t, func() { _, _ = Load() })
}

func TestLoad_BadInterval(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/family")
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("LEDGER_STATS_INTERVAL", "often")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	cases := map[string][]string{
		"":                              nil,
		`["http://a.cn","http://b.cn"]`: {"http://a.cn", "http://b.cn"},
		"http://a.cn, http://b.cn":      {"http://a.cn", "http://b.cn"},
		"http://a.cn":                   {"http://a.cn"},
	}
	for in, want := range cases {
		got, err := parseList(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseList("[broken")
	assert.Error(t, err)
}
