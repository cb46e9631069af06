package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("PO_TARGET_LANG", "")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.APIURL)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 30, cfg.LLM.Timeout)

	assert.Equal(t, "en", cfg.Translate.SourceLang)
	assert.Equal(t, "fr", cfg.Translate.TargetLang)
	assert.True(t, cfg.Translate.AutoDetect)
	assert.False(t, cfg.Translate.Offline)
	assert.Equal(t, 4, cfg.Translate.Workers)
	assert.Equal(t, 2, cfg.Translate.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Translate.RateLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Translate.RetryBackoff)

	assert.Equal(t, "0 * * * *", cfg.Watch.CronExpr)
	assert.NotEmpty(t, cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "cache.db"), cfg.Paths.CachePath)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.False(t, cfg.OnlineReady())
}

func TestNewFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "anthropic/claude-3-haiku")
	t.Setenv("PO_TARGET_LANG", "es")
	t.Setenv("PO_AUTO_DETECT", "false")
	t.Setenv("PO_OFFLINE", "1")
	t.Setenv("PO_WORKERS", "8")
	t.Setenv("PO_RATE_LIMIT_MS", "250")
	t.Setenv("PO_CRON_EXPR", "*/15 * * * *")
	t.Setenv("PO_DATA_DIR", "/tmp/po-state")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.OnlineReady())
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.LLM.Model)
	assert.Equal(t, "es", cfg.Translate.TargetLang)
	assert.False(t, cfg.Translate.AutoDetect)
	assert.True(t, cfg.Translate.Offline)
	assert.Equal(t, 8, cfg.Translate.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Translate.RateLimit)
	assert.Equal(t, "*/15 * * * *", cfg.Watch.CronExpr)
	assert.Equal(t, filepath.Join("/tmp/po-state", "cache.db"), cfg.Paths.CachePath)
}

func TestNewFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PO_WORKERS", "lots")
	t.Setenv("LLM_TEMPERATURE", "warm")
	t.Setenv("PO_AUTO_DETECT", "maybe")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Translate.Workers)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.True(t, cfg.Translate.AutoDetect)
}

func TestNewFromEnvValidation(t *testing.T) {
	t.Setenv("PO_TARGET_LANG", "!!")
	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnvRejectsBadCron(t *testing.T) {
	t.Setenv("PO_CRON_EXPR", "every hour please")
	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnvRejectsZeroWorkers(t *testing.T) {
	t.Setenv("PO_WORKERS", "0")
	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestOptionsWin(t *testing.T) {
	t.Setenv("PO_TARGET_LANG", "es")

	cfg, err := NewFromEnv(func(c *Config) {
		c.Translate.TargetLang = "pt"
		c.Translate.Offline = true
	})
	require.NoError(t, err)
	assert.Equal(t, "pt", cfg.Translate.TargetLang)
	assert.True(t, cfg.Translate.Offline)
}

func TestEnsureDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "po")
	t.Setenv("PO_DATA_DIR", dir)

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, dir)
}
