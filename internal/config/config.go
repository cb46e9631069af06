// Package config assembles runtime settings from defaults, an optional
// .env file, environment variables, an optional .potrans.yaml project
// file, and functional overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/pofactory/po-translator/internal/llm"
	"github.com/pofactory/po-translator/pkg/icron"
	"github.com/pofactory/po-translator/pkg/log"
)

// Environment variables:
//
// LLM backend:
// - LLM_API_KEY: API key, required for online translation
// - LLM_API_URL: endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: model name (default: openai/gpt-4o-mini)
// - LLM_MAX_TOKENS: response token cap (default: 1000)
// - LLM_TEMPERATURE: sampling temperature (default: 0.3)
// - LLM_TIMEOUT: request timeout in seconds (default: 30)
// - LLM_SITE_URL, LLM_APP_NAME: optional attribution headers
//
// Translation:
// - PO_SOURCE_LANG: assumed source language (default: en)
// - PO_TARGET_LANG: target language (default: fr)
// - PO_AUTO_DETECT: per-entry source detection (default: true)
// - PO_OFFLINE: glossary-only mode (default: false)
// - PO_WORKERS: batch worker count (default: 4)
// - PO_MAX_RETRIES: online retries per entry (default: 2)
// - PO_RATE_LIMIT_MS: min spacing between remote calls (default: 100)
// - PO_RETRY_BACKOFF_MS: pause before each retry (default: 500)
// - PO_CONTEXT: fallback prompt context label
//
// Paths and watch:
// - PO_DATA_DIR: state directory (default: ~/.po-translator)
// - PO_CACHE_PATH: cache database (default: <data dir>/cache.db)
// - PO_GLOSSARY_DIR: extra glossary files (default: none)
// - PO_CRON_EXPR: watch schedule (default: 0 * * * *)
//
// Logging:
// - PO_LOG_LEVEL: debug|info|warn|error (default: info)
// - PO_LOG_FORMAT: text|json (default: text)

// Config is the full runtime configuration.
type Config struct {
	LLM       llm.Config      `yaml:"llm"`
	Translate TranslateConfig `yaml:"translate"`
	Paths     PathsConfig     `yaml:"paths"`
	Watch     WatchConfig     `yaml:"watch"`
	Log       LogConfig       `yaml:"log"`
}

// TranslateConfig mirrors translator.Config at the settings layer.
type TranslateConfig struct {
	SourceLang   string        `yaml:"source_lang"`
	TargetLang   string        `yaml:"target_lang"`
	AutoDetect   bool          `yaml:"auto_detect"`
	Offline      bool          `yaml:"offline"`
	Workers      int           `yaml:"workers"`
	MaxRetries   int           `yaml:"max_retries"`
	RateLimit    time.Duration `yaml:"rate_limit"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Context      string        `yaml:"context"`
}

// PathsConfig locates the tool's on-disk state.
type PathsConfig struct {
	DataDir     string `yaml:"data_dir"`
	CachePath   string `yaml:"cache_path"`
	GlossaryDir string `yaml:"glossary_dir"`
}

// WatchConfig drives the scheduled sweep service.
type WatchConfig struct {
	CronExpr string `yaml:"cron_expr"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Option overrides a loaded Config.
type Option func(*Config)

// NewFromEnv builds a Config from the environment. A .env file in the
// working directory is folded in first when present; options run last
// and win.
func NewFromEnv(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug("config: loaded .env")
	}

	cfg := &Config{
		LLM: llm.Config{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-4o-mini"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Translate: TranslateConfig{
			SourceLang:   getEnvString("PO_SOURCE_LANG", "en"),
			TargetLang:   getEnvString("PO_TARGET_LANG", "fr"),
			AutoDetect:   getEnvBool("PO_AUTO_DETECT", true),
			Offline:      getEnvBool("PO_OFFLINE", false),
			Workers:      getEnvInt("PO_WORKERS", 4),
			MaxRetries:   getEnvInt("PO_MAX_RETRIES", 2),
			RateLimit:    time.Duration(getEnvInt("PO_RATE_LIMIT_MS", 100)) * time.Millisecond,
			RetryBackoff: time.Duration(getEnvInt("PO_RETRY_BACKOFF_MS", 500)) * time.Millisecond,
			Context:      getEnvString("PO_CONTEXT", ""),
		},
		Paths: PathsConfig{
			DataDir:     getEnvString("PO_DATA_DIR", defaultDataDir()),
			CachePath:   getEnvString("PO_CACHE_PATH", ""),
			GlossaryDir: getEnvString("PO_GLOSSARY_DIR", ""),
		},
		Watch: WatchConfig{
			CronExpr: getEnvString("PO_CRON_EXPR", "0 * * * *"),
		},
		Log: LogConfig{
			Level:  getEnvString("PO_LOG_LEVEL", "info"),
			Format: getEnvString("PO_LOG_FORMAT", "text"),
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Paths.CachePath == "" {
		cfg.Paths.CachePath = filepath.Join(cfg.Paths.DataDir, "cache.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OnlineReady reports whether the online tier can be used at all.
func (c *Config) OnlineReady() bool {
	return c.LLM.APIKey != ""
}

// EnsureDataDir creates the state directory if needed.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// validate catches malformed settings early. Language codes are checked
// syntactically here; whether the detection engine supports them is the
// translator's call.
func (c *Config) validate() error {
	if c.Translate.SourceLang == "" {
		return fmt.Errorf("source language is required")
	}
	if _, err := language.Parse(c.Translate.SourceLang); err != nil {
		return fmt.Errorf("invalid source language %q: %w", c.Translate.SourceLang, err)
	}
	if c.Translate.TargetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if _, err := language.Parse(c.Translate.TargetLang); err != nil {
		return fmt.Errorf("invalid target language %q: %w", c.Translate.TargetLang, err)
	}
	if c.Translate.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Translate.Workers)
	}
	if c.Translate.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got %d", c.Translate.MaxRetries)
	}
	if _, err := icron.Parse(c.Watch.CronExpr); err != nil {
		return err
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".po-translator"
	}
	return filepath.Join(home, ".po-translator")
}

func getEnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn("config: %s=%q is not an integer, using %d", key, value, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn("config: %s=%q is not a number, using %g", key, value, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warn("config: %s=%q is not a boolean, using %v", key, value, fallback)
	}
	return fallback
}
