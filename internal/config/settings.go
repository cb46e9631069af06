package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/pofactory/po-translator/pkg/icron"
)

// SettingsFileName is the project file looked up from the working
// directory towards the filesystem root.
const SettingsFileName = ".potrans.yaml"

// Settings is the project-file overlay. Zero fields leave the loaded
// configuration untouched; booleans use pointers so "false" and
// "absent" stay distinguishable.
type Settings struct {
	LLMAPIURL   string `yaml:"llm_api_url,omitempty"`
	LLMAPIKey   string `yaml:"llm_api_key,omitempty"`
	LLMModel    string `yaml:"llm_model,omitempty"`
	SourceLang  string `yaml:"source_lang,omitempty"`
	TargetLang  string `yaml:"target_lang,omitempty"`
	AutoDetect  *bool  `yaml:"auto_detect,omitempty"`
	Offline     *bool  `yaml:"offline,omitempty"`
	Workers     int    `yaml:"workers,omitempty"`
	Context     string `yaml:"context,omitempty"`
	CronExpr    string `yaml:"cron_expr,omitempty"`
	GlossaryDir string `yaml:"glossary_dir,omitempty"`
	CachePath   string `yaml:"cache_path,omitempty"`
}

// Validate checks the fields that are present.
func (s Settings) Validate() error {
	if s.SourceLang != "" {
		if _, err := language.Parse(s.SourceLang); err != nil {
			return fmt.Errorf("invalid source_lang %q: %w", s.SourceLang, err)
		}
	}
	if s.TargetLang != "" {
		if _, err := language.Parse(s.TargetLang); err != nil {
			return fmt.Errorf("invalid target_lang %q: %w", s.TargetLang, err)
		}
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", s.Workers)
	}
	if s.CronExpr != "" {
		if _, err := icron.Parse(s.CronExpr); err != nil {
			return err
		}
	}
	return nil
}

// FindSettingsFile walks from dir towards the root and returns the
// first .potrans.yaml found, or "" when there is none.
func FindSettingsFile(dir string) string {
	for {
		candidate := filepath.Join(dir, SettingsFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadSettingsFile reads and validates a project file.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// WithSettings overlays a project file onto the environment config.
func WithSettings(settings Settings) Option {
	return func(c *Config) {
		if v := strings.TrimSpace(settings.LLMAPIURL); v != "" {
			c.LLM.APIURL = v
		}
		if v := strings.TrimSpace(settings.LLMAPIKey); v != "" {
			c.LLM.APIKey = v
		}
		if v := strings.TrimSpace(settings.LLMModel); v != "" {
			c.LLM.Model = v
		}
		if v := strings.TrimSpace(settings.SourceLang); v != "" {
			c.Translate.SourceLang = v
		}
		if v := strings.TrimSpace(settings.TargetLang); v != "" {
			c.Translate.TargetLang = v
		}
		if settings.AutoDetect != nil {
			c.Translate.AutoDetect = *settings.AutoDetect
		}
		if settings.Offline != nil {
			c.Translate.Offline = *settings.Offline
		}
		if settings.Workers > 0 {
			c.Translate.Workers = settings.Workers
		}
		if v := strings.TrimSpace(settings.Context); v != "" {
			c.Translate.Context = v
		}
		if v := strings.TrimSpace(settings.CronExpr); v != "" {
			c.Watch.CronExpr = v
		}
		if v := strings.TrimSpace(settings.GlossaryDir); v != "" {
			c.Paths.GlossaryDir = v
		}
		if v := strings.TrimSpace(settings.CachePath); v != "" {
			c.Paths.CachePath = v
		}
	}
}

// Settings snapshots the effective configuration as a project file
// payload, API key excluded.
func (c *Config) Settings() Settings {
	autoDetect := c.Translate.AutoDetect
	offline := c.Translate.Offline
	return Settings{
		LLMAPIURL:   c.LLM.APIURL,
		LLMModel:    c.LLM.Model,
		SourceLang:  c.Translate.SourceLang,
		TargetLang:  c.Translate.TargetLang,
		AutoDetect:  &autoDetect,
		Offline:     &offline,
		Workers:     c.Translate.Workers,
		Context:     c.Translate.Context,
		CronExpr:    c.Watch.CronExpr,
		GlossaryDir: c.Paths.GlossaryDir,
		CachePath:   c.Paths.CachePath,
	}
}

// WriteSettingsFile validates and writes a project file, replacing any
// existing one atomically.
func WriteSettingsFile(path string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	content, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
