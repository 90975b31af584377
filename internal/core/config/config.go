package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Somers1/logsheet/internal/core/apperrors"
)

// Duration is a time.Duration written as a Go duration string ("30m").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Global     GlobalConfig     `toml:"global"`
	Grouping   GroupingConfig   `toml:"grouping"`
	Summarizer SummarizerConfig `toml:"summarizer"`
	Calendar   CalendarConfig   `toml:"calendar"`
	Harvest    HarvestConfig    `toml:"harvest"`
	Daemon     DaemonConfig     `toml:"daemon"`

	// Path is where the config was read from; empty when defaults are in use.
	Path string `toml:"-"`
}

type GlobalConfig struct {
	Timezone string `toml:"timezone"`
}

type GroupingConfig struct {
	GapTolerance       Duration `toml:"gap_tolerance"`
	MinSessionDuration Duration `toml:"min_session_duration"`
}

type SummarizerConfig struct {
	Provider       string   `toml:"provider"` // bedrock, openai, ollama
	Model          string   `toml:"model"`
	Region         string   `toml:"region"`
	Profile        string   `toml:"profile"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	APIKey         string   `toml:"api_key"`
	BaseURL        string   `toml:"base_url"`
	Timeout        Duration `toml:"timeout"`
	MaxTokens      int      `toml:"max_tokens"`
	Temperature    float64  `toml:"temperature"`
	PromptTemplate string   `toml:"prompt_template"` // mustache; file path or inline
	MaxEventChars  int      `toml:"max_event_chars"`
}

type CalendarConfig struct {
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserID       string `toml:"user_id"`
	CalendarID   string `toml:"calendar_id"`
	TimeZoneName string `toml:"time_zone_name"` // Windows zone name sent to Graph
	BaseURL      string `toml:"base_url"`
}

type HarvestConfig struct {
	AccessToken string `toml:"access_token"`
	AccountID   string `toml:"account_id"`
	TaskName    string `toml:"task_name"`
	BaseURL     string `toml:"base_url"`
	UserAgent   string `toml:"user_agent"`
}

type DaemonConfig struct {
	Interval    Duration `toml:"interval"`
	Concurrency int      `toml:"concurrency"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Global: GlobalConfig{Timezone: "UTC"},
		Grouping: GroupingConfig{
			GapTolerance:       Duration{30 * time.Minute},
			MinSessionDuration: Duration{15 * time.Minute},
		},
		Summarizer: SummarizerConfig{
			Provider:      "bedrock",
			Model:         "anthropic.claude-3-haiku-20240307-v1:0",
			Region:        "us-east-1",
			Timeout:       Duration{2 * time.Minute},
			MaxTokens:     500,
			Temperature:   0.3,
			MaxEventChars: 2000,
		},
		Calendar: CalendarConfig{
			TimeZoneName: "AUS Eastern Standard Time",
			BaseURL:      "https://graph.microsoft.com/v1.0",
		},
		Harvest: HarvestConfig{
			TaskName:  "logsheet",
			BaseURL:   "https://api.harvestapp.com/v2",
			UserAgent: "logsheet",
		},
		Daemon: DaemonConfig{
			Interval:    Duration{15 * time.Minute},
			Concurrency: 4,
		},
	}
}

// Dir returns ~/.config/logsheet.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "logsheet"), nil
}

// DefaultPath returns ~/.config/logsheet/config.toml.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads config from path, or ~/.config/logsheet/config.toml when path is
// empty. A missing file yields defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil // Use defaults
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrConfiguration, path, err)
	}
	cfg.Path = path

	// A prompt_template pointing at a file is replaced by the file's contents
	if tpl := cfg.Summarizer.PromptTemplate; tpl != "" && !strings.Contains(tpl, "{{") {
		p := tpl
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: prompt_template %s: %v", apperrors.ErrConfiguration, p, err)
		}
		cfg.Summarizer.PromptTemplate = string(data)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Grouping.GapTolerance.Duration <= 0 {
		return apperrors.Misconfigured("grouping.gap_tolerance must be positive")
	}
	if c.Grouping.MinSessionDuration.Duration < 0 {
		return apperrors.Misconfigured("grouping.min_session_duration must not be negative")
	}
	if c.Summarizer.Timeout.Duration <= 0 {
		return apperrors.Misconfigured("summarizer.timeout must be positive")
	}
	if c.Daemon.Concurrency < 1 {
		return apperrors.Misconfigured("daemon.concurrency must be at least 1")
	}
	return nil
}

// Location resolves global.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Global.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Global.Timezone)
	if err != nil {
		return nil, apperrors.Misconfigured("global.timezone %q: %v", c.Global.Timezone, err)
	}
	return loc, nil
}

// HarvestEnabled reports whether Harvest credentials are configured.
func (c *Config) HarvestEnabled() bool {
	return c.Harvest.AccessToken != "" && c.Harvest.AccountID != ""
}

// CalendarEnabled reports whether Graph calendar credentials are configured.
func (c *Config) CalendarEnabled() bool {
	return c.Calendar.TenantID != "" && c.Calendar.ClientID != "" && c.Calendar.ClientSecret != "" && c.Calendar.UserID != ""
}
