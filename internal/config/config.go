package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/reviews/internal/errors"
)

// Source kinds.
const (
	SourceFile  = "file"
	SourceHTTP  = "http"
	SourceStore = "store"
)

// Config is the persistent application configuration
type Config struct {
	// Where pages come from
	Source SourceConfig `json:"source" yaml:"source"`

	// Pagination
	PageSize        int     `json:"page_size" yaml:"page_size"`
	PrefetchScreens float64 `json:"prefetch_screens" yaml:"prefetch_screens"`
	MaxLines        int     `json:"max_lines" yaml:"max_lines"` // 0 shows every body expanded

	// DataDir holds logs, the event log and the default store
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	LogLevel string `json:"log_level" yaml:"log_level"`

	Images ImagesConfig `json:"images" yaml:"images"`
	UI     UIConfig     `json:"ui" yaml:"ui"`
}

// SourceConfig selects and configures the page source
type SourceConfig struct {
	Kind string `json:"kind" yaml:"kind"` // "file", "http" or "store"

	// file
	Fixture   string `json:"fixture,omitempty" yaml:"fixture,omitempty"`
	LatencyMs int    `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"` // artificial delay per page

	// http
	URL        string  `json:"url,omitempty" yaml:"url,omitempty"`
	TimeoutMs  int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	RatePerSec float64 `json:"rate_per_sec,omitempty" yaml:"rate_per_sec,omitempty"`
	RateBurst  int     `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
	UserAgent  string  `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`

	// store
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// ImagesConfig holds avatar and photo loading settings
type ImagesConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	CacheSize   int     `json:"cache_size" yaml:"cache_size"` // decoded images kept in memory
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	RatePerSec  float64 `json:"rate_per_sec" yaml:"rate_per_sec"`
	TimeoutMs   int     `json:"timeout_ms" yaml:"timeout_ms"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Mouse        bool `json:"mouse" yaml:"mouse"`
	AltScreen    bool `json:"alt_screen" yaml:"alt_screen"`
	SmoothScroll bool `json:"smooth_scroll" yaml:"smooth_scroll"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:       SourceFile,
			Fixture:    "testdata/reviews.json",
			LatencyMs:  300,
			TimeoutMs:  10000,
			RatePerSec: 5,
			RateBurst:  1,
			UserAgent:  "reviews/0.1",
		},
		PageSize:        20,
		PrefetchScreens: 2.5,
		MaxLines:        3,
		DataDir:         DefaultDataDir(),
		LogLevel:        "info",
		Images: ImagesConfig{
			Enabled:     true,
			CacheSize:   256,
			Concurrency: 4,
			RatePerSec:  10,
			TimeoutMs:   8000,
		},
		UI: UIConfig{
			Mouse:        true,
			AltScreen:    true,
			SmoothScroll: true,
		},
	}
}

// DefaultDataDir returns ~/.reviews, or .reviews when there is no home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reviews"
	}
	return filepath.Join(home, ".reviews")
}

// ConfigPath returns the default path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Load reads config from path, or returns defaults when the file does not
// exist. The format follows the extension: .json, or YAML otherwise.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.E(errors.Op("config.Load"), errors.KindIO, fmt.Sprintf("read %s", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.E(errors.Op("config.Load"), errors.KindConfig, fmt.Sprintf("parse %s", path), err)
	}
	return cfg, nil
}

// Save writes config to path in the format its extension names
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from REVIEWS_* environment variables. A value
// that does not parse is a config error.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("REVIEWS_SOURCE", &c.Source.Kind)
	str("REVIEWS_FIXTURE", &c.Source.Fixture)
	str("REVIEWS_URL", &c.Source.URL)
	str("REVIEWS_DB", &c.Source.DBPath)
	str("REVIEWS_DATA_DIR", &c.DataDir)
	str("REVIEWS_LOG_LEVEL", &c.LogLevel)

	if v := os.Getenv("REVIEWS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("REVIEWS_PAGE_SIZE=%q is not an integer", v))
		}
		c.PageSize = n
	}
	if v := os.Getenv("REVIEWS_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("REVIEWS_LATENCY=%q is not a duration", v))
		}
		c.Source.LatencyMs = int(d / time.Millisecond)
	}
	return nil
}

// Validate rejects values the pager or sources cannot work with
func (c *Config) Validate() error {
	switch {
	case c.PageSize <= 0:
		return errors.ConfigInvalid(fmt.Sprintf("page_size must be positive, got %d", c.PageSize))
	case c.PrefetchScreens <= 0:
		return errors.ConfigInvalid(fmt.Sprintf("prefetch_screens must be positive, got %g", c.PrefetchScreens))
	case c.MaxLines < 0:
		return errors.ConfigInvalid(fmt.Sprintf("max_lines must not be negative, got %d", c.MaxLines))
	case c.Images.Enabled && c.Images.CacheSize <= 0:
		return errors.ConfigInvalid("images.cache_size must be positive")
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Fixture == "" {
			return errors.ConfigInvalid("source.fixture is required for a file source")
		}
	case SourceHTTP:
		if c.Source.URL == "" {
			return errors.ConfigInvalid("source.url is required for an http source")
		}
	case SourceStore:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown source kind %q", c.Source.Kind))
	}
	return nil
}

// DBPath returns the store path, defaulting to <data dir>/reviews.db
func (c *Config) DBPath() string {
	if c.Source.DBPath != "" {
		return c.Source.DBPath
	}
	return filepath.Join(c.DataDir, "reviews.db")
}

// EventLogPath returns the JSONL event log path
func (c *Config) EventLogPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}

// Latency returns the artificial per-page delay for file sources
func (c *Config) Latency() time.Duration {
	return time.Duration(c.Source.LatencyMs) * time.Millisecond
}

// Timeout returns the HTTP page timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Source.TimeoutMs) * time.Millisecond
}

// Timeout returns the per-image download timeout
func (c ImagesConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
