package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/reviews/internal/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 2.5, cfg.PrefetchScreens)
	assert.Equal(t, 3, cfg.MaxLines)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().PageSize, cfg.PageSize)
}

func TestLoadYAMLKeepsDefaultsForAbsentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_size: 10\nsource:\n  kind: http\n  url: http://localhost:8080/reviews\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, SourceHTTP, cfg.Source.Kind)
	assert.Equal(t, "http://localhost:8080/reviews", cfg.Source.URL)
	assert.Equal(t, 2.5, cfg.PrefetchScreens)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	require.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_lines": 0, "source": {"kind": "store", "db_path": "/tmp/r.db"}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxLines)
	assert.Equal(t, "/tmp/r.db", cfg.DBPath())
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"page_size": `), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.yaml", "c.json"} {
		cfg := DefaultConfig()
		cfg.PageSize = 7
		path := filepath.Join(dir, "nested", name)
		require.NoError(t, cfg.Save(path))

		got, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, 7, got.PageSize, name)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("REVIEWS_SOURCE", "http")
	t.Setenv("REVIEWS_URL", "http://example.test/reviews")
	t.Setenv("REVIEWS_PAGE_SIZE", "50")
	t.Setenv("REVIEWS_LATENCY", "1.5s")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, SourceHTTP, cfg.Source.Kind)
	assert.Equal(t, "http://example.test/reviews", cfg.Source.URL)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Latency())
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("REVIEWS_PAGE_SIZE", "many")
	err := DefaultConfig().ApplyEnv()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"negative prefetch", func(c *Config) { c.PrefetchScreens = -1 }},
		{"negative max lines", func(c *Config) { c.MaxLines = -2 }},
		{"zero image cache", func(c *Config) { c.Images.CacheSize = 0 }},
		{"file without fixture", func(c *Config) { c.Source.Fixture = "" }},
		{"http without url", func(c *Config) { c.Source.Kind = SourceHTTP }},
		{"unknown kind", func(c *Config) { c.Source.Kind = "ftp" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.KindConfig))
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	assert.Equal(t, "/data/reviews.db", cfg.DBPath())
	assert.Equal(t, "/data/events.jsonl", cfg.EventLogPath())
	assert.Equal(t, 8*time.Second, cfg.Images.Timeout())
}
