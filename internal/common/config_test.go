package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.False(t, config.IsProduction())
	assert.Equal(t, "https://www.diabetesfoodhub.org/all-recipes.html", config.Catalog.URL)
	assert.Equal(t, []string{"My Likes", "Cuisines"}, config.Catalog.FilterNavPath)
	assert.Equal(t, "Load more", config.Catalog.LoadMoreText)
	assert.Equal(t, 10*time.Second, config.Browser.WaitTimeout.Std())
	assert.Equal(t, 20, config.Browser.MaxTransientRetries)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_Merge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coquo.toml")
	content := `
environment = "production"

[catalog]
url = "https://recipes.example.com/catalog"

[browser]
headless = false
wait_timeout = "5s"
max_transient_retries = 3

[output]
dir = "/tmp/coquo-out"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, "https://recipes.example.com/catalog", config.Catalog.URL)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 5*time.Second, config.Browser.WaitTimeout.Std())
	assert.Equal(t, 3, config.Browser.MaxTransientRetries)
	assert.Equal(t, "/tmp/coquo-out", config.Output.Dir)

	// Untouched sections keep their defaults.
	assert.Equal(t, "Load more", config.Catalog.LoadMoreText)
	assert.Equal(t, time.Second, config.Fetcher.RequestDelay.Std())
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "base.toml")
	second := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(first, []byte("[output]\ndir = \"/base\"\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[output]\ndir = \"/override\"\n"), 0644))

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, "/override", config.Output.Dir)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("COQUO_CATALOG_URL", "https://env.example.com/catalog")
	t.Setenv("COQUO_HEADLESS", "false")
	t.Setenv("COQUO_WAIT_TIMEOUT", "90s")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/catalog", config.Catalog.URL)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 90*time.Second, config.Browser.WaitTimeout.Std())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1h30m")))
	assert.Equal(t, 90*time.Minute, d.Std())

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestLoadFromFiles_DurationFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coquo.toml")
	content := `
[browser]
settle_delay = "250ms"

[fetcher]
request_timeout = "45s"
request_delay = "2s"

[cache]
ttl = "12h"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, config.Browser.SettleDelay.Std())
	assert.Equal(t, 45*time.Second, config.Fetcher.RequestTimeout.Std())
	assert.Equal(t, 2*time.Second, config.Fetcher.RequestDelay.Std())
	assert.Equal(t, 12*time.Hour, config.Cache.TTL.Std())
}

func TestLoadFromFiles_MalformedDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coquo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[browser]\nwait_timeout = \"soon\"\n"), 0644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, "https://flag.example.com/catalog", "/flag-out")

	assert.Equal(t, "https://flag.example.com/catalog", config.Catalog.URL)
	assert.Equal(t, "/flag-out", config.Output.Dir)

	ApplyFlagOverrides(config, "", "")
	assert.Equal(t, "https://flag.example.com/catalog", config.Catalog.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"empty catalog url", func(c *Config) { c.Catalog.URL = "" }, true},
		{"malformed catalog url", func(c *Config) { c.Catalog.URL = "not-a-url" }, true},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }, true},
		{"zero wait timeout", func(c *Config) { c.Browser.WaitTimeout = 0 }, true},
		{"zero retry ceiling", func(c *Config) { c.Browser.MaxTransientRetries = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
