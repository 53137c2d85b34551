package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that decodes from TOML duration strings
// such as "5s" or "1h30m".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Catalog     CatalogConfig   `toml:"catalog"`
	Output      OutputConfig    `toml:"output"`
	Browser     BrowserConfig   `toml:"browser"`
	Fetcher     FetcherConfig   `toml:"fetcher"`
	Storage     StorageConfig   `toml:"storage"`
	Cache       CacheConfig     `toml:"cache"`
	History     HistoryConfig   `toml:"history"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// CatalogConfig describes the recipe catalog being crawled
type CatalogConfig struct {
	URL              string   `toml:"url" validate:"required,url"`          // Catalog landing page
	RecipeLinkPrefix string   `toml:"recipe_link_prefix" validate:"required"` // Detail links must start with this prefix
	FilterNavPath    []string `toml:"filter_nav_path"`                      // Link texts clicked once to open the cuisine filter panel
	LoadMoreText     string   `toml:"load_more_text"`                       // Visible text of the pagination control
}

type OutputConfig struct {
	Dir string `toml:"dir" validate:"required"` // Directory receiving the CSV streams
}

// BrowserConfig controls the chromedp session driving the catalog UI
type BrowserConfig struct {
	Headless            bool     `toml:"headless"`
	NoSandbox           bool     `toml:"no_sandbox"`
	UserAgent           string   `toml:"user_agent"`
	WaitTimeout         Duration `toml:"wait_timeout"`           // Bound on every interactive wait
	SettleDelay         Duration `toml:"settle_delay"`           // Pause after clicks so the page can render
	MaxTransientRetries int      `toml:"max_transient_retries" validate:"min=1"` // Ceiling on consecutive transient driver failures
}

// FetcherConfig controls plain HTTP document fetching
type FetcherConfig struct {
	RequestTimeout Duration `toml:"request_timeout"`
	RequestDelay   Duration `toml:"request_delay"` // Minimum spacing between fetches
	UserAgent      string   `toml:"user_agent"`
}

type StorageConfig struct {
	Path string `toml:"path"` // Badger database directory (page cache + run history)
}

type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	TTL     Duration `toml:"ttl"` // Cached documents expire after this
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// SchedulerConfig enables repeated crawls on a cron schedule
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Standard cron expression
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig returns a config with working defaults for every knob
// except the required catalog URL and output directory.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Catalog: CatalogConfig{
			URL:              "https://www.diabetesfoodhub.org/all-recipes.html",
			RecipeLinkPrefix: "https://www.diabetesfoodhub.org/recipes/",
			FilterNavPath:    []string{"My Likes", "Cuisines"},
			LoadMoreText:     "Load more",
		},
		Output: OutputConfig{
			Dir: "./data",
		},
		Browser: BrowserConfig{
			Headless:            true,
			NoSandbox:           false,
			WaitTimeout:         Duration(10 * time.Second),
			SettleDelay:         Duration(3 * time.Second),
			MaxTransientRetries: 20,
		},
		Fetcher: FetcherConfig{
			RequestTimeout: Duration(30 * time.Second),
			RequestDelay:   Duration(time.Second),
			UserAgent:      "coquo/1.0",
		},
		Storage: StorageConfig{
			Path: "./data/coquo.db",
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     Duration(24 * time.Hour),
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: "0 3 * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration from a single TOML file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration by merging defaults, the given TOML files
// in order (later files override earlier ones), and environment overrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies COQUO_* environment variables on top of file config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COQUO_CATALOG_URL"); v != "" {
		config.Catalog.URL = v
	}
	if v := os.Getenv("COQUO_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("COQUO_STORAGE_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("COQUO_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("COQUO_HEADLESS"); v != "" {
		if headless, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = headless
		}
	}
	if v := os.Getenv("COQUO_WAIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Browser.WaitTimeout = Duration(d)
		}
	}
	if v := os.Getenv("COQUO_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Browser.SettleDelay = Duration(d)
		}
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, catalogURL, outputDir string) {
	if catalogURL != "" {
		config.Catalog.URL = catalogURL
	}
	if outputDir != "" {
		config.Output.Dir = outputDir
	}
}

// Validate checks the configuration for required fields and sane bounds
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("invalid configuration: browser wait_timeout must be positive")
	}
	return nil
}

// IsProduction returns true when environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
