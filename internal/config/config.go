package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Session() SessionConfig
	Extraction() ExtractionConfig
	Interaction() InteractionConfig
	Credentials() CredentialsConfig
	Output() OutputConfig
	Database() DatabaseConfig

	// Setters used by command line flags.
	SetBrowserHeadless(bool)
	SetOutputFormat(string)
	SetOutputPath(string)
	SetSessionCookieFile(string)
	SetSessionLocalStorageFile(string)
	SetExtractionExhaustiveImages(bool)
	SetInteractionRatePerMinute(float64)
	SetDatabaseURL(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	SessionCfg     SessionConfig     `mapstructure:"session" yaml:"session"`
	ExtractionCfg  ExtractionConfig  `mapstructure:"extraction" yaml:"extraction"`
	InteractionCfg InteractionConfig `mapstructure:"interaction" yaml:"interaction"`
	CredentialsCfg CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	OutputCfg      OutputConfig      `mapstructure:"output" yaml:"output"`
	DatabaseCfg    DatabaseConfig    `mapstructure:"database" yaml:"database"`
}

var _ Interface = (*Config)(nil)

// --- Getters ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Session() SessionConfig         { return c.SessionCfg }
func (c *Config) Extraction() ExtractionConfig   { return c.ExtractionCfg }
func (c *Config) Interaction() InteractionConfig { return c.InteractionCfg }
func (c *Config) Credentials() CredentialsConfig { return c.CredentialsCfg }
func (c *Config) Output() OutputConfig           { return c.OutputCfg }
func (c *Config) Database() DatabaseConfig       { return c.DatabaseCfg }

// --- Setters ---

func (c *Config) SetBrowserHeadless(b bool)             { c.BrowserCfg.Headless = b }
func (c *Config) SetOutputFormat(f string)              { c.OutputCfg.Format = f }
func (c *Config) SetOutputPath(p string)                { c.OutputCfg.Path = p }
func (c *Config) SetSessionCookieFile(p string)         { c.SessionCfg.CookieFile = p }
func (c *Config) SetSessionLocalStorageFile(p string)   { c.SessionCfg.LocalStorageFile = p }
func (c *Config) SetExtractionExhaustiveImages(b bool)  { c.ExtractionCfg.ExhaustiveImages = b }
func (c *Config) SetInteractionRatePerMinute(r float64) { c.InteractionCfg.RatePerMinute = r }
func (c *Config) SetDatabaseURL(u string)               { c.DatabaseCfg.URL = u }

// LoggerConfig defines the logging settings.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the Chrome instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
}

// SessionConfig describes how a session is bootstrapped.
type SessionConfig struct {
	HomeURL          string        `mapstructure:"home_url" yaml:"home_url"`
	LandingURL       string        `mapstructure:"landing_url" yaml:"landing_url"`
	CookieFile       string        `mapstructure:"cookie_file" yaml:"cookie_file"`
	LocalStorageFile string        `mapstructure:"local_storage_file" yaml:"local_storage_file"`
	NavigateSettle   time.Duration `mapstructure:"navigate_settle" yaml:"navigate_settle"`
	ReloadSettle     time.Duration `mapstructure:"reload_settle" yaml:"reload_settle"`
}

// ExtractionConfig tunes scope resolution and field extraction.
type ExtractionConfig struct {
	OpenProfile      bool          `mapstructure:"open_profile" yaml:"open_profile"`
	ReadyTimeout     time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout"`
	ExpandRuns       int           `mapstructure:"expand_runs" yaml:"expand_runs"`
	ExhaustiveImages bool          `mapstructure:"exhaustive_images" yaml:"exhaustive_images"`
	ImageHostMarkers []string      `mapstructure:"image_host_markers" yaml:"image_host_markers"`
	TabSettle        time.Duration `mapstructure:"tab_settle" yaml:"tab_settle"`
}

// InteractionConfig tunes the swipe controller and pacing.
type InteractionConfig struct {
	ClickTimeout  time.Duration `mapstructure:"click_timeout" yaml:"click_timeout"`
	Settle        time.Duration `mapstructure:"settle" yaml:"settle"`
	RatePerMinute float64       `mapstructure:"rate_per_minute" yaml:"rate_per_minute"`
	Burst         int           `mapstructure:"burst" yaml:"burst"`
}

// CredentialsConfig controls where credentials are collected from.
type CredentialsConfig struct {
	// Browser is "auto" (Firefox, then every browser store) or "firefox".
	Browser             string   `mapstructure:"browser" yaml:"browser"`
	FirefoxProfileGlobs []string `mapstructure:"firefox_profile_globs" yaml:"firefox_profile_globs"`
	Domains             []string `mapstructure:"domains" yaml:"domains"`
	Origins             []string `mapstructure:"origins" yaml:"origins"`
	// IndexedDBFile receives the Firefox IndexedDB token dump. Empty skips the scan.
	IndexedDBFile string `mapstructure:"indexeddb_file" yaml:"indexeddb_file"`
}

// OutputConfig selects the output format and destination.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// DatabaseConfig holds the database connection details. Persistence is disabled
// while URL is empty.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tinderscope")
	v.SetDefault("logger.log_file", "tinderscope.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.debug", false)

	// -- Session --
	v.SetDefault("session.home_url", "https://www.tinder.com/app/recs")
	v.SetDefault("session.landing_url", "https://www.tinder.com/?lang=en")
	v.SetDefault("session.cookie_file", "tinder_cookies.json")
	v.SetDefault("session.local_storage_file", "tinder_local_storage.json")
	v.SetDefault("session.navigate_settle", "3s")
	v.SetDefault("session.reload_settle", "5s")

	// -- Extraction --
	v.SetDefault("extraction.open_profile", true)
	v.SetDefault("extraction.ready_timeout", "12s")
	v.SetDefault("extraction.expand_runs", 3)
	v.SetDefault("extraction.exhaustive_images", false)
	v.SetDefault("extraction.image_host_markers", []string{"gotinder.com/u/"})
	v.SetDefault("extraction.tab_settle", "200ms")

	// -- Interaction --
	v.SetDefault("interaction.click_timeout", "2s")
	v.SetDefault("interaction.settle", "1s")
	v.SetDefault("interaction.rate_per_minute", 10.0)
	v.SetDefault("interaction.burst", 1)

	// -- Credentials --
	v.SetDefault("credentials.browser", "auto")
	v.SetDefault("credentials.domains", []string{"tinder.com", "gotinder.com"})
	v.SetDefault("credentials.origins", []string{"https://tinder.com", "https://gotinder.com"})
	v.SetDefault("credentials.indexeddb_file", "")

	// -- Output --
	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "")

	// -- Database --
	v.SetDefault("database.url", "")
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password; keep it out of config files.
	_ = v.BindEnv("database.url", "TINDERSCOPE_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := validateURL("session.home_url", c.SessionCfg.HomeURL); err != nil {
		return err
	}
	if err := validateURL("session.landing_url", c.SessionCfg.LandingURL); err != nil {
		return err
	}
	if c.BrowserCfg.WindowWidth <= 0 || c.BrowserCfg.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive integers")
	}
	if c.ExtractionCfg.ReadyTimeout <= 0 {
		return fmt.Errorf("extraction.ready_timeout must be positive")
	}
	if c.ExtractionCfg.ExpandRuns < 1 || c.ExtractionCfg.ExpandRuns > 10 {
		return fmt.Errorf("extraction.expand_runs must be between 1 and 10")
	}
	if c.InteractionCfg.ClickTimeout <= 0 {
		return fmt.Errorf("interaction.click_timeout must be positive")
	}
	if c.InteractionCfg.RatePerMinute < 0 {
		return fmt.Errorf("interaction.rate_per_minute must not be negative")
	}
	if c.InteractionCfg.Burst < 1 {
		return fmt.Errorf("interaction.burst must be at least 1")
	}
	switch c.CredentialsCfg.Browser {
	case "auto", "firefox":
	default:
		return fmt.Errorf("credentials.browser must be auto or firefox, got %q", c.CredentialsCfg.Browser)
	}
	switch c.OutputCfg.Format {
	case "json", "csv", "table":
	default:
		return fmt.Errorf("output.format must be json, csv or table, got %q", c.OutputCfg.Format)
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
