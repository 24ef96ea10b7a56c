// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Waits() WaitsConfig
	Report() ReportConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserRemoteURL(string)

	// Report Setters
	SetReportResultsDir(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	WaitsCfg   WaitsConfig   `mapstructure:"waits" yaml:"waits"`
	ReportCfg  ReportConfig  `mapstructure:"report" yaml:"report"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Waits() WaitsConfig     { return c.WaitsCfg }
func (c *Config) Report() ReportConfig   { return c.ReportCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)      { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserRemoteURL(u string)   { c.BrowserCfg.RemoteURL = u }
func (c *Config) SetReportResultsDir(dir string) { c.ReportCfg.ResultsDir = dir }

// LoggerConfig defines the configuration for the logger.
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

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the browser sessions handed to page objects.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// RemoteURL points at a running browser's DevTools endpoint. When empty a
	// local Chrome is started.
	RemoteURL         string         `mapstructure:"remote_url" yaml:"remote_url"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// ViewportConfig is the window size applied when a session is created.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// WaitsConfig tunes implicit and explicit waiting.
type WaitsConfig struct {
	// Implicit is the session-wide lookup polling duration.
	Implicit time.Duration `mapstructure:"implicit" yaml:"implicit"`
	// Short bounds text assertions.
	Short time.Duration `mapstructure:"short" yaml:"short"`
	// Element bounds clickability and visibility waits.
	Element        time.Duration `mapstructure:"element" yaml:"element"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	KeysRetryDelay time.Duration `mapstructure:"keys_retry_delay" yaml:"keys_retry_delay"`
	KeysRetries    int           `mapstructure:"keys_retries" yaml:"keys_retries"`
}

// ReportConfig controls where step results and captures are written.
type ReportConfig struct {
	ResultsDir  string `mapstructure:"results_dir" yaml:"results_dir"`
	Screenshots bool   `mapstructure:"screenshots" yaml:"screenshots"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "testlab")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.args", []string{
		"--disable-extensions",
		"--disable-notifications",
		"--disable-infobars",
		"--no-sandbox",
	})
	v.SetDefault("browser.viewport.width", 1920)
	v.SetDefault("browser.viewport.height", 1080)
	v.SetDefault("browser.navigation_timeout", "90s")

	// -- Waits --
	v.SetDefault("waits.implicit", "100ms")
	v.SetDefault("waits.short", "2s")
	v.SetDefault("waits.element", "3s")
	v.SetDefault("waits.poll_interval", "100ms")
	v.SetDefault("waits.keys_retry_delay", "200ms")
	v.SetDefault("waits.keys_retries", 10)

	// -- Report --
	v.SetDefault("report.results_dir", "")
	v.SetDefault("report.screenshots", true)
}

// NewDefaultConfig builds a Config from defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are static; failing here is a programming error.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
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
	if c.BrowserCfg.Viewport.Width <= 0 || c.BrowserCfg.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport width and height must be positive integers")
	}
	if err := c.WaitsCfg.Validate(); err != nil {
		return fmt.Errorf("waits configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the wait settings.
func (w *WaitsConfig) Validate() error {
	if w.Implicit < 0 || w.Short < 0 || w.Element < 0 {
		return fmt.Errorf("implicit, short and element waits must not be negative")
	}
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if w.KeysRetries < 0 {
		return fmt.Errorf("keys_retries must not be negative")
	}
	if w.KeysRetryDelay < 0 {
		return fmt.Errorf("keys_retry_delay must not be negative")
	}
	return nil
}
