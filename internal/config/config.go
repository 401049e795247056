package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName   = "artscrpr"
	envPrefix = "ARTSCRPR"
)

type Config struct {
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Output     OutputConfig     `mapstructure:"output"`
	Network    NetworkConfig    `mapstructure:"network"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Parallel   ParallelConfig   `mapstructure:"parallel"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ExtractionConfig struct {
	MinContentLength  int    `mapstructure:"min_content_length"`
	MinCommentLength  int    `mapstructure:"min_comment_length"`
	CommentMode       string `mapstructure:"comment_mode"`
	BodyStrategy      string `mapstructure:"body_strategy"`
	EnableJavaScript  string `mapstructure:"enable_javascript"`
	WaitForSelector   string `mapstructure:"wait_for_selector"`
	JSTimeout         int    `mapstructure:"js_timeout"`
	SkipCookieBanners bool   `mapstructure:"skip_cookie_banners"`
}

type OutputConfig struct {
	DefaultFormat   string `mapstructure:"default_format"`
	Clipboard       bool   `mapstructure:"clipboard"`
	IncludeMetadata bool   `mapstructure:"include_metadata"`
	Indent          string `mapstructure:"indent"`
	LineWidth       int    `mapstructure:"line_width"`
}

type NetworkConfig struct {
	Timeout         int    `mapstructure:"timeout"`
	UserAgent       string `mapstructure:"user_agent"`
	BrowserAgent    string `mapstructure:"browser_agent"`
	FollowRedirects bool   `mapstructure:"follow_redirects"`
	MaxRedirects    int    `mapstructure:"max_redirects"`
	Delay           int    `mapstructure:"delay"`
}

type BrowserConfig struct {
	Default string               `mapstructure:"default"`
	Paths   map[string]string    `mapstructure:"paths"`
	Cookies BrowserCookiesConfig `mapstructure:"cookies"`
}

// BrowserCookiesConfig limits which hosts receive local browser cookies.
// Patterns are exact hosts, "*.example.com" or "*".
type BrowserCookiesConfig struct {
	Domains []string `mapstructure:"domains"`
	Exclude []string `mapstructure:"exclude"`
}

type ParallelConfig struct {
	MaxConcurrency int  `mapstructure:"max_concurrency"`
	FailFast       bool `mapstructure:"fail_fast"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			MinContentLength:  100,
			MinCommentLength:  0,
			CommentMode:       "hierarchical",
			BodyStrategy:      "first",
			EnableJavaScript:  "never",
			WaitForSelector:   "",
			JSTimeout:         15,
			SkipCookieBanners: true,
		},
		Output: OutputConfig{
			DefaultFormat:   "json",
			Clipboard:       false,
			IncludeMetadata: false,
			Indent:          "  ",
			LineWidth:       80,
		},
		Network: NetworkConfig{
			Timeout:         30,
			UserAgent:       "",
			BrowserAgent:    "auto",
			FollowRedirects: true,
			MaxRedirects:    10,
			Delay:           0,
		},
		Browser: BrowserConfig{
			Default: "none",
			Paths:   map[string]string{},
			Cookies: BrowserCookiesConfig{
				Domains: []string{"*"},
				Exclude: []string{},
			},
		},
		Parallel: ParallelConfig{
			MaxConcurrency: 5,
			FailFast:       false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the configuration directory, honouring XDG_CONFIG_HOME.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error finding home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName), nil
}

// DefaultPath returns the path of the config file used when none is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads configFile, or config.toml from the configuration directory when
// configFile is empty. A missing file is not an error. Environment variables
// such as ARTSCRPR_EXTRACTION_COMMENT_MODE override file values.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		configDir, err := Dir()
		if err != nil {
			return cfg, err
		}
		v.AddConfigPath(configDir)
		v.SetConfigType("toml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("extraction.min_content_length", cfg.Extraction.MinContentLength)
	v.SetDefault("extraction.min_comment_length", cfg.Extraction.MinCommentLength)
	v.SetDefault("extraction.comment_mode", cfg.Extraction.CommentMode)
	v.SetDefault("extraction.body_strategy", cfg.Extraction.BodyStrategy)
	v.SetDefault("extraction.enable_javascript", cfg.Extraction.EnableJavaScript)
	v.SetDefault("extraction.wait_for_selector", cfg.Extraction.WaitForSelector)
	v.SetDefault("extraction.js_timeout", cfg.Extraction.JSTimeout)
	v.SetDefault("extraction.skip_cookie_banners", cfg.Extraction.SkipCookieBanners)

	v.SetDefault("output.default_format", cfg.Output.DefaultFormat)
	v.SetDefault("output.clipboard", cfg.Output.Clipboard)
	v.SetDefault("output.include_metadata", cfg.Output.IncludeMetadata)
	v.SetDefault("output.indent", cfg.Output.Indent)
	v.SetDefault("output.line_width", cfg.Output.LineWidth)

	v.SetDefault("network.timeout", cfg.Network.Timeout)
	v.SetDefault("network.user_agent", cfg.Network.UserAgent)
	v.SetDefault("network.browser_agent", cfg.Network.BrowserAgent)
	v.SetDefault("network.follow_redirects", cfg.Network.FollowRedirects)
	v.SetDefault("network.max_redirects", cfg.Network.MaxRedirects)
	v.SetDefault("network.delay", cfg.Network.Delay)

	v.SetDefault("browser.default", cfg.Browser.Default)
	v.SetDefault("browser.paths", cfg.Browser.Paths)
	v.SetDefault("browser.cookies.domains", cfg.Browser.Cookies.Domains)
	v.SetDefault("browser.cookies.exclude", cfg.Browser.Cookies.Exclude)

	v.SetDefault("parallel.max_concurrency", cfg.Parallel.MaxConcurrency)
	v.SetDefault("parallel.fail_fast", cfg.Parallel.FailFast)

	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate rejects enumerated values the extractor does not understand.
func (c *Config) Validate() error {
	checks := []struct {
		key, value string
		allowed    []string
	}{
		{"extraction.comment_mode", c.Extraction.CommentMode, []string{"hierarchical", "flat"}},
		{"extraction.body_strategy", c.Extraction.BodyStrategy, []string{"first", "best"}},
		{"extraction.enable_javascript", c.Extraction.EnableJavaScript, []string{"auto", "always", "never"}},
		{"output.default_format", c.Output.DefaultFormat, []string{"json", "text", "markdown"}},
		{"logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.allowed, chk.value) {
			return fmt.Errorf("invalid %s %q (expected one of %s)", chk.key, chk.value, strings.Join(chk.allowed, ", "))
		}
	}
	if c.Parallel.MaxConcurrency < 1 {
		return fmt.Errorf("invalid parallel.max_concurrency %d (must be at least 1)", c.Parallel.MaxConcurrency)
	}
	return nil
}

// CreateExampleConfig writes an annotated config file to configPath.
func CreateExampleConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(exampleConfig), 0644)
}

const exampleConfig = `# artscrpr configuration file

[extraction]
min_content_length = 100        # characters a content candidate must exceed
min_comment_length = 0          # characters a comment must exceed to be kept
comment_mode = "hierarchical"   # hierarchical, flat
body_strategy = "first"         # first (first candidate above threshold), best (longest candidate)

# Headless rendering for http(s) sources
enable_javascript = "never"     # auto, always, never
wait_for_selector = ""          # CSS selector to wait for (optional)
js_timeout = 15                 # seconds
skip_cookie_banners = true

[output]
default_format = "json"         # json, text, markdown
clipboard = false               # also copy the output to the clipboard
include_metadata = false        # add meta tag and readability metadata
indent = "  "                   # JSON indentation
line_width = 80                 # wrap width for text output (0 = unlimited)

[network]
timeout = 30                    # seconds
user_agent = ""                 # fixed user agent (empty = rotate browser agents)
browser_agent = "auto"          # auto, random, chrome, firefox, safari, edge
follow_redirects = true
max_redirects = 10
delay = 0                       # seconds between requests

[browser]
default = "none"                # none, auto, chrome, firefox, safari, edge, chromium, zen

[browser.paths]
# chrome = "/usr/bin/chromium"   # browser binary used for JavaScript rendering

[browser.cookies]
domains = ["*"]
exclude = []

[parallel]
max_concurrency = 5
fail_fast = false

[logging]
level = "info"                  # debug, info, warn, error
`
