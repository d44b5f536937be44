package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Display formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Header cases understood by DisplayConfig.HeaderCase
const (
	HeaderCaseRaw    = "raw"
	HeaderCaseSnake  = "snake"
	HeaderCaseCamel  = "camel"
	HeaderCaseKebab  = "kebab"
	HeaderCaseScream = "screaming"
)

// EnvPrefix prefixes every environment override derived from a config path.
const EnvPrefix = "EDITRACK_"

// Config represents the complete configuration for editrack
type Config struct {
	N8N       N8NConfig       `yaml:"n8n"`
	Cache     CacheConfig     `yaml:"cache"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Display   DisplayConfig   `yaml:"display"`
	Dev       DevConfig       `yaml:"dev"`
}

// N8NConfig locates the tracking webhook
type N8NConfig struct {
	BaseURL     string `yaml:"base_url"`
	WebhookPath string `yaml:"webhook_path"`
	// TrackingURL, when set, is used verbatim instead of BaseURL+WebhookPath.
	TrackingURL string        `yaml:"tracking_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

// CacheConfig controls response caching keyed by document ID
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
	// Dir enables the on-disk cache shared between invocations.
	Dir string `yaml:"dir"`
}

// NormalizeConfig tunes the payload normalisation engine
type NormalizeConfig struct {
	MaxDepth   int  `yaml:"max_depth"`
	RepairJSON bool `yaml:"repair_json"`
	CellWidth  int  `yaml:"cell_width"`
}

// DisplayConfig controls rendering
type DisplayConfig struct {
	Format     string `yaml:"format"`
	HeaderCase string `yaml:"header_case"`
	ShowRaw    bool   `yaml:"show_raw"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		N8N: N8NConfig{
			BaseURL:     "https://n8ndev.nitco.io",
			WebhookPath: "/webhook/edi-tracking",
			Timeout:     90 * time.Second,
			Retries:     0,
			RetryDelay:  time.Second,
		},
		Cache: CacheConfig{
			TTL: 15 * time.Second,
		},
		Normalize: NormalizeConfig{
			MaxDepth:  64,
			CellWidth: 200,
		},
		Display: DisplayConfig{
			Format:     FormatTable,
			HeaderCase: HeaderCaseRaw,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".editrack.yml", ".editrack.yaml", "editrack.yml", "editrack.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// EnvName derives the environment variable that overrides a config path,
// e.g. "cache.ttl" -> "EDITRACK_CACHE_TTL".
func EnvName(path string) string {
	return EnvPrefix + strcase.ToScreamingSnake(path)
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays environment variables onto cfg. The N8N_* names are the
// ones the tracking webhook deployment already uses.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup("N8N_BASE_URL"); ok && strings.TrimSpace(v) != "" {
		c.N8N.BaseURL = v
	}
	if v, ok := lookup("N8N_WEBHOOK_EDI_TRACKING"); ok && strings.TrimSpace(v) != "" {
		c.N8N.WebhookPath = v
	}
	if v, ok := lookup("N8N_EDI_TRACKING_URL"); ok {
		c.N8N.TrackingURL = strings.TrimSpace(v)
	}
	// Non-numeric timeouts are ignored rather than rejected.
	if v, ok := lookup("N8N_TIMEOUT_S"); ok {
		if secs, ok := digits(v); ok {
			c.N8N.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v, ok := lookup("N8N_RETRIES"); ok {
		if n, ok := digits(v); ok {
			c.N8N.Retries = n
		}
	}

	for _, o := range envOverrides {
		v, ok := lookup(EnvName(o.path))
		if !ok {
			continue
		}
		if err := o.apply(c, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvName(o.path), err)
		}
	}
	return nil
}

type envOverride struct {
	path  string
	apply func(c *Config, v string) error
}

var envOverrides = []envOverride{
	{"cache.ttl", func(c *Config, v string) (err error) { c.Cache.TTL, err = time.ParseDuration(v); return }},
	{"cache.dir", func(c *Config, v string) error { c.Cache.Dir = v; return nil }},
	{"normalize.max_depth", func(c *Config, v string) (err error) { c.Normalize.MaxDepth, err = strconv.Atoi(v); return }},
	{"normalize.repair_json", func(c *Config, v string) (err error) { c.Normalize.RepairJSON, err = strconv.ParseBool(v); return }},
	{"normalize.cell_width", func(c *Config, v string) (err error) { c.Normalize.CellWidth, err = strconv.Atoi(v); return }},
	{"display.format", func(c *Config, v string) error { c.Display.Format = v; return nil }},
	{"display.header_case", func(c *Config, v string) error { c.Display.HeaderCase = v; return nil }},
	{"display.show_raw", func(c *Config, v string) (err error) { c.Display.ShowRaw, err = strconv.ParseBool(v); return }},
	{"dev.debug", func(c *Config, v string) (err error) { c.Dev.Debug, err = strconv.ParseBool(v); return }},
}

func digits(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	switch c.Display.Format {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("unknown display format %q (want %s or %s)", c.Display.Format, FormatTable, FormatJSON)
	}
	switch c.Display.HeaderCase {
	case HeaderCaseRaw, HeaderCaseSnake, HeaderCaseCamel, HeaderCaseKebab, HeaderCaseScream:
	default:
		return fmt.Errorf("unknown header case %q", c.Display.HeaderCase)
	}
	if c.Normalize.MaxDepth <= 0 {
		return fmt.Errorf("normalize.max_depth must be positive, got %d", c.Normalize.MaxDepth)
	}
	if c.Normalize.CellWidth <= 0 {
		return fmt.Errorf("normalize.cell_width must be positive, got %d", c.Normalize.CellWidth)
	}
	if c.N8N.Retries < 0 {
		return fmt.Errorf("n8n.retries must not be negative, got %d", c.N8N.Retries)
	}
	if c.N8N.Timeout < 0 || c.Cache.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// TrackingEndpoint returns the URL the tracking request is posted to
func (c *Config) TrackingEndpoint() string {
	if url := strings.TrimSpace(c.N8N.TrackingURL); url != "" {
		return url
	}
	base := strings.TrimRight(c.N8N.BaseURL, "/")
	return base + "/" + strings.TrimLeft(c.N8N.WebhookPath, "/")
}

// CLIOverrides carries the flags that may override file and environment settings.
// Zero values leave the loaded setting alone.
type CLIOverrides struct {
	Format  string
	Repair  bool
	ShowRaw bool
	Debug   bool
	Timeout time.Duration
}

// LoadConfigWithCLI loads config with CLI argument precedence:
// defaults < config file < environment < flags.
func LoadConfigWithCLI(configPath string, cli CLIOverrides, lookup LookupFunc) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if cli.Format != "" {
		cfg.Display.Format = cli.Format
	}
	if cli.Repair {
		cfg.Normalize.RepairJSON = true
	}
	if cli.ShowRaw {
		cfg.Display.ShowRaw = true
	}
	if cli.Debug {
		cfg.Dev.Debug = true
	}
	if cli.Timeout > 0 {
		cfg.N8N.Timeout = cli.Timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
