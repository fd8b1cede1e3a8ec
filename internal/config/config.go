// Package config provides configuration loading for the automodeler CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreBackend selects where the CLI keeps wizard state between invocations.
type StoreBackend string

const (
	StoreFile   StoreBackend = "file"
	StoreSQLite StoreBackend = "sqlite"
	StoreMemory StoreBackend = "memory"
)

// Config represents the complete CLI configuration.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Results ResultsConfig `yaml:"results"`
	Plot    PlotConfig    `yaml:"plot"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// StoreConfig configures the wizard state store.
type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
	Path    string       `yaml:"path"`
}

// LogConfig configures the CLI log file. An empty File disables logging.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// ResultsConfig configures the results screen.
type ResultsConfig struct {
	PreviewRows int `yaml:"preview_rows"`
}

// PlotConfig configures rendered plots, in points.
type PlotConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// File names searched for, in order.
var fileNames = []string{
	".automodeler.yaml",
	".automodeler.yml",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:5000",
		Timeout: 60 * time.Second,
		Store: StoreConfig{
			Backend: StoreFile,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Results: ResultsConfig{
			PreviewRows: 20,
		},
		Plot: PlotConfig{
			Width:  640,
			Height: 480,
		},
	}
}

// Load reads configuration from file and environment variables, searching
// from the working directory.
func Load() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = ""
	}
	home, _ := os.UserHomeDir()
	return LoadFrom(dir, home)
}

// LoadFrom reads configuration the way Load does, starting the search at dir
// and falling back to home.
func LoadFrom(dir, home string) (*Config, error) {
	cfg := DefaultConfig()

	if path := findConfigFile(dir, home); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.Path = path
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	expandEnvVars(cfg)

	if cfg.Store.Path == "" && cfg.Store.Backend != StoreMemory {
		cfg.Store.Path = defaultStorePath(home, cfg.Store.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile walks up from dir, then tries home.
func findConfigFile(dir, home string) string {
	for dir != "" {
		if path := configIn(dir); path != "" {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if home != "" {
		return configIn(home)
	}
	return ""
}

func configIn(dir string) string {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// loadFromFile reads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("AUTOMODELER_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("AUTOMODELER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AUTOMODELER_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("AUTOMODELER_STORE"); v != "" {
		cfg.Store.Backend = StoreBackend(v)
	}
	if v := os.Getenv("AUTOMODELER_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("AUTOMODELER_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("AUTOMODELER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("AUTOMODELER_PREVIEW_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Results.PreviewRows = n
		}
	}
	return nil
}

// expandEnvVars expands ${VAR} references in configuration values.
func expandEnvVars(cfg *Config) {
	cfg.BaseURL = expandEnvVar(cfg.BaseURL)
	cfg.Store.Path = expandEnvVar(cfg.Store.Path)
	cfg.Log.File = expandEnvVar(cfg.Log.File)
}

var envRef = regexp.MustCompile(`\$\{?([A-Za-z_][A-Za-z0-9_]*)\}?`)

// expandEnvVar expands ${VAR} and $VAR references. Unset variables expand to
// the empty string.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimPrefix(name, "$")
		name = strings.TrimSuffix(name, "}")
		return os.Getenv(name)
	})
}

func defaultStorePath(home string, backend StoreBackend) string {
	name := "state.json"
	if backend == StoreSQLite {
		name = "state.db"
	}
	if home == "" {
		return name
	}
	return filepath.Join(home, ".automodeler", name)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative")
	}
	switch c.Store.Backend {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q (want file, sqlite or memory)", c.Store.Backend)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Results.PreviewRows < 0 {
		return fmt.Errorf("config: results.preview_rows must not be negative")
	}
	if c.Plot.Width < 0 || c.Plot.Height < 0 {
		return fmt.Errorf("config: plot size must not be negative")
	}
	return nil
}
