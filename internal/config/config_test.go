package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AUTOMODELER_BASE_URL",
		"AUTOMODELER_TIMEOUT",
		"AUTOMODELER_STORE",
		"AUTOMODELER_STORE_PATH",
		"AUTOMODELER_LOG_FILE",
		"AUTOMODELER_LOG_LEVEL",
		"AUTOMODELER_PREVIEW_ROWS",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "http://localhost:5000" {
		t.Errorf("expected default base url, got %s", cfg.BaseURL)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("expected default timeout of 60s, got %s", cfg.Timeout)
	}
	if cfg.Store.Backend != StoreFile {
		t.Errorf("expected file store by default, got %s", cfg.Store.Backend)
	}
	if cfg.Results.PreviewRows != 20 {
		t.Errorf("expected 20 preview rows, got %d", cfg.Results.PreviewRows)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFrom_WalksUp(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".automodeler.yaml"), `
base_url: http://models.internal:8080
timeout: 90s
store:
  backend: sqlite
  path: /var/lib/automodeler/state.db
log:
  file: /tmp/automodeler.log
  level: debug
results:
  preview_rows: 5
plot:
  width: 800
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(nested, "")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Path != filepath.Join(root, ".automodeler.yaml") {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.BaseURL != "http://models.internal:8080" || cfg.Timeout != 90*time.Second {
		t.Errorf("base_url/timeout = %s, %s", cfg.BaseURL, cfg.Timeout)
	}
	if cfg.Store.Backend != StoreSQLite || cfg.Store.Path != "/var/lib/automodeler/state.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxSizeMB != 10 {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Results.PreviewRows != 5 || cfg.Plot.Width != 800 || cfg.Plot.Height != 480 {
		t.Errorf("results/plot = %+v %+v", cfg.Results, cfg.Plot)
	}
}

func TestLoadFrom_HomeFallback(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".automodeler.yml"), "store:\n  backend: memory\n")

	cfg, err := LoadFrom(t.TempDir(), home)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("backend = %s, want memory", cfg.Store.Backend)
	}
	if cfg.Store.Path != "" {
		t.Errorf("memory store got a path %q", cfg.Store.Path)
	}
}

func TestLoadFrom_DefaultStorePath(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	cfg, err := LoadFrom(t.TempDir(), home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q without a config file", cfg.Path)
	}
	if want := filepath.Join(home, ".automodeler", "state.json"); cfg.Store.Path != want {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, want)
	}

	t.Setenv("AUTOMODELER_STORE", "sqlite")
	cfg, err = LoadFrom(t.TempDir(), home)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(cfg.Store.Path, "state.db") {
		t.Errorf("sqlite Store.Path = %q", cfg.Store.Path)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTOMODELER_BASE_URL", "http://env:5000")
	t.Setenv("AUTOMODELER_TIMEOUT", "5s")
	t.Setenv("AUTOMODELER_LOG_LEVEL", "warn")
	t.Setenv("AUTOMODELER_PREVIEW_ROWS", "7")

	cfg := DefaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "http://env:5000" || cfg.Timeout != 5*time.Second {
		t.Errorf("base_url/timeout = %s, %s", cfg.BaseURL, cfg.Timeout)
	}
	if cfg.Log.Level != "warn" || cfg.Results.PreviewRows != 7 {
		t.Errorf("log level %q, preview rows %d", cfg.Log.Level, cfg.Results.PreviewRows)
	}

	t.Setenv("AUTOMODELER_TIMEOUT", "soon")
	if err := applyEnvOverrides(DefaultConfig()); err == nil {
		t.Error("expected an error for an unparsable timeout")
	}
}

func TestExpandEnvVar(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dollar brace syntax", "${AM_TEST_VAR}", "value"},
		{"dollar syntax", "$AM_TEST_VAR", "value"},
		{"empty input", "", ""},
		{"no env var", "plain-text", "plain-text"},
		{"mixed content", "${AM_TEST_VAR}/state.json", "value/state.json"},
		{"unset var", "${AM_TEST_UNSET}", ""},
	}

	t.Setenv("AM_TEST_VAR", "value")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnvVar(tt.input); got != tt.expected {
				t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadFrom_ExpandsPaths(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("AM_STATE_DIR", "/srv/state")
	writeFile(t, filepath.Join(dir, ".automodeler.yaml"), "store:\n  path: ${AM_STATE_DIR}/wizard.json\n")

	cfg, err := LoadFrom(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "/srv/state/wizard.json" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "base_url: [", "failed to load config file"},
		{"unknown backend", "store:\n  backend: redis\n", "unknown store backend"},
		{"unknown level", "log:\n  level: trace\n", "unknown log level"},
		{"negative rows", "results:\n  preview_rows: -1\n", "preview_rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, ".automodeler.yaml"), tt.content)

			_, err := LoadFrom(dir, "")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFrom() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
