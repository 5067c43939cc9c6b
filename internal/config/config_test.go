package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.QueryTimeout != 60*time.Second {
		t.Errorf("expected default query_timeout 60s, got %s", cfg.QueryTimeout)
	}
	if cfg.ToolTimeout != 60*time.Second {
		t.Errorf("expected default tool_timeout 60s, got %s", cfg.ToolTimeout)
	}
	if cfg.GitHub.APIURL != "https://api.github.com" {
		t.Errorf("expected default api_url, got %q", cfg.GitHub.APIURL)
	}
	if cfg.MaxConcurrency != 0 {
		t.Errorf("expected default max_concurrency 0, got %d", cfg.MaxConcurrency)
	}
	if !cfg.Cache.Enabled || !cfg.Audit.Enabled {
		t.Error("expected cache and audit enabled by default")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.repolens.yml")

	original := DefaultConfig()
	original.GitHub.APIURL = "https://ghe.example.com/api/v3"
	original.GitHub.RequestsPerSecond = 2.5
	original.QueryTimeout = 15 * time.Second
	original.ToolTimeout = 2 * time.Minute
	original.MaxQueries = 3
	original.Cache.Enabled = false
	original.HTTP.Port = 9000

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.GitHub.APIURL != original.GitHub.APIURL {
		t.Errorf("api_url: got %q, want %q", loaded.GitHub.APIURL, original.GitHub.APIURL)
	}
	if loaded.GitHub.RequestsPerSecond != original.GitHub.RequestsPerSecond {
		t.Errorf("requests_per_second: got %f, want %f", loaded.GitHub.RequestsPerSecond, original.GitHub.RequestsPerSecond)
	}
	if loaded.QueryTimeout != original.QueryTimeout {
		t.Errorf("query_timeout: got %s, want %s", loaded.QueryTimeout, original.QueryTimeout)
	}
	if loaded.ToolTimeout != original.ToolTimeout {
		t.Errorf("tool_timeout: got %s, want %s", loaded.ToolTimeout, original.ToolTimeout)
	}
	if loaded.MaxQueries != 3 {
		t.Errorf("max_queries: got %d, want 3", loaded.MaxQueries)
	}
	if loaded.Cache.Enabled {
		t.Error("cache.enabled: got true, want false")
	}
	if loaded.HTTP.Port != 9000 {
		t.Errorf("http.port: got %d, want 9000", loaded.HTTP.Port)
	}
}

func TestLoadPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yml")
	if err := os.WriteFile(path, []byte("tool_timeout: 90s\ngithub:\n  user_agent: repolens-test\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ToolTimeout != 90*time.Second {
		t.Errorf("tool_timeout: got %s, want 90s", cfg.ToolTimeout)
	}
	if cfg.GitHub.UserAgent != "repolens-test" {
		t.Errorf("user_agent: got %q, want repolens-test", cfg.GitHub.UserAgent)
	}
	// Unset keys keep their defaults.
	if cfg.QueryTimeout != DefaultTimeout {
		t.Errorf("query_timeout: got %s, want default", cfg.QueryTimeout)
	}
	if cfg.GitHub.APIURL != "https://api.github.com" {
		t.Errorf("api_url: got %q, want default", cfg.GitHub.APIURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.MaxQueries != DefaultMaxQueries {
		t.Errorf("expected default max_queries, got %d", cfg.MaxQueries)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("REPOLENS_LOG_LEVEL", "debug")
	t.Setenv("REPOLENS_GITHUB__API_URL", "https://ghe.internal/api/v3")
	t.Setenv("REPOLENS_TOOL_TIMEOUT", "5s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("log_level override failed: got %q", loaded.LogLevel)
	}
	if loaded.GitHub.APIURL != "https://ghe.internal/api/v3" {
		t.Errorf("nested override failed: got %q", loaded.GitHub.APIURL)
	}
	if loaded.ToolTimeout != 5*time.Second {
		t.Errorf("duration override failed: got %s", loaded.ToolTimeout)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"REPOLENS_LOG_LEVEL":               "log_level",
		"REPOLENS_GITHUB__TOKEN_ENV":       "github.token_env",
		"REPOLENS_HTTP__ALLOW_ALL_ORIGINS": "http.allow_all_origins",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
	if w := cfg.Warnings(); len(w) != 0 {
		t.Errorf("DefaultConfig should have no warnings, got %v", w)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty api url", func(c *Config) { c.GitHub.APIURL = "" }, "github.api_url is required"},
		{"bad api url", func(c *Config) { c.GitHub.APIURL = "ftp://x" }, "invalid github.api_url"},
		{"bad npm url", func(c *Config) { c.Packages.NPMURL = "registry" }, "invalid packages.npm_url"},
		{"negative rps", func(c *Config) { c.GitHub.RequestsPerSecond = -1 }, "requests_per_second"},
		{"zero query timeout", func(c *Config) { c.QueryTimeout = 0 }, "query_timeout must be positive"},
		{"zero tool timeout", func(c *Config) { c.ToolTimeout = 0 }, "tool_timeout must be positive"},
		{"negative max queries", func(c *Config) { c.MaxQueries = -1 }, "max_queries"},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, "max_concurrency"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log_level"},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, "data_dir is required"},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 }, "out of range"},
		{"negative retention", func(c *Config) { c.Audit.Retention = -time.Hour }, "audit.retention"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidateDisabledCacheIgnoresTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.TTL = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled cache should not need a ttl, got: %v", err)
	}
}

func TestWarnings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueryTimeout = 2 * time.Minute
	cfg.MaxQueries = 0

	w := cfg.Warnings()
	if len(w) != 2 {
		t.Fatalf("expected 2 warnings, got %v", w)
	}
	if !strings.Contains(w[0], "exceeds tool_timeout") {
		t.Errorf("unexpected timeout warning %q", w[0])
	}
}

func TestLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "WARN"
	if got := cfg.Level().String(); got != "WARN" {
		t.Errorf("Level() = %s, want WARN", got)
	}
	cfg.LogLevel = "nonsense"
	if got := cfg.Level().String(); got != "INFO" {
		t.Errorf("Level() = %s, want INFO fallback", got)
	}
}

func TestTimeoutPreset(t *testing.T) {
	q, tool := timeoutPreset(0)
	if q >= tool {
		t.Errorf("interactive preset: query %s should be below tool %s", q, tool)
	}
	q, tool = timeoutPreset(1)
	if q != DefaultTimeout || tool != DefaultTimeout {
		t.Errorf("default preset = %s/%s", q, tool)
	}
}

func TestValidNonNegative(t *testing.T) {
	if err := validNonNegative("4"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validNonNegative("-2"); err == nil {
		t.Error("expected error for negative")
	}
	if err := validNonNegative("x"); err == nil {
		t.Error("expected error for non-number")
	}
}
