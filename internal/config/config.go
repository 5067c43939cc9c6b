package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/repolens/internal/db"
)

// EnvPrefix prefixes environment overrides. Nested keys are joined with a
// double underscore: REPOLENS_GITHUB__API_URL sets github.api_url.
const EnvPrefix = "REPOLENS_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (REPOLENS_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps REPOLENS_CACHE__TTL to cache.ttl.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validLogLevels is the set of recognized log_level values.
var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if err := validURL("github.api_url", c.GitHub.APIURL); err != nil {
		return err
	}
	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second must be non-negative")
	}
	if err := validURL("packages.npm_url", c.Packages.NPMURL); err != nil {
		return err
	}
	if err := validURL("packages.pypi_url", c.Packages.PyPIURL); err != nil {
		return err
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool_timeout must be positive")
	}
	if c.MaxQueries < 0 {
		return fmt.Errorf("max_queries must be non-negative")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}

	if _, ok := validLogLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention must be non-negative")
	}

	return nil
}

// Warnings reports settings that are valid but probably not intended.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.QueryTimeout > c.ToolTimeout {
		warnings = append(warnings, fmt.Sprintf(
			"query_timeout (%s) exceeds tool_timeout (%s): a slow query times out the whole call instead of failing alone",
			c.QueryTimeout, c.ToolTimeout))
	}
	if c.MaxQueries == 0 {
		warnings = append(warnings, "max_queries is 0: batch size is unbounded")
	}
	return warnings
}

// Level returns the slog level named by log_level, defaulting to info.
func (c *Config) Level() slog.Level {
	if l, ok := validLogLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelInfo
}

// DatabasePath is the SQLite file holding the cache and invocation history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, db.FileName)
}

func validURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an http(s) URL", field, raw)
	}
	return nil
}
