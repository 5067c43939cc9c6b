package config

import "time"

// Config is the top-level repolens configuration, corresponding to .repolens.yml.
type Config struct {
	GitHub   GitHubConfig   `yaml:"github" koanf:"github"`
	Packages PackagesConfig `yaml:"packages" koanf:"packages"`

	// QueryTimeout bounds each query inside a batch.
	QueryTimeout time.Duration `yaml:"query_timeout" koanf:"query_timeout"`
	// ToolTimeout bounds a whole tool call.
	ToolTimeout    time.Duration `yaml:"tool_timeout" koanf:"tool_timeout"`
	MaxQueries     int           `yaml:"max_queries" koanf:"max_queries"`
	MaxConcurrency int           `yaml:"max_concurrency" koanf:"max_concurrency"`

	LogLevel string `yaml:"log_level" koanf:"log_level"`
	DataDir  string `yaml:"data_dir" koanf:"data_dir"`

	Cache CacheConfig `yaml:"cache" koanf:"cache"`
	HTTP  HTTPConfig  `yaml:"http" koanf:"http"`
	Audit AuditConfig `yaml:"audit" koanf:"audit"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	APIURL string `yaml:"api_url" koanf:"api_url"`
	// TokenEnv names the environment variable holding the access token.
	TokenEnv          string  `yaml:"token_env" koanf:"token_env"`
	UserAgent         string  `yaml:"user_agent" koanf:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second" koanf:"requests_per_second"`
}

// PackagesConfig holds package registry endpoints.
type PackagesConfig struct {
	NPMURL  string `yaml:"npm_url" koanf:"npm_url"`
	PyPIURL string `yaml:"pypi_url" koanf:"pypi_url"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" koanf:"enabled"`
	TTL     time.Duration `yaml:"ttl" koanf:"ttl"`
}

// HTTPConfig holds settings for the HTTP transport.
type HTTPConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// AuditConfig controls the tool invocation history.
type AuditConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
	// Retention is how long records are kept. Zero keeps them forever.
	Retention time.Duration `yaml:"retention" koanf:"retention"`
}
