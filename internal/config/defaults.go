package config

import (
	"time"

	"github.com/ziadkadry99/repolens/internal/github"
	"github.com/ziadkadry99/repolens/internal/pkgsearch"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".repolens.yml"

// Default values.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultMaxQueries     = 10
	DefaultMaxConcurrency = 0
	DefaultTokenEnv       = "GITHUB_TOKEN"
	DefaultDataDir        = ".repolens"
	DefaultCacheTTL       = 10 * time.Minute
	DefaultPort           = 8090
	DefaultRetention      = 30 * 24 * time.Hour
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:            github.DefaultBaseURL,
			TokenEnv:          DefaultTokenEnv,
			UserAgent:         github.DefaultUserAgent,
			RequestsPerSecond: 10,
		},
		Packages: PackagesConfig{
			NPMURL:  pkgsearch.DefaultNPMURL,
			PyPIURL: pkgsearch.DefaultPyPIURL,
		},
		QueryTimeout:   DefaultTimeout,
		ToolTimeout:    DefaultTimeout,
		MaxQueries:     DefaultMaxQueries,
		MaxConcurrency: DefaultMaxConcurrency,
		LogLevel:       "info",
		DataDir:        DefaultDataDir,
		Cache: CacheConfig{
			Enabled: true,
			TTL:     DefaultCacheTTL,
		},
		HTTP: HTTPConfig{
			Port: DefaultPort,
		},
		Audit: AuditConfig{
			Enabled:   true,
			Retention: DefaultRetention,
		},
	}
}
