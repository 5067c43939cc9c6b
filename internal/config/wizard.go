package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/repolens/internal/github"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to repolens! Let's configure the tool server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. GitHub endpoint.
	apiPrompt := promptui.Prompt{
		Label:    "GitHub API URL",
		Default:  cfg.GitHub.APIURL,
		Validate: func(s string) error { return validURL("github.api_url", s) },
	}
	apiURL, err := apiPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("github api url: %w", err)
	}
	cfg.GitHub.APIURL = strings.TrimSpace(apiURL)

	// 2. Token variable.
	tokenPrompt := promptui.Prompt{
		Label:   "Environment variable holding the GitHub token",
		Default: cfg.GitHub.TokenEnv,
	}
	tokenEnv, err := tokenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("token variable: %w", err)
	}
	cfg.GitHub.TokenEnv = strings.TrimSpace(tokenEnv)

	// 3. Timeouts.
	presetPrompt := promptui.Select{
		Label: "Select timeout preset",
		Items: []string{
			"interactive: 20s per query, 30s per call",
			"default: 60s per query, 60s per call",
			"batch: 60s per query, 3m per call",
		},
		CursorPos: 1,
	}
	presetIdx, _, err := presetPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("timeout selection: %w", err)
	}
	cfg.QueryTimeout, cfg.ToolTimeout = timeoutPreset(presetIdx)

	// 4. Batch size.
	maxPrompt := promptui.Prompt{
		Label:    "Maximum queries per call (0 for no limit)",
		Default:  strconv.Itoa(cfg.MaxQueries),
		Validate: validNonNegative,
	}
	maxStr, err := maxPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max queries: %w", err)
	}
	cfg.MaxQueries, _ = strconv.Atoi(strings.TrimSpace(maxStr))

	// 5. History.
	auditPrompt := promptui.Select{
		Label: "Record tool call history",
		Items: []string{"yes", "no"},
	}
	auditIdx, _, err := auditPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("history selection: %w", err)
	}
	cfg.Audit.Enabled = auditIdx == 0

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if github.ResolveToken(cfg.GitHub.TokenEnv) == "" {
		fmt.Printf("\nNote: Set %s in your environment to raise GitHub rate limits.\n", cfg.GitHub.TokenEnv)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// timeoutPreset returns the query and tool timeouts of a preset index.
func timeoutPreset(i int) (query, tool time.Duration) {
	switch i {
	case 0:
		return 20 * time.Second, 30 * time.Second
	case 2:
		return DefaultTimeout, 3 * time.Minute
	default:
		return DefaultTimeout, DefaultTimeout
	}
}

func validNonNegative(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must be non-negative")
	}
	return nil
}
