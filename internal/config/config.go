// Package config handles loading and validation of brickgate.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/brickgate/pkg/types"
)

// FileName is the project configuration file brickgate looks for.
const FileName = "brickgate.yaml"

// Load reads and parses brickgate.yaml from the given directory.
func Load(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *types.ProjectConfig) error {
	if cfg.Workspace.URL == "" {
		return fmt.Errorf("workspace.url is required")
	}
	if cfg.Workspace.Token == "" {
		return fmt.Errorf("workspace.token is required")
	}

	if err := cfg.Run.Cluster.Validate(); err != nil {
		return err
	}
	if err := cfg.Run.Task.Validate(); err != nil {
		return err
	}

	// Zero means "use the default"; negatives are configuration mistakes.
	if cfg.Waiter.PollIntervalSec < 0 {
		return fmt.Errorf("waiter.pollIntervalSec must be positive, got %v", cfg.Waiter.PollIntervalSec)
	}
	if cfg.Waiter.MaxWaitTimeSec < 0 {
		return fmt.Errorf("waiter.maxWaitTimeSec must be positive, got %v", cfg.Waiter.MaxWaitTimeSec)
	}

	if cfg.PollRetry != nil && cfg.PollRetry.MaxAttempts <= 0 {
		return fmt.Errorf("pollRetry.maxAttempts must be positive, got %d", cfg.PollRetry.MaxAttempts)
	}

	return nil
}
