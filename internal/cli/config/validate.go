package config

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/pkg/patch"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !output.ValidMode(c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (want one of auto, text, markdown, json)", c.OutputFormat)
	}
	if c.Encoding != "" && !patch.ValidEncoding(c.Encoding) {
		return fmt.Errorf("unsupported encoding %q", c.Encoding)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// ValidatePlanExists checks that the plan file is present.
func (c *Config) ValidatePlanExists() error {
	if c.PlanPath == "" {
		return fmt.Errorf("no plan configured\nHint: run 'leappatch init' or pass --plan")
	}
	if _, err := os.Stat(c.PlanPath); err != nil {
		return fmt.Errorf("plan file does not exist: %s\nHint: run 'leappatch init' or pass --plan", c.PlanPath)
	}
	return nil
}
