// Package config provides configuration management for the leappatch CLI.
//
// Settings are layered with koanf: built-in defaults, then leappatch.yaml,
// then LEAPPATCH_* environment variables, then explicitly set flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leappatch/internal/history"
	"github.com/leapstack-labs/leappatch/internal/plan"
	"github.com/leapstack-labs/leappatch/internal/watch"
)

// Config holds all CLI configuration options.
type Config struct {
	PlanPath     string      `koanf:"plan"`
	Target       string      `koanf:"target"`
	Encoding     string      `koanf:"encoding"`
	Atomic       bool        `koanf:"atomic"`
	Strict       bool        `koanf:"strict"`
	HistoryPath  string      `koanf:"history_path"`
	NoHistory    bool        `koanf:"no_history"`
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	Watch        WatchConfig `koanf:"watch"`

	// ProjectRoot is the directory relative paths resolve against: the
	// directory of leappatch.yaml, or the working directory.
	ProjectRoot string `koanf:"-"`
}

// WatchConfig holds settings for `leappatch watch`.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Config file names, in lookup order.
const (
	ConfigFileName    = "leappatch.yaml"
	ConfigFileNameAlt = "leappatch.yml"
)

// Default configuration values.
const (
	DefaultPlan     = plan.FileName
	DefaultHistory  = history.DefaultPath
	DefaultOutput   = "auto" // TTY=text, otherwise markdown
	DefaultDebounce = watch.DefaultDebounce
)
