package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/leappatch/internal/cli/config"
	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/history"
	"github.com/leapstack-labs/leappatch/internal/plan"
	"github.com/leapstack-labs/leappatch/pkg/patch"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	wd, _ := os.Getwd()
	return &config.Config{
		PlanPath:     getEnvOrDefault("LEAPPATCH_PLAN", config.DefaultPlan),
		Target:       os.Getenv("LEAPPATCH_TARGET"),
		Encoding:     os.Getenv("LEAPPATCH_ENCODING"),
		Atomic:       os.Getenv("LEAPPATCH_ATOMIC") != "false",
		Strict:       os.Getenv("LEAPPATCH_STRICT") == "true",
		HistoryPath:  getEnvOrDefault("LEAPPATCH_HISTORY_PATH", config.DefaultHistory),
		NoHistory:    os.Getenv("LEAPPATCH_NO_HISTORY") == "true",
		Verbose:      os.Getenv("LEAPPATCH_VERBOSE") == "true",
		OutputFormat: os.Getenv("LEAPPATCH_OUTPUT"),
		Watch:        config.WatchConfig{Debounce: config.DefaultDebounce},
		ProjectRoot:  wd,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadPlan loads and validates the configured plan.
func loadPlan(cfg *config.Config) (*plan.Plan, error) {
	if err := cfg.ValidatePlanExists(); err != nil {
		return nil, err
	}
	p, err := plan.Load(cfg.PlanPath)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan:\n%w", err)
	}
	return p, nil
}

// buildEngine compiles p into an engine. Strict mode is on when either the
// plan or the configuration asks for it.
func buildEngine(p *plan.Plan, cfg *config.Config, logger *slog.Logger) (*patch.Engine, error) {
	rules, err := p.Rules()
	if err != nil {
		return nil, err
	}
	return patch.NewEngine(rules,
		patch.WithStrict(p.Strict || cfg.Strict),
		patch.WithLogger(logger),
	), nil
}

// runOptions merges plan and configuration settings. The configured
// encoding overrides the plan's.
func runOptions(p *plan.Plan, cfg *config.Config, dryRun bool) patch.RunOptions {
	enc := p.Encoding
	if cfg.Encoding != "" {
		enc = cfg.Encoding
	}
	return patch.RunOptions{
		Encoding: enc,
		Atomic:   cfg.Atomic,
		DryRun:   dryRun,
	}
}

// openHistory opens the history store, or returns nil when history is
// disabled.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*history.Store, error) {
	if cfg.NoHistory {
		return nil, nil
	}
	path := cfg.HistoryPath
	if path == "" {
		path = filepath.Join(cfg.ProjectRoot, config.DefaultHistory)
	}
	return history.Open(ctx, path, logger)
}

// runResult is one pass of the pipeline as seen by a command.
type runResult struct {
	Plan   *plan.Plan
	Report *patch.Report
	RunID  string
	// Err is the engine error; the report is still populated.
	Err error
}

// runPlan loads the plan, runs it against the target and records the run.
// A non-nil error means the plan could not be loaded; engine failures are
// returned in runResult.Err.
func runPlan(ctx context.Context, cc *CommandContext, dryRun bool) (*runResult, error) {
	p, err := loadPlan(cc.Cfg)
	if err != nil {
		return nil, err
	}
	eng, err := buildEngine(p, cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}

	target := p.TargetPath(cc.Cfg.Target)
	if target == "" {
		return nil, fmt.Errorf("no target configured\nHint: set 'target' in %s or pass --target", filepath.Base(p.Path))
	}

	started := time.Now()
	report, runErr := eng.Run(ctx, target, runOptions(p, cc.Cfg, dryRun))
	res := &runResult{Plan: p, Report: report, Err: runErr}

	res.RunID = recordRun(ctx, cc, res, started)
	return res, nil
}

// recordRun stores res in the history database. Failures are logged and
// never fail the command.
func recordRun(ctx context.Context, cc *CommandContext, res *runResult, started time.Time) string {
	// A cancelled run is still recorded.
	ctx = context.WithoutCancel(ctx)

	store, err := openHistory(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		cc.Logger.Warn("history unavailable", slog.Any("error", err))
		return ""
	}
	if store == nil {
		return ""
	}
	defer func() { _ = store.Close() }()

	run, outcomes := history.FromReport(res.Report, res.Plan.Path, started, res.Err)
	if err := store.Record(ctx, run, outcomes); err != nil {
		cc.Logger.Warn("failed to record run", slog.Any("error", err))
		return ""
	}
	return run.ID
}
