package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leappatch/internal/cli/config"
	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-apply the plan whenever the target or the plan changes",
		Long: `Apply the plan once, then again every time the target artifact is
regenerated or the plan file is edited. Bursts of file events are
debounced into a single run, and runs never overlap.

An already patched artifact is not rewritten, so the watcher does not
trigger itself.`,
		Example: `  leappatch watch
  leappatch watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd)
		},
	}

	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period before a change triggers a run")

	return cmd
}

func runWatch(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	// Fail fast on a broken plan; later cycles report errors and keep going.
	p, err := loadPlan(cc.Cfg)
	if err != nil {
		return err
	}
	target := p.TargetPath(cc.Cfg.Target)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(watch.Config{
		Paths:    []string{cc.Cfg.PlanPath, target},
		Debounce: cc.Cfg.Watch.Debounce,
		Initial:  true,
		Logger:   cc.Logger,
		OnChange: func(ctx context.Context, changed string) error {
			return watchCycle(ctx, cc, changed)
		},
	})

	if r.EffectiveMode() != output.ModeJSON {
		r.Muted(fmt.Sprintf("Watching %s and %s (Ctrl-C to stop)", displayPath(target), displayPath(cc.Cfg.PlanPath)))
		r.Println("")
	}
	return w.Run(ctx)
}

// watchCycle runs the plan once. The plan is reloaded every cycle so edits
// take effect without a restart.
func watchCycle(ctx context.Context, cc *CommandContext, changed string) error {
	r := cc.Renderer

	res, err := runPlan(ctx, cc, false)
	if err != nil {
		r.Error(err.Error())
		return nil
	}

	if changed != "" && r.EffectiveMode() != output.ModeJSON {
		r.Muted("Changed: " + displayPath(changed))
	}
	if err := renderRun(r, "Apply", res, "", false); err != nil {
		return err
	}
	if res.Err != nil {
		r.Error(res.Err.Error())
	}
	if r.EffectiveMode() != output.ModeJSON {
		r.Println("")
	}
	return nil
}
