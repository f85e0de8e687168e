package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/history"
	"github.com/leapstack-labs/leappatch/pkg/patch"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	RunID string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded patch runs",
		Long: `List recent runs from the history database, newest first.

With --target only runs against that artifact are listed. With --run the
per-rule outcomes of a single run are shown.`,
		Example: `  leappatch history
  leappatch history --limit 5 -o json
  leappatch history --run 3f1c2a7e-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "Show the rule outcomes of one run")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer
	ctx := cmd.Context()

	store, err := history.Open(ctx, cc.Cfg.HistoryPath, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.RunID != "" {
		outcomes, err := store.Outcomes(ctx, opts.RunID)
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			return fmt.Errorf("no outcomes recorded for run %s", opts.RunID)
		}
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(outcomes)
		}
		r.Header(2, "Run "+opts.RunID)
		r.Println("")
		for _, o := range outcomes {
			r.StatusLine(o.Rule, statusSymbol(patch.Status(o.Status)),
				fmt.Sprintf("%s · %s (%d edits)", o.Kind, o.Status, o.Count))
		}
		return nil
	}

	runs, err := store.Recent(ctx, cc.Cfg.Target, opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*history.Run{}
		}
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Muted("No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := "ok"
		switch {
		case run.Error != "":
			result = "failed"
		case run.DryRun && run.Changed:
			result = "drift"
		case run.Written:
			result = "patched"
		}
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			displayPath(run.Target),
			result,
			strconv.Itoa(run.Applied),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.NotFound),
		})
	}
	r.Header(2, "History")
	r.Println("")
	r.Table([]string{"Run", "Started", "Target", "Result", "Applied", "Skipped", "Not found"}, rows)
	return nil
}
