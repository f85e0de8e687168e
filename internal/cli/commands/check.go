package commands

import (
	"errors"

	"github.com/leapstack-labs/leappatch/pkg/patch"
	"github.com/spf13/cobra"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Diff bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether the target is already patched",
		Long: `Run the patch plan without writing and report whether the artifact would
change.

Exit codes:
  0  the artifact is up to date
  1  the plan or the artifact could not be loaded
  2  the artifact would change, or a rule failed under --strict`,
		Example: `  # Fail CI when the generated server was regenerated without patching
  leappatch check

  # Show the pending changes
  leappatch check --diff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "Print a unified diff of pending changes")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions) error {
	cc := NewCommandContext(cmd)

	res, err := runPlan(cmd.Context(), cc, true)
	if err != nil {
		return err
	}

	drift := res.Err == nil && res.Report.Changed
	var diff string
	if opts.Diff && drift {
		diff, err = unifiedDiff(res.Report.Target, res.Report.Before, res.Report.After)
		if err != nil {
			return err
		}
	}

	if err := renderRun(cc.Renderer, "Check", res, diff, drift); err != nil {
		return err
	}

	switch {
	case errors.Is(res.Err, patch.ErrRuleNotApplied), errors.Is(res.Err, patch.ErrAmbiguousRegion):
		return &ExitError{Code: ExitDrift, Err: res.Err}
	case res.Err != nil:
		return res.Err
	case drift:
		return &ExitError{Code: ExitDrift, Err: ErrDrift}
	}
	return nil
}
