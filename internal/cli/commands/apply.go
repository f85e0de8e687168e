package commands

import (
	"github.com/spf13/cobra"
)

// ApplyOptions holds options for the apply command.
type ApplyOptions struct {
	DryRun bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &ApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the patch plan to its target",
		Long: `Apply every rule of the patch plan to the target artifact and write the
result back in place.

Rules run in a fixed stage order: field injection, region replacement,
guarded insertion, then rewrites. Applying an already patched artifact
changes nothing.`,
		Example: `  # Patch the target named in leappatch.plan.yaml
  leappatch apply

  # Show what would change without writing
  leappatch apply --dry-run

  # Patch a different copy of the artifact
  leappatch apply --target build/server.ts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print a unified diff instead of writing")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions) error {
	cc := NewCommandContext(cmd)

	res, err := runPlan(cmd.Context(), cc, opts.DryRun)
	if err != nil {
		return err
	}

	var diff string
	if opts.DryRun && res.Err == nil {
		diff, err = unifiedDiff(res.Report.Target, res.Report.Before, res.Report.After)
		if err != nil {
			return err
		}
	}

	title := "Apply"
	if opts.DryRun {
		title = "Dry run"
	}
	if err := renderRun(cc.Renderer, title, res, diff, false); err != nil {
		return err
	}
	return res.Err
}
