package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/internal/plan"
	"github.com/leapstack-labs/leappatch/pkg/patch"
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command and its subcommands.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect and validate the patch plan",
		Long: `Commands for working with the patch plan (leappatch.plan.yaml).

The plan names the target artifact, the record kinds that receive an
injected field, and the regions, inserts and rewrites applied to it.`,
	}

	cmd.AddCommand(newPlanValidateCommand())
	cmd.AddCommand(newPlanShowCommand())

	return cmd
}

func newPlanValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the plan without touching the target",
		Long: `Load the plan, expand its vars and compile every rule. All problems are
reported at once.`,
		Example: `  leappatch plan validate
  leappatch plan validate --plan patches/server.plan.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlanValidate(cmd)
		},
	}
}

// planIssues flattens a joined validation error into one message per
// problem.
func planIssues(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var issues []string
		for _, e := range joined.Unwrap() {
			issues = append(issues, planIssues(e)...)
		}
		return issues
	}
	return []string{err.Error()}
}

func runPlanValidate(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	if err := cc.Cfg.ValidatePlanExists(); err != nil {
		return err
	}

	result := output.ValidateOutput{Path: cc.Cfg.PlanPath}
	p, err := plan.Load(cc.Cfg.PlanPath)
	if err == nil {
		err = p.Validate()
	}
	if err == nil {
		rules, _ := p.Rules()
		result.Rules = len(rules)
	}
	result.Issues = planIssues(err)
	result.Valid = len(result.Issues) == 0

	if r.EffectiveMode() == output.ModeJSON {
		if jsonErr := r.JSON(result); jsonErr != nil {
			return jsonErr
		}
	} else {
		r.Header(2, "Plan: "+displayPath(result.Path))
		r.Println("")
		if result.Valid {
			r.Success(fmt.Sprintf("Plan is valid (%d rules)", result.Rules))
		} else {
			for _, issue := range result.Issues {
				r.StatusLine(issue, "error", "")
			}
		}
	}

	if !result.Valid {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("plan has %d issue(s)", len(result.Issues))}
	}
	return nil
}

func newPlanShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the compiled rules in execution order",
		Example: `  leappatch plan show
  leappatch plan show -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlanShow(cmd)
		},
	}
}

func runPlanShow(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	p, err := loadPlan(cc.Cfg)
	if err != nil {
		return err
	}
	eng, err := buildEngine(p, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	result := output.PlanOutput{
		Path:     p.Path,
		Target:   p.TargetPath(cc.Cfg.Target),
		Encoding: runOptions(p, cc.Cfg, false).Encoding,
		Strict:   p.Strict || cc.Cfg.Strict,
		Vars:     p.Vars,
	}
	for i, rule := range eng.Rules() {
		result.Rules = append(result.Rules, output.RuleInfo{
			Position: i + 1,
			Name:     rule.Name(),
			Kind:     string(rule.Kind()),
			Stage:    string(rule.Stage()),
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(result)
	}

	r.Header(2, "Plan: "+displayPath(result.Path))
	r.Println("")
	encoding := result.Encoding
	if encoding == "" {
		encoding = patch.EncodingUTF8
	}
	r.Println(output.FormatKeyValue("target", displayPath(result.Target)))
	r.Println(output.FormatKeyValue("encoding", encoding))
	r.Println(output.FormatKeyValue("strict", strconv.FormatBool(result.Strict)))
	if len(result.Vars) > 0 {
		names := make([]string, 0, len(result.Vars))
		for name := range result.Vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r.Println(output.FormatKeyValue("var "+name, result.Vars[name]))
		}
	}
	r.Println("")

	rows := make([][]string, 0, len(result.Rules))
	for _, info := range result.Rules {
		rows = append(rows, []string{strconv.Itoa(info.Position), info.Name, info.Kind, info.Stage})
	}
	r.Table([]string{"#", "Rule", "Kind", "Stage"}, rows)
	return nil
}
