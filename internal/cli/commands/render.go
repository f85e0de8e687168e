package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leappatch/internal/cli/output"
	"github.com/leapstack-labs/leappatch/pkg/patch"
)

// displayPath shortens path relative to the working directory when it
// lies below it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func outcomeInfos(outcomes []patch.Outcome) []output.OutcomeInfo {
	infos := make([]output.OutcomeInfo, 0, len(outcomes))
	for _, o := range outcomes {
		infos = append(infos, output.OutcomeInfo{
			Rule:       o.Rule,
			Kind:       string(o.Kind),
			Stage:      string(o.Stage),
			Status:     string(o.Status),
			Count:      o.Count,
			Candidates: o.Candidates,
		})
	}
	return infos
}

func runOutput(res *runResult, diff string, drift bool) output.RunOutput {
	rep := res.Report
	out := output.RunOutput{
		RunID:    res.RunID,
		Target:   rep.Target,
		Plan:     res.Plan.Path,
		Encoding: rep.Encoding,
		State:    string(rep.State),
		DryRun:   rep.DryRun,
		Changed:  rep.Changed,
		Written:  rep.Written,
		Drift:    drift,
		Outcomes: outcomeInfos(rep.Outcomes),
		Diff:     diff,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// statusSymbol maps an outcome status to a StatusLine status.
func statusSymbol(s patch.Status) string {
	switch s {
	case patch.StatusApplied:
		return "success"
	case patch.StatusSkippedGuarded:
		return "skipped"
	default:
		return "warning"
	}
}

// renderRun writes the outcome table, the optional diff and a one-line
// summary. Engine errors are left to the caller.
func renderRun(r *output.Renderer, title string, res *runResult, diff string, drift bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runOutput(res, diff, drift))
	}

	rep := res.Report
	r.Header(2, fmt.Sprintf("%s: %s", title, displayPath(rep.Target)))
	if rep.Encoding != "" {
		r.Muted("encoding " + rep.Encoding)
	}
	r.Println("")

	if len(rep.Outcomes) > 0 {
		rows := make([][]string, 0, len(rep.Outcomes))
		for _, o := range rep.Outcomes {
			rows = append(rows, []string{
				o.Rule, string(o.Kind), string(o.Stage), string(o.Status), strconv.Itoa(o.Count),
			})
		}
		r.Table([]string{"Rule", "Kind", "Stage", "Status", "Edits"}, rows)
		r.Println("")
	}

	if diff != "" {
		if r.EffectiveMode() == output.ModeText {
			r.Println(diff)
		} else {
			r.Println(output.FormatCodeBlock("diff", diff))
			r.Println("")
		}
	}

	if n := rep.Count(patch.StatusNotFound); n > 0 {
		r.Warning(fmt.Sprintf("%d rule(s) found nothing to patch", n))
	}
	if res.Err != nil {
		return nil
	}

	applied := rep.Count(patch.StatusApplied)
	skipped := rep.Count(patch.StatusSkippedGuarded)
	switch {
	case rep.DryRun && rep.Changed:
		r.Muted(fmt.Sprintf("%d rule(s) would apply; nothing written", applied))
	case rep.Written:
		r.Success(fmt.Sprintf("Patched %s (%d applied, %d already applied)", displayPath(rep.Target), applied, skipped))
	default:
		r.Success("Up to date")
	}
	return nil
}
