package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// Stage identifies a pipeline stage. Stages always run in the order of
// Stages, whatever order rules were configured in.
type Stage string

// Pipeline stages.
const (
	StageInject  Stage = "inject"
	StageRegion  Stage = "region"
	StageInsert  Stage = "insert"
	StageRewrite Stage = "rewrite"
)

// Stages lists the transform stages in execution order.
var Stages = []Stage{StageInject, StageRegion, StageInsert, StageRewrite}

// doneState is the run state entered once every rule of the stage has run.
func (s Stage) doneState() State {
	switch s {
	case StageInject:
		return StateFieldInjected
	case StageRegion:
		return StateRegionReplaced
	case StageInsert:
		return StateInserted
	default:
		return StateRewritten
	}
}

// RuleKind names the type of a rule.
type RuleKind string

// Rule kinds.
const (
	KindFieldInjection RuleKind = "field_injection"
	KindRegionReplace  RuleKind = "region_replace"
	KindGuardedInsert  RuleKind = "guarded_insert"
	KindRewrite        RuleKind = "rewrite"
	KindRemoveLines    RuleKind = "remove_lines"
)

// Rule is a single declarative edit over the whole buffer.
//
// Apply must be pure: it returns the new buffer and never mutates shared
// state, so rules can be reused across runs.
type Rule interface {
	Name() string
	Kind() RuleKind
	Stage() Stage
	Apply(text string) (string, Outcome)
}

// capturePattern matches ${name} or ${1} references in replacement templates.
var capturePattern = regexp.MustCompile(`\$\{(\w+)\}`)

// expandCaptures substitutes ${name} and ${n} references to capture groups
// of re using the submatch indexes in loc. References to groups that re
// does not define are left as-is, so "${PORT}" in a JavaScript template
// literal survives untouched.
func expandCaptures(re *regexp.Regexp, template, src string, loc []int) string {
	return capturePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		idx := -1
		if n, err := strconv.Atoi(name); err == nil {
			if n <= re.NumSubexp() {
				idx = n
			}
		} else {
			idx = re.SubexpIndex(name)
		}
		if idx < 0 || 2*idx+1 >= len(loc) || loc[2*idx] < 0 {
			if idx < 0 {
				return match
			}
			return ""
		}
		return src[loc[2*idx]:loc[2*idx+1]]
	})
}

// whitespaceRun splits literal templates into loosely-spaced pieces.
var whitespaceRun = regexp.MustCompile(`\s+`)

// looseQuote quotes s as a literal, letting any whitespace run match \s*.
func looseQuote(s string) string {
	pieces := whitespaceRun.Split(s, -1)
	for i, p := range pieces {
		pieces[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(pieces, `\s*`)
}

// lineEnding returns "\r\n" when text uses CRLF line breaks, else "\n".
func lineEnding(text string) string {
	if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
