package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// bodyGroup is the capture group holding the text between the anchors.
const bodyGroup = "body"

// RegionReplace replaces the span from a start anchor to the next end marker.
type RegionReplace struct {
	name     string
	template string
	guard    string
	re       *regexp.Regexp
}

// NewRegionReplace compiles a region rule.
//
// start is a regular expression matched with (?s), so "." crosses lines.
// end is a literal. The span between them is captured as ${body}; groups
// of start are available by number or name in template.
//
// Without a guard the rule must converge: a template whose output matches
// start and end again, and would be rewritten on the next run, is rejected.
func NewRegionReplace(name, start, end, template, guard string) (*RegionReplace, error) {
	if start == "" {
		return nil, &ConfigError{Rule: name, Field: "start", Msg: "must not be empty"}
	}
	if end == "" {
		return nil, &ConfigError{Rule: name, Field: "end", Msg: "must not be empty"}
	}
	startRe, err := regexp.Compile(start)
	if err != nil {
		return nil, &ConfigError{Rule: name, Field: "start", Msg: err.Error()}
	}
	for _, n := range startRe.SubexpNames() {
		if n == bodyGroup {
			return nil, &ConfigError{Rule: name, Field: "start", Msg: "capture group name \"body\" is reserved"}
		}
	}

	re, err := regexp.Compile(`(?s)(?:` + start + `)(?P<` + bodyGroup + `>.*?)` + regexp.QuoteMeta(end))
	if err != nil {
		return nil, &ConfigError{Rule: name, Field: "start", Msg: err.Error()}
	}
	r := &RegionReplace{
		name:     name,
		template: template,
		guard:    guard,
		re:       re,
	}
	if guard == "" && !r.converges() {
		return nil, &ConfigError{Rule: name, Field: "replace",
			Msg: "output matches the region again and would change on every run; set a guard"}
	}
	return r, nil
}

// converges renders the template with every group reference filled by a
// stand-in and checks that applying the rule to that output again is a
// no-op.
func (r *RegionReplace) converges() bool {
	for _, fill := range []string{"", "\x00"} {
		rendered := capturePattern.ReplaceAllStringFunc(r.template, func(match string) string {
			if r.definesGroup(match[2 : len(match)-1]) {
				return fill
			}
			return match
		})
		loc := r.re.FindStringSubmatchIndex(rendered)
		if loc == nil {
			continue
		}
		next := rendered[:loc[0]] + expandCaptures(r.re, r.template, rendered, loc) + rendered[loc[1]:]
		if next != rendered {
			return false
		}
	}
	return true
}

func (r *RegionReplace) definesGroup(name string) bool {
	if n, err := strconv.Atoi(name); err == nil {
		return n <= r.re.NumSubexp()
	}
	return r.re.SubexpIndex(name) >= 0
}

// Name implements Rule.
func (r *RegionReplace) Name() string { return r.name }

// Kind implements Rule.
func (r *RegionReplace) Kind() RuleKind { return KindRegionReplace }

// Stage implements Rule.
func (r *RegionReplace) Stage() Stage { return StageRegion }

// Apply replaces the first matching span. Outcome.Candidates counts every
// non-overlapping span so callers can detect ambiguous anchors.
func (r *RegionReplace) Apply(text string) (string, Outcome) {
	if r.guard != "" && strings.Contains(text, r.guard) {
		return text, skipped(0)
	}

	all := r.re.FindAllStringSubmatchIndex(text, -1)
	if len(all) == 0 {
		return text, notFound()
	}

	loc := all[0]
	replacement := expandCaptures(r.re, r.template, text, loc)
	if replacement == text[loc[0]:loc[1]] {
		return text, skipped(len(all))
	}
	return text[:loc[0]] + replacement + text[loc[1]:], applied(1, len(all))
}
