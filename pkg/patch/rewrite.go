package patch

import (
	"regexp"
	"strings"
)

// Rewrite replaces every match of a pattern with a template.
type Rewrite struct {
	name     string
	template string
	guard    string
	re       *regexp.Regexp
}

// NewRewrite compiles a rewrite rule. With literal set, pattern is matched
// verbatim. A non-empty guard skips the rule once the guard text appears,
// which keeps rewrites whose output still matches the pattern idempotent.
func NewRewrite(name, pattern string, literal bool, template, guard string) (*Rewrite, error) {
	if pattern == "" {
		return nil, &ConfigError{Rule: name, Field: "pattern", Msg: "must not be empty"}
	}
	if literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ConfigError{Rule: name, Field: "pattern", Msg: err.Error()}
	}
	return &Rewrite{name: name, template: template, guard: guard, re: re}, nil
}

// Name implements Rule.
func (r *Rewrite) Name() string { return r.name }

// Kind implements Rule.
func (r *Rewrite) Kind() RuleKind { return KindRewrite }

// Stage implements Rule.
func (r *Rewrite) Stage() Stage { return StageRewrite }

// Apply rewrites all matches. Matches whose replacement equals the matched
// text do not count as edits.
func (r *Rewrite) Apply(text string) (string, Outcome) {
	if r.guard != "" && strings.Contains(text, r.guard) {
		return text, skipped(0)
	}
	locs := r.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, notFound()
	}

	var b strings.Builder
	last, changed := 0, 0
	for _, loc := range locs {
		repl := expandCaptures(r.re, r.template, text, loc)
		if repl == text[loc[0]:loc[1]] {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
		changed++
	}
	if changed == 0 {
		return text, skipped(len(locs))
	}
	b.WriteString(text[last:])
	return b.String(), applied(changed, len(locs))
}

// RemoveLines deletes every whole line that matches a pattern.
type RemoveLines struct {
	name string
	re   *regexp.Regexp
}

// NewRemoveLines compiles a line-removal rule. The pattern is matched
// against each line without its trailing newline.
func NewRemoveLines(name, pattern string) (*RemoveLines, error) {
	if pattern == "" {
		return nil, &ConfigError{Rule: name, Field: "pattern", Msg: "must not be empty"}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ConfigError{Rule: name, Field: "pattern", Msg: err.Error()}
	}
	return &RemoveLines{name: name, re: re}, nil
}

// Name implements Rule.
func (r *RemoveLines) Name() string { return r.name }

// Kind implements Rule.
func (r *RemoveLines) Kind() RuleKind { return KindRemoveLines }

// Stage implements Rule.
func (r *RemoveLines) Stage() Stage { return StageRewrite }

// Apply drops matching lines.
func (r *RemoveLines) Apply(text string) (string, Outcome) {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	b.Grow(len(text))
	removed := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		if r.re.MatchString(strings.TrimRight(line, "\r\n")) {
			removed++
			continue
		}
		b.WriteString(line)
	}
	if removed == 0 {
		return text, notFound()
	}
	return b.String(), applied(removed, removed)
}
