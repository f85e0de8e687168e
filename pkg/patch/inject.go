package patch

import (
	"regexp"
	"strings"
)

// kindPlaceholder marks where the record kind goes in an opening template.
var kindPlaceholder = regexp.MustCompile(`\{\{\s*kind\s*\}\}`)

// FieldInjection inserts a literal line after every creation-call opening
// of one record kind.
type FieldInjection struct {
	kind    string
	line    string
	opening *regexp.Regexp
}

// NewFieldInjection builds the injection rule for one record kind.
//
// opening is a literal template such as "prisma.{{ kind }}.create({ data: {"
// in which {{ kind }} is replaced by the quoted kind name and every
// whitespace run matches any amount of whitespace, newlines included.
func NewFieldInjection(kind, opening, line string) (*FieldInjection, error) {
	if strings.TrimSpace(kind) == "" {
		return nil, &ConfigError{Rule: kind, Field: "kind", Msg: "must not be empty"}
	}
	if line == "" {
		return nil, &ConfigError{Rule: kind, Field: "line", Msg: "must not be empty"}
	}
	if strings.Contains(line, "\n") {
		return nil, &ConfigError{Rule: kind, Field: "line", Msg: "must be a single line"}
	}
	re, err := compileOpening(kind, opening)
	if err != nil {
		return nil, err
	}
	return &FieldInjection{
		kind:    kind,
		line:    line,
		opening: re,
	}, nil
}

// NewFieldInjections builds one rule per kind, preserving kind order.
func NewFieldInjections(kinds []string, opening, line string) ([]*FieldInjection, error) {
	rules := make([]*FieldInjection, 0, len(kinds))
	for _, k := range kinds {
		r, err := NewFieldInjection(k, opening, line)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func compileOpening(kind, opening string) (*regexp.Regexp, error) {
	opening = strings.TrimSpace(opening)
	parts := kindPlaceholder.Split(opening, -1)
	if len(parts) < 2 {
		return nil, &ConfigError{Rule: kind, Field: "opening", Msg: "must contain the {{ kind }} placeholder"}
	}
	for i, p := range parts {
		parts[i] = looseQuote(p)
	}
	re, err := regexp.Compile(strings.Join(parts, regexp.QuoteMeta(kind)))
	if err != nil {
		return nil, &ConfigError{Rule: kind, Field: "opening", Msg: err.Error()}
	}
	return re, nil
}

// Name returns the record kind.
func (f *FieldInjection) Name() string { return f.kind }

// Kind implements Rule.
func (f *FieldInjection) Kind() RuleKind { return KindFieldInjection }

// Stage implements Rule.
func (f *FieldInjection) Stage() Stage { return StageInject }

// Pattern returns the compiled opening pattern.
func (f *FieldInjection) Pattern() string { return f.opening.String() }

// Apply inserts the line after every opening not already followed by it.
// The line break matches the buffer's, so CRLF artifacts stay CRLF.
func (f *FieldInjection) Apply(text string) (string, Outcome) {
	locs := f.opening.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, notFound()
	}

	insertion := lineEnding(text) + f.line
	var b strings.Builder
	b.Grow(len(text) + len(locs)*len(insertion))
	last, inserted := 0, 0
	for _, loc := range locs {
		end := loc[1]
		if strings.HasPrefix(text[end:], insertion) {
			continue
		}
		b.WriteString(text[last:end])
		b.WriteString(insertion)
		last = end
		inserted++
	}
	if inserted == 0 {
		return text, skipped(len(locs))
	}
	b.WriteString(text[last:])
	return b.String(), applied(inserted, len(locs))
}
