package patch

import "strings"

// GuardedInsert adds a block before an anchor unless its guard is present.
type GuardedInsert struct {
	name   string
	guard  string
	anchor string
	block  string
}

// NewGuardedInsert validates and builds an insertion rule. The block must
// contain its own guard marker, otherwise a second run would insert it again.
func NewGuardedInsert(name, guard, anchor, block string) (*GuardedInsert, error) {
	switch {
	case guard == "":
		return nil, &ConfigError{Rule: name, Field: "guard", Msg: "must not be empty"}
	case anchor == "":
		return nil, &ConfigError{Rule: name, Field: "anchor", Msg: "must not be empty"}
	case block == "":
		return nil, &ConfigError{Rule: name, Field: "block", Msg: "must not be empty"}
	case !strings.Contains(block, guard):
		return nil, &ConfigError{Rule: name, Field: "block", Msg: "must contain the guard marker"}
	}
	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}
	return &GuardedInsert{name: name, guard: guard, anchor: anchor, block: block}, nil
}

// Name implements Rule.
func (g *GuardedInsert) Name() string { return g.name }

// Kind implements Rule.
func (g *GuardedInsert) Kind() RuleKind { return KindGuardedInsert }

// Stage implements Rule.
func (g *GuardedInsert) Stage() Stage { return StageInsert }

// Apply inserts the block before the first anchor occurrence, using the
// buffer's line breaks.
func (g *GuardedInsert) Apply(text string) (string, Outcome) {
	if strings.Contains(text, g.guard) {
		return text, skipped(0)
	}
	i := strings.Index(text, g.anchor)
	if i < 0 {
		return text, notFound()
	}
	block := g.block
	if lineEnding(text) == "\r\n" {
		block = strings.ReplaceAll(strings.ReplaceAll(block, "\r\n", "\n"), "\n", "\r\n")
	}
	return text[:i] + block + text[i:], applied(1, strings.Count(text, g.anchor))
}
