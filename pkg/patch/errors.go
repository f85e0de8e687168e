package patch

import (
	"errors"
	"fmt"
)

// Sentinel errors raised in strict mode.
var (
	// ErrRuleNotApplied means a rule's pattern or anchor was not found.
	ErrRuleNotApplied = errors.New("rule not applied")
	// ErrAmbiguousRegion means a region rule matched more than one span.
	ErrAmbiguousRegion = errors.New("ambiguous region")
)

// LoadError is returned when the artifact cannot be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistError is returned when the patched buffer cannot be written back.
// Nothing on disk has been modified when it is returned by an atomic sink.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// RuleError ties a strict-mode failure to the rule that caused it.
type RuleError struct {
	Rule    string
	Kind    RuleKind
	Outcome Outcome
	Err     error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s rule %q: %v", e.Kind, e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// ConfigError reports an invalid rule definition.
type ConfigError struct {
	Rule  string
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Msg)
	}
	return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Field, e.Msg)
}
