package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leappatch/pkg/patch"
)

// Validate checks the plan and compiles every rule. All problems are
// returned joined; each is a *PlanError.
func (p *Plan) Validate() error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, &PlanError{Path: p.Path, Field: field, Msg: msg})
	}

	if p.Encoding != "" && !patch.ValidEncoding(p.Encoding) {
		add("encoding", fmt.Sprintf("unsupported encoding %q", p.Encoding))
	}
	if p.Inject == nil && len(p.Regions)+len(p.Inserts)+len(p.Rewrites)+len(p.RemoveLines) == 0 {
		add("", "plan defines no rules")
	}

	seen := make(map[string]string)
	check := func(field, name string) {
		if strings.TrimSpace(name) == "" {
			add(field, "is required")
			return
		}
		if prev, ok := seen[name]; ok {
			add(field, fmt.Sprintf("duplicate rule name %q (also %s)", name, prev))
			return
		}
		seen[name] = field
	}
	if p.Inject != nil {
		if len(p.Inject.Kinds) == 0 {
			add("inject.kinds", "at least one kind is required")
		}
		for i, kind := range p.Inject.Kinds {
			check(fmt.Sprintf("inject.kinds[%d]", i), kind)
		}
	}
	for i, r := range p.Regions {
		check(fmt.Sprintf("regions[%d].name", i), r.Name)
	}
	for i, r := range p.Inserts {
		check(fmt.Sprintf("inserts[%d].name", i), r.Name)
	}
	for i, r := range p.Rewrites {
		check(fmt.Sprintf("rewrites[%d].name", i), r.Name)
	}
	for i, r := range p.RemoveLines {
		check(fmt.Sprintf("remove_lines[%d].name", i), r.Name)
	}

	if _, err := p.Rules(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Rules compiles the plan into engine rules, in plan order. Stage order is
// applied by the engine.
func (p *Plan) Rules() ([]patch.Rule, error) {
	var (
		rules []patch.Rule
		errs  []error
	)
	wrap := func(prefix string, err error) {
		var cfgErr *patch.ConfigError
		if errors.As(err, &cfgErr) {
			errs = append(errs, &PlanError{Path: p.Path, Field: prefix + "." + cfgErr.Field, Msg: cfgErr.Msg})
			return
		}
		errs = append(errs, &PlanError{Path: p.Path, Field: prefix, Err: err})
	}

	if p.Inject != nil {
		for _, kind := range p.Inject.Kinds {
			r, err := patch.NewFieldInjection(kind, p.Inject.Opening, p.Inject.Line)
			if err != nil {
				// opening and line are shared, so one report covers every kind
				wrap("inject", err)
				break
			}
			rules = append(rules, r)
		}
	}
	for i, s := range p.Regions {
		r, err := patch.NewRegionReplace(s.Name, s.Start, s.End, s.Replace, s.Guard)
		if err != nil {
			wrap(fmt.Sprintf("regions[%d]", i), err)
			continue
		}
		rules = append(rules, r)
	}
	for i, s := range p.Inserts {
		r, err := patch.NewGuardedInsert(s.Name, s.Guard, s.Anchor, s.Block)
		if err != nil {
			wrap(fmt.Sprintf("inserts[%d]", i), err)
			continue
		}
		rules = append(rules, r)
	}
	for i, s := range p.Rewrites {
		r, err := patch.NewRewrite(s.Name, s.Pattern, s.Literal, s.Replace, s.Guard)
		if err != nil {
			wrap(fmt.Sprintf("rewrites[%d]", i), err)
			continue
		}
		rules = append(rules, r)
	}
	for i, s := range p.RemoveLines {
		r, err := patch.NewRemoveLines(s.Name, s.Pattern)
		if err != nil {
			wrap(fmt.Sprintf("remove_lines[%d]", i), err)
			continue
		}
		rules = append(rules, r)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rules, nil
}
