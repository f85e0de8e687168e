package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Plan file names looked up when no explicit path is given.
const (
	FileName    = "leappatch.plan.yaml"
	FileNameAlt = "leappatch.plan.yml"
)

var varPattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// Load reads the plan at path and expands its vars.
func Load(path string) (*Plan, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &PlanError{Path: path, Err: err}
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, &PlanError{Path: path, Msg: "parse", Err: err}
	}

	var p Plan
	if err := k.Unmarshal("", &p); err != nil {
		return nil, &PlanError{Path: path, Msg: "decode", Err: err}
	}
	p.Path = path

	if err := p.ExpandVars(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Find returns the plan file in dir, or "" when there is none.
func Find(dir string) string {
	for _, name := range []string{FileName, FileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// TargetPath resolves the target against the plan's directory. An
// explicit override is returned unchanged.
func (p *Plan) TargetPath(override string) string {
	if override != "" {
		return override
	}
	if p.Target == "" || filepath.IsAbs(p.Target) || p.Path == "" {
		return p.Target
	}
	return filepath.Join(filepath.Dir(p.Path), p.Target)
}

// ExpandVars substitutes {{ name }} placeholders in every rule field.
// {{ kind }} is left for the field injector. Expansion happens once; a var
// value that itself contains placeholders is not expanded again.
func (p *Plan) ExpandVars() error {
	if _, ok := p.Vars[KindVar]; ok {
		return &PlanError{Path: p.Path, Field: "vars." + KindVar, Msg: "name is reserved"}
	}

	for _, f := range p.fields() {
		out, err := p.expand(*f.value)
		if err != nil {
			return &PlanError{Path: p.Path, Field: f.name, Err: err}
		}
		*f.value = out
	}
	return nil
}

func (p *Plan) expand(s string) (string, error) {
	var missing string
	out := varPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := varPattern.FindStringSubmatch(m)[1]
		if name == KindVar {
			return m
		}
		v, ok := p.Vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return v
	})
	if missing != "" {
		return s, fmt.Errorf("unknown var %q", missing)
	}
	return out, nil
}

type field struct {
	name  string
	value *string
}

// fields lists every expandable string in the plan.
func (p *Plan) fields() []field {
	fs := []field{{"target", &p.Target}}
	if p.Inject != nil {
		fs = append(fs,
			field{"inject.opening", &p.Inject.Opening},
			field{"inject.line", &p.Inject.Line})
		for i := range p.Inject.Kinds {
			fs = append(fs, field{fmt.Sprintf("inject.kinds[%d]", i), &p.Inject.Kinds[i]})
		}
	}
	for i := range p.Regions {
		r := &p.Regions[i]
		prefix := fmt.Sprintf("regions[%d].", i)
		fs = append(fs,
			field{prefix + "start", &r.Start},
			field{prefix + "end", &r.End},
			field{prefix + "replace", &r.Replace},
			field{prefix + "guard", &r.Guard})
	}
	for i := range p.Inserts {
		r := &p.Inserts[i]
		prefix := fmt.Sprintf("inserts[%d].", i)
		fs = append(fs,
			field{prefix + "guard", &r.Guard},
			field{prefix + "anchor", &r.Anchor},
			field{prefix + "block", &r.Block})
	}
	for i := range p.Rewrites {
		r := &p.Rewrites[i]
		prefix := fmt.Sprintf("rewrites[%d].", i)
		fs = append(fs,
			field{prefix + "pattern", &r.Pattern},
			field{prefix + "replace", &r.Replace},
			field{prefix + "guard", &r.Guard})
	}
	for i := range p.RemoveLines {
		fs = append(fs, field{fmt.Sprintf("remove_lines[%d].pattern", i), &p.RemoveLines[i].Pattern})
	}
	return fs
}
