// Package plan loads patch plans: YAML documents that describe which rules
// leappatch applies to a generated artifact.
package plan

// KindVar is the placeholder the field injector substitutes with each kind.
// Plan vars may not use this name.
const KindVar = "kind"

// Plan is a parsed patch plan.
type Plan struct {
	// Target is the artifact to patch. Relative paths resolve against the
	// plan file's directory.
	Target   string            `koanf:"target" yaml:"target"`
	Encoding string            `koanf:"encoding" yaml:"encoding,omitempty"`
	Strict   bool              `koanf:"strict" yaml:"strict,omitempty"`
	Vars     map[string]string `koanf:"vars" yaml:"vars,omitempty"`

	Inject      *InjectSpec       `koanf:"inject" yaml:"inject,omitempty"`
	Regions     []RegionSpec      `koanf:"regions" yaml:"regions,omitempty"`
	Inserts     []InsertSpec      `koanf:"inserts" yaml:"inserts,omitempty"`
	Rewrites    []RewriteSpec     `koanf:"rewrites" yaml:"rewrites,omitempty"`
	RemoveLines []RemoveLinesSpec `koanf:"remove_lines" yaml:"remove_lines,omitempty"`

	// Path is the file the plan was loaded from, empty for in-memory plans.
	Path string `koanf:"-" yaml:"-" json:"-"`
}

// InjectSpec configures field injection for a list of entity kinds.
type InjectSpec struct {
	Opening string   `koanf:"opening" yaml:"opening"`
	Line    string   `koanf:"line" yaml:"line"`
	Kinds   []string `koanf:"kinds" yaml:"kinds"`
}

// RegionSpec configures a region replacement.
type RegionSpec struct {
	Name    string `koanf:"name" yaml:"name"`
	Start   string `koanf:"start" yaml:"start"`
	End     string `koanf:"end" yaml:"end"`
	Replace string `koanf:"replace" yaml:"replace"`
	Guard   string `koanf:"guard" yaml:"guard,omitempty"`
}

// InsertSpec configures a guarded block insertion.
type InsertSpec struct {
	Name   string `koanf:"name" yaml:"name"`
	Guard  string `koanf:"guard" yaml:"guard"`
	Anchor string `koanf:"anchor" yaml:"anchor"`
	Block  string `koanf:"block" yaml:"block"`
}

// RewriteSpec configures a pattern rewrite.
type RewriteSpec struct {
	Name    string `koanf:"name" yaml:"name"`
	Pattern string `koanf:"pattern" yaml:"pattern"`
	Literal bool   `koanf:"literal" yaml:"literal,omitempty"`
	Replace string `koanf:"replace" yaml:"replace"`
	Guard   string `koanf:"guard" yaml:"guard,omitempty"`
}

// RemoveLinesSpec drops every line matching Pattern.
type RemoveLinesSpec struct {
	Name    string `koanf:"name" yaml:"name"`
	Pattern string `koanf:"pattern" yaml:"pattern"`
}
