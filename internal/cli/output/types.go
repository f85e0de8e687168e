package output

// OutcomeInfo is one rule outcome in JSON output.
type OutcomeInfo struct {
	Rule       string `json:"rule"`
	Kind       string `json:"kind"`
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
	Candidates int    `json:"candidates"`
}

// RunOutput is the JSON output of apply, check and each watch cycle.
type RunOutput struct {
	RunID    string        `json:"run_id,omitempty"`
	Target   string        `json:"target"`
	Plan     string        `json:"plan,omitempty"`
	Encoding string        `json:"encoding,omitempty"`
	State    string        `json:"state"`
	DryRun   bool          `json:"dry_run"`
	Changed  bool          `json:"changed"`
	Written  bool          `json:"written"`
	Drift    bool          `json:"drift,omitempty"`
	Outcomes []OutcomeInfo `json:"outcomes"`
	Diff     string        `json:"diff,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RuleInfo describes a compiled rule in `plan show`.
type RuleInfo struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Stage    string `json:"stage"`
}

// PlanOutput is the JSON output of `plan show`.
type PlanOutput struct {
	Path     string            `json:"path"`
	Target   string            `json:"target"`
	Encoding string            `json:"encoding,omitempty"`
	Strict   bool              `json:"strict"`
	Vars     map[string]string `json:"vars,omitempty"`
	Rules    []RuleInfo        `json:"rules"`
}

// ValidateOutput is the JSON output of `plan validate`.
type ValidateOutput struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Rules  int      `json:"rules"`
	Issues []string `json:"issues,omitempty"`
}
