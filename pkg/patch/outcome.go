package patch

import "fmt"

// Status is the result of applying a single rule.
type Status string

// Rule statuses.
const (
	StatusApplied        Status = "applied"
	StatusNotFound       Status = "not_found"
	StatusSkippedGuarded Status = "skipped_guarded"
)

// Outcome reports what one rule did to the buffer.
type Outcome struct {
	Rule  string   `json:"rule"`
	Kind  RuleKind `json:"kind"`
	Stage Stage    `json:"stage"`
	// Status is Applied when Count > 0.
	Status Status `json:"status"`
	// Count is the number of edits made.
	Count int `json:"count"`
	// Candidates is the number of match sites seen, edited or not.
	Candidates int `json:"candidates"`
}

// Applied reports whether the rule changed the buffer.
func (o Outcome) Applied() bool {
	return o.Status == StatusApplied
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusApplied:
		return fmt.Sprintf("%s %s: applied(%d)", o.Kind, o.Rule, o.Count)
	case StatusSkippedGuarded:
		return fmt.Sprintf("%s %s: skipped (already applied)", o.Kind, o.Rule)
	default:
		return fmt.Sprintf("%s %s: not found", o.Kind, o.Rule)
	}
}

func applied(count, candidates int) Outcome {
	return Outcome{Status: StatusApplied, Count: count, Candidates: candidates}
}

func notFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

func skipped(candidates int) Outcome {
	return Outcome{Status: StatusSkippedGuarded, Candidates: candidates}
}

// State is the run-level lifecycle position.
type State string

// Run states, in pipeline order.
const (
	StateLoaded         State = "loaded"
	StateFieldInjected  State = "field_injected"
	StateRegionReplaced State = "region_replaced"
	StateInserted       State = "inserted"
	StateRewritten      State = "rewritten"
	StatePersisted      State = "persisted"
	StateAborted        State = "aborted"
)

// Report summarizes one pipeline run.
type Report struct {
	Target   string    `json:"target"`
	Encoding string    `json:"encoding,omitempty"`
	State    State     `json:"state"`
	States   []State   `json:"states"`
	Outcomes []Outcome `json:"outcomes"`
	// Changed is true when the patched buffer differs from the loaded one.
	Changed bool `json:"changed"`
	// Written is true when the sink touched the file.
	Written      bool   `json:"written"`
	DryRun       bool   `json:"dry_run,omitempty"`
	DigestBefore string `json:"digest_before,omitempty"`
	DigestAfter  string `json:"digest_after,omitempty"`

	// Before and After hold the decoded buffer around the transform stages.
	Before string `json:"-"`
	After  string `json:"-"`
}

// Count returns how many outcomes have the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) enter(s State) {
	r.State = s
	r.States = append(r.States, s)
}
