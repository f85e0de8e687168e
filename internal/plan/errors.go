package plan

import "fmt"

// PlanError reports an invalid plan. Field is a path such as
// "regions[1].start"; it is empty for file-level problems.
type PlanError struct {
	Path  string
	Field string
	Msg   string
	Err   error
}

func (e *PlanError) Error() string {
	where := e.Path
	if where == "" {
		where = "plan"
	}
	if e.Field != "" {
		where += ": " + e.Field
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", where, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", where, e.Err)
	default:
		return fmt.Sprintf("%s: %s", where, e.Msg)
	}
}

func (e *PlanError) Unwrap() error { return e.Err }
