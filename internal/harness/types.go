package harness

import "github.com/roach88/gridyield/internal/ir"

// Outcomes recorded for a step that did not fail with an engine error code.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// TraceEvent is the record of one executed step.
type TraceEvent struct {
	Step int    `json:"step"`
	Op   string `json:"op"`

	// Args are the step's inputs after module names are resolved to ids.
	Args ir.Object `json:"args"`

	// Outcome is "ok", an engine error code, or "error" for anything else.
	Outcome string `json:"outcome"`

	// Result is the step's output. Empty on failure.
	Result ir.Object `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
