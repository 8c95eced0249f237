package harness

import (
	"fmt"

	"github.com/roach88/fakedb/internal/problem"
	"github.com/roach88/fakedb/internal/value"
)

// TraceEvent records the observable outcome of one step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"` // "ok" or the store error code
	Found   *bool  `json:"found,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// StepProblem ties an unexpected store error to the step that raised it.
type StepProblem struct {
	Step    int             `json:"step"`
	Op      string          `json:"op"`
	Problem problem.Details `json:"problem"`
}

// Result is the outcome of a scenario on one backend.
type Result struct {
	Backend string `json:"backend"`

	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Problems describes store errors that steps did not expect.
	Problems []StepProblem `json:"problems,omitempty"`

	// State is the store content after the last step.
	State map[string]value.Object `json:"-"`
}

// NewResult creates a new passing result.
func NewResult(backend string) *Result {
	return &Result{
		Backend: backend,
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Report aggregates a scenario's results across backends.
type Report struct {
	Scenario   string    `json:"scenario"`
	Identifier string    `json:"identifier"`
	Pass       bool      `json:"pass"`
	Results    []*Result `json:"results"`

	// Errors holds disagreements between backends.
	Errors []string `json:"errors,omitempty"`
}

// Failures flattens every failure message, prefixed with its backend.
func (r *Report) Failures() []string {
	var out []string
	for _, res := range r.Results {
		for _, e := range res.Errors {
			out = append(out, fmt.Sprintf("[%s] %s", res.Backend, e))
		}
	}
	return append(out, r.Errors...)
}
