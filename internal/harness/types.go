package harness

import (
	"fmt"
	"sort"
	"strings"
)

// OutcomeOK is the outcome of a step the engine accepted. Rejected steps
// record the failure code instead.
const OutcomeOK = "ok"

// TraceEvent is the observable result of one flow step.
type TraceEvent struct {
	Seq     int               `json:"seq"`
	Op      string            `json:"op"`
	Ref     string            `json:"ref,omitempty"`
	Outcome string            `json:"outcome"`
	Detail  map[string]string `json:"detail,omitempty"`
}

// String renders the event on one line with detail keys sorted.
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", e.Seq, e.Op)
	if e.Ref != "" {
		fmt.Fprintf(&b, " %s", e.Ref)
	}
	fmt.Fprintf(&b, " -> %s", e.Outcome)

	keys := make([]string, 0, len(e.Detail))
	for k := range e.Detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, e.Detail[k])
	}
	return b.String()
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
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

// AddEvent appends a step event to the trace.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// Render returns the trace as text, one event per line, headed by the
// scenario name.
func (r *Result) Render(scenarioName string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
