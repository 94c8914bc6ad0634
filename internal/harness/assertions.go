package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", event)
		}
	}

	return buf.String()
}

// matches reports whether event satisfies the op, ref and outcome filters
// of an assertion. Empty filters match anything.
func matches(event TraceEvent, a Assertion) bool {
	if event.Op != a.Op {
		return false
	}
	if a.Ref != "" && event.Ref != a.Ref {
		return false
	}
	return a.Outcome == "" || event.Outcome == a.Outcome
}

func describe(a Assertion) string {
	desc := a.Op
	if a.Ref != "" {
		desc += " " + a.Ref
	}
	if a.Outcome != "" {
		desc += " -> " + a.Outcome
	}
	return desc
}

// assertTraceContains checks that some event matches the assertion.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matches(event, assertion) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(assertion),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops first appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Step 1: Find first position of each expected op
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Op] == 0 {
			positions[event.Op] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all ops found
	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Ops); i++ {
		prev := assertion.Ops[i-1]
		curr := assertion.Ops[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describe(assertion)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState loads the referenced entity, encodes it as JSON and
// compares the expected fields (subset semantics).
func assertFinalState(ctx context.Context, h *Harness, assertion Assertion) error {
	entity, err := h.lookup(ctx, assertion.Table, assertion.Ref)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s", assertion.Table, assertion.Ref),
			Actual:   err.Error(),
		}
	}

	actual, err := toFields(entity)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s missing", k))
			continue
		}
		if !stateValuesEqual(assertion.Expect[k], got) {
			mismatches = append(mismatches, fmt.Sprintf("%s=%v (want %v)", k, got, assertion.Expect[k]))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %s with %v", assertion.Table, assertion.Ref, assertion.Expect),
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}

// lookup resolves a final_state reference to the stored entity.
func (h *Harness) lookup(ctx context.Context, table, ref string) (any, error) {
	switch table {
	case TableFile:
		id, ok := h.files[ref]
		if !ok {
			return nil, fmt.Errorf("unknown file alias %q", ref)
		}
		return h.engine.GetFile(ctx, id)
	case TableItem:
		return h.item(ctx, ref)
	case TableSummary:
		id, ok := h.summaries[ref]
		if !ok {
			return nil, fmt.Errorf("unknown snapshot alias %q", ref)
		}
		return h.store.GetSummary(ctx, id)
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

// toFields encodes v as a JSON object of fields.
func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return fields, nil
}

// stateValuesEqual compares a YAML-decoded expected value with a
// JSON-decoded actual one. Scalars compare by their text form, so
// expected 1 matches actual 1.0 and "130" matches a decimal string.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Ctx     context.Context
	Harness *Harness
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides state access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Harness == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a harness context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Harness, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
