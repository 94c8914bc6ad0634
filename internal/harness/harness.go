package harness

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/engine"
	"github.com/roach88/costcore/internal/ingest"
	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
	"github.com/roach88/costcore/internal/testutil"
)

// DefaultOperator is recorded in the audit log when a scenario names none.
const DefaultOperator = "harness"

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and ids.
type Harness struct {
	scenario *Scenario
	store    *store.Store
	engine   *engine.Engine

	files     map[string]string // alias -> file id
	summaries map[string]string // alias -> summary id
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Execute flow steps, recording one trace event each and checking expects
// 3. Evaluate assertions against the trace and the stored state
//
// A step the engine rejects is part of the trace; only system faults and
// unresolvable references abort the run with an error.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		scenario: scenario,
		store:    st,
		engine: engine.New(st,
			engine.WithClock(testutil.NewDeterministicClock()),
			engine.WithIDGenerator(testutil.NewSequenceGenerator("id")),
			engine.WithLogger(zap.NewNop()),
		),
		files:     make(map[string]string),
		summaries: make(map[string]string),
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
		ev.Seq = i + 1
		result.AddEvent(ev)
		for _, msg := range checkExpect(ev, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", ev.Seq, step.Op, msg))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, &AssertionContext{Ctx: ctx, Harness: h}) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. A typed engine failure becomes the event's
// outcome; any other error is returned.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	ev := TraceEvent{Op: step.Op, Ref: stepRef(step)}
	detail, err := h.dispatch(ctx, step)
	if err != nil {
		f, ok := engine.AsFailure(err)
		if !ok {
			return ev, err
		}
		ev.Outcome = string(f.Code)
		ev.Detail = map[string]string{"kind": string(f.Kind)}
		return ev, nil
	}
	ev.Outcome = OutcomeOK
	ev.Detail = detail
	return ev, nil
}

func stepRef(step Step) string {
	switch {
	case step.As != "":
		return step.As
	case step.Item != "":
		return step.Item
	default:
		return step.File
	}
}

func (h *Harness) project(step Step) string {
	if step.Project != "" {
		return step.Project
	}
	return h.scenario.Project
}

func (h *Harness) operator(step Step) string {
	switch {
	case step.Operator != "":
		return step.Operator
	case h.scenario.Operator != "":
		return h.scenario.Operator
	}
	return DefaultOperator
}

func (h *Harness) sheet(name string) *ingest.Sheet {
	s := h.scenario.Sheets[name]
	return &s
}

func (h *Harness) dispatch(ctx context.Context, step Step) (map[string]string, error) {
	op := h.operator(step)

	switch step.Op {
	case OpRegister:
		f, err := h.engine.RegisterFile(ctx, engine.RegisterRequest{
			ProjectID:    h.project(step),
			Kind:         model.FileKind(step.Kind),
			OriginalName: step.As + ".yaml",
			Content:      []byte(step.As),
			OperatorID:   op,
		})
		if err != nil {
			return nil, err
		}
		h.files[step.As] = f.ID
		if step.Sheet != "" {
			if _, err := h.engine.Ingest(ctx, f.ID, h.sheet(step.Sheet), op); err != nil {
				return nil, err
			}
		}
		return h.fileDetail(ctx, f.ID)

	case OpIngest:
		id := h.files[step.File]
		if _, err := h.engine.Ingest(ctx, id, h.sheet(step.Sheet), op); err != nil {
			return nil, err
		}
		return h.fileDetail(ctx, id)

	case OpValidate:
		rep, err := h.engine.ValidateFile(ctx, h.files[step.File])
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"status":    string(rep.FileStatus),
			"total":     strconv.Itoa(rep.Total),
			"ok":        strconv.Itoa(rep.OK),
			"warning":   strconv.Itoa(rep.Warning),
			"confirmed": strconv.Itoa(rep.Confirmed),
			"blocked":   strconv.Itoa(rep.Blocked),
		}, nil

	case OpConfirm, OpEdit:
		it, err := h.item(ctx, step.Item)
		if err != nil {
			return nil, err
		}
		if step.Op == OpConfirm {
			err = h.engine.ConfirmItem(ctx, string(it.Kind), it.ID, op)
		} else {
			err = h.engine.EditItem(ctx, string(it.Kind), it.ID, step.Set, op)
		}
		if err != nil {
			return nil, err
		}
		return h.itemDetail(ctx, step.Item)

	case OpManualFile:
		f, err := h.engine.CreateManualFile(ctx, h.project(step), op)
		if err != nil {
			return nil, err
		}
		h.files[step.As] = f.ID
		return h.fileDetail(ctx, f.ID)

	case OpManualItem:
		subtotal, err := model.ParseDecimal(step.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("subtotal: %w", err)
		}
		it, err := h.engine.AddManualItem(ctx, h.files[step.File], engine.ManualItem{
			LogisticsType: model.LogisticsType(step.Type),
			Description:   step.Description,
			Subtotal:      subtotal,
		}, op)
		if err != nil {
			return nil, err
		}
		return map[string]string{"row": strconv.Itoa(it.RowNo), "status": string(it.Status)}, nil

	case OpSnapshot:
		req := engine.SnapshotRequest{
			ProjectID:       h.project(step),
			MaterialFileID:  h.files[step.Files["material"]],
			PartFileID:      h.files[step.Files["part"]],
			LaborFileID:     h.files[step.Files["labor"]],
			LogisticsFileID: h.files[step.Files["logistics"]],
			OperatorID:      op,
		}
		if step.Latest {
			var err error
			if req, err = h.engine.LatestSnapshotRequest(ctx, req); err != nil {
				return nil, err
			}
		}
		sum, err := h.engine.GenerateSnapshot(ctx, req)
		if err != nil {
			return nil, err
		}
		if step.As != "" {
			h.summaries[step.As] = sum.ID
		}
		return map[string]string{
			"version":   strconv.FormatInt(sum.CalculationVersion, 10),
			"material":  sum.MaterialCost.String(),
			"part":      sum.PartCost.String(),
			"labor":     sum.LaborCost.String(),
			"logistics": sum.LogisticsCost.String(),
			"total":     sum.TotalCost.String(),
		}, nil
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) fileDetail(ctx context.Context, id string) (map[string]string, error) {
	f, err := h.engine.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"kind":    string(f.Kind),
		"version": strconv.FormatInt(f.Version, 10),
		"parse":   string(f.ParseStatus),
		"status":  string(f.ValidationStatus),
	}, nil
}

func (h *Harness) itemDetail(ctx context.Context, ref string) (map[string]string, error) {
	it, err := h.item(ctx, ref)
	if err != nil {
		return nil, err
	}
	f, err := h.engine.GetFile(ctx, it.SourceFileID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"status":      string(it.Status),
		"file_status": string(f.ValidationStatus),
	}, nil
}

// item resolves "<file alias>#<row>" to the stored item.
func (h *Harness) item(ctx context.Context, ref string) (model.Item, error) {
	alias, row, err := splitItemRef(ref)
	if err != nil {
		return model.Item{}, err
	}
	id, ok := h.files[alias]
	if !ok {
		return model.Item{}, fmt.Errorf("unknown file alias %q", alias)
	}
	items, err := h.engine.FileItems(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	for _, it := range items {
		if it.RowNo == row {
			return it, nil
		}
	}
	return model.Item{}, fmt.Errorf("item ref %q: no item at row %d", ref, row)
}

// checkExpect compares an event against the step's expect clause.
func checkExpect(ev TraceEvent, exp *Expect) []string {
	if exp == nil {
		if ev.Outcome != OutcomeOK {
			return []string{fmt.Sprintf("unexpected failure %s", ev.Outcome)}
		}
		return nil
	}

	want := OutcomeOK
	if exp.Failure != "" {
		want = exp.Failure
	}
	if ev.Outcome != want {
		return []string{fmt.Sprintf("expected outcome %s, got %s", want, ev.Outcome)}
	}

	var errs []string
	if exp.Status != "" && ev.Detail["status"] != exp.Status {
		errs = append(errs, fmt.Sprintf("expected status %s, got %q", exp.Status, ev.Detail["status"]))
	}
	if exp.Total != "" && ev.Detail["total"] != exp.Total {
		errs = append(errs, fmt.Sprintf("expected total %s, got %q", exp.Total, ev.Detail["total"]))
	}
	return errs
}
