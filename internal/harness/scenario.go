package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/costcore/internal/ingest"
)

// Scenario defines an end-to-end cost scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project is the default project id of every step.
	Project string `yaml:"project"`

	// Operator is the default operator id; "harness" when empty.
	Operator string `yaml:"operator,omitempty"`

	// Sheets are the inline sheet documents steps refer to by name.
	Sheets map[string]ingest.Sheet `yaml:"sheets,omitempty"`

	// Flow is the ordered list of engine operations.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// As names the file or snapshot the step creates.
	As string `yaml:"as,omitempty"`

	// Project and Operator override the scenario defaults.
	Project  string `yaml:"project,omitempty"`
	Operator string `yaml:"operator,omitempty"`

	Kind  string `yaml:"kind,omitempty"`
	Sheet string `yaml:"sheet,omitempty"`
	File  string `yaml:"file,omitempty"`
	Item  string `yaml:"item,omitempty"`

	// Set holds edit assignments.
	Set map[string]string `yaml:"set,omitempty"`

	// Manual item fields.
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
	Subtotal    string `yaml:"subtotal,omitempty"`

	// Files maps snapshot slots (material, part, labor, logistics) to file aliases.
	Files map[string]string `yaml:"files,omitempty"`

	// Latest fills unmapped snapshot slots with the newest usable files.
	Latest bool `yaml:"latest,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step. A step without Expect
// must succeed.
type Expect struct {
	// Failure is the expected failure code; empty means the step succeeds.
	Failure string `yaml:"failure,omitempty"`

	// Status is the expected file status (register, ingest, validate,
	// manual_file) or item status (confirm, edit, manual_item).
	Status string `yaml:"status,omitempty"`

	// Total is the expected snapshot total.
	Total string `yaml:"total,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Op appears, optionally with Ref and Outcome
	// - "trace_order": Ops first appear in order
	// - "trace_count": Op (with Outcome if set) appears exactly Count times
	// - "final_state": the entity at Ref in Table has the Expect fields
	Type string `yaml:"type"`

	Op      string   `yaml:"op,omitempty"`
	Ref     string   `yaml:"ref,omitempty"`
	Outcome string   `yaml:"outcome,omitempty"`
	Ops     []string `yaml:"ops,omitempty"`
	Count   int      `yaml:"count,omitempty"`

	// Table is file, item or summary (final_state).
	Table string `yaml:"table,omitempty"`

	// Expect contains expected JSON field values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Step operations.
const (
	OpRegister   = "register"
	OpIngest     = "ingest"
	OpValidate   = "validate"
	OpConfirm    = "confirm"
	OpEdit       = "edit"
	OpManualFile = "manual_file"
	OpManualItem = "manual_item"
	OpSnapshot   = "snapshot"
)

// State tables for final_state.
const (
	TableFile    = "file"
	TableItem    = "item"
	TableSummary = "summary"
)

var snapshotSlots = map[string]bool{"material": true, "part": true, "labor": true, "logistics": true}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// DiscoverScenarios returns the scenario files (*.yaml) in dir, sorted.
func DiscoverScenarios(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// validateScenario checks that required fields are present and that every
// reference resolves to something defined earlier.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	aliases := make(map[string]bool)
	for i, step := range s.Flow {
		if err := validateStep(s, step, aliases); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.As != "" {
			if aliases[step.As] {
				return fmt.Errorf("flow[%d]: alias %q already defined", i, step.As)
			}
			aliases[step.As] = true
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(s *Scenario, step Step, aliases map[string]bool) error {
	if s.Project == "" && step.Project == "" {
		return fmt.Errorf("project is required (scenario or step)")
	}
	needFile := func() error {
		if step.File == "" {
			return fmt.Errorf("%s: file is required", step.Op)
		}
		if !aliases[step.File] {
			return fmt.Errorf("%s: unknown file alias %q", step.Op, step.File)
		}
		return nil
	}
	needSheet := func(required bool) error {
		if step.Sheet == "" {
			if required {
				return fmt.Errorf("%s: sheet is required", step.Op)
			}
			return nil
		}
		if _, ok := s.Sheets[step.Sheet]; !ok {
			return fmt.Errorf("%s: unknown sheet %q", step.Op, step.Sheet)
		}
		return nil
	}
	needItem := func() error {
		alias, _, err := splitItemRef(step.Item)
		if err != nil {
			return fmt.Errorf("%s: %w", step.Op, err)
		}
		if !aliases[alias] {
			return fmt.Errorf("%s: unknown file alias %q", step.Op, alias)
		}
		return nil
	}

	switch step.Op {
	case OpRegister:
		if step.As == "" || step.Kind == "" {
			return fmt.Errorf("register: as and kind are required")
		}
		return needSheet(false)
	case OpIngest:
		if err := needFile(); err != nil {
			return err
		}
		return needSheet(true)
	case OpValidate, OpManualItem:
		return needFile()
	case OpConfirm:
		return needItem()
	case OpEdit:
		if len(step.Set) == 0 {
			return fmt.Errorf("edit: set is required")
		}
		return needItem()
	case OpManualFile:
		if step.As == "" {
			return fmt.Errorf("manual_file: as is required")
		}
	case OpSnapshot:
		for slot, alias := range step.Files {
			if !snapshotSlots[slot] {
				return fmt.Errorf("snapshot: unknown slot %q", slot)
			}
			if !aliases[alias] {
				return fmt.Errorf("snapshot: unknown file alias %q", alias)
			}
		}
		if !step.Latest && len(step.Files) == 0 {
			return fmt.Errorf("snapshot: files or latest is required")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		switch a.Table {
		case TableFile, TableItem, TableSummary:
		default:
			return fmt.Errorf("assertions[%d]: table must be file, item or summary for final_state", index)
		}
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// splitItemRef parses "<file alias>#<row>".
func splitItemRef(ref string) (string, int, error) {
	alias, rowText, ok := strings.Cut(ref, "#")
	if !ok || alias == "" {
		return "", 0, fmt.Errorf("item ref %q: want <file alias>#<row>", ref)
	}
	row, err := strconv.Atoi(rowText)
	if err != nil || row < 1 {
		return "", 0, fmt.Errorf("item ref %q: row must be a positive number", ref)
	}
	return alias, row, nil
}
