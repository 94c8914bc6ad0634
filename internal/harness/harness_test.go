package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
			assert.Len(t, result.Trace, len(scenario.Flow))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/snapshot_lifecycle.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Render(scenario.Name), second.Render(scenario.Name))
}

const minimalSheets = `
sheets:
  part:
    header: [name, quantity, unit_price, subtotal]
    rows:
      - [bolt, "10", "5", "50"]
`

func TestRun_ExpectMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: mismatch
description: expectations that do not hold
project: p1
` + minimalSheets + `
flow:
  - op: register
    as: prt
    kind: part
    sheet: part
    expect: { status: warning }
  - op: validate
    file: prt
    expect: { failure: FILE_LOCKED }
  - op: register
    as: bad
    kind: manual
assertions:
  - type: trace_count
    op: register
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "step 1 (register): expected status warning")
	assert.Contains(t, result.Errors[1], "step 2 (validate): expected outcome FILE_LOCKED, got ok")
	assert.Contains(t, result.Errors[2], "step 3 (register): unexpected failure INVALID_REQUEST")

	assert.Equal(t, "INVALID_REQUEST", result.Trace[2].Outcome)
	assert.Equal(t, "input", result.Trace[2].Detail["kind"])
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failed_assertions
description: assertions that do not hold
project: p1
` + minimalSheets + `
flow:
  - op: register
    as: prt
    kind: part
    sheet: part
assertions:
  - type: trace_contains
    op: snapshot
  - type: final_state
    table: file
    ref: prt
    expect: { locked: true, kind: part }
  - type: final_state
    table: item
    ref: prt#9
    expect: { status: ok }
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: trace_contains")
	assert.Contains(t, result.Errors[1], "locked=false (want true)")
	assert.NotContains(t, result.Errors[1], "kind=")
	assert.Contains(t, result.Errors[2], "no item at row 9")
}

func TestRun_BadItemReferenceAborts(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_ref
description: an item row that does not exist
project: p1
` + minimalSheets + `
flow:
  - op: register
    as: prt
    kind: part
    sheet: part
  - op: confirm
    item: prt#5
assertions:
  - type: trace_count
    op: confirm
    count: 1
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow[1] confirm")
	assert.Contains(t, err.Error(), "no item at row 5")
}

func TestRun_StepOverrides(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: overrides
description: per-step project and operator
project: p1
` + minimalSheets + `
flow:
  - op: register
    as: a
    kind: part
    sheet: part
  - op: register
    as: b
    kind: part
    project: p2
    operator: bob
assertions:
  - type: final_state
    table: file
    ref: a
    expect: { project_id: p1, uploader_id: harness, version: 1 }
  - type: final_state
    table: file
    ref: b
    expect: { project_id: p2, uploader_id: bob, version: 1, parse_status: pending }
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, "[2] register b -> ok kind=part parse=pending status=pending version=1", result.Trace[1].String())
}
