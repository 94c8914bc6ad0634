package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/snapshot_lifecycle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "snapshot_lifecycle", s.Name)
	assert.Equal(t, "p1", s.Project)
	assert.Equal(t, "alice", s.Operator)
	assert.Len(t, s.Sheets, 5)
	assert.Equal(t, []string{"nut", "", "3", "12"}, s.Sheets["part_warn"].Rows[1])

	require.NotEmpty(t, s.Flow)
	first := s.Flow[0]
	assert.Equal(t, OpRegister, first.Op)
	assert.Equal(t, "mat", first.As)
	require.NotNil(t, first.Expect)
	assert.Equal(t, "ok", first.Expect.Status)

	snap := s.Flow[4]
	assert.Equal(t, map[string]string{"material": "mat", "part": "prt", "labor": "lab", "logistics": "log"}, snap.Files)
	assert.Equal(t, "FILE_NOT_VALIDATED", snap.Expect.Failure)
	assert.True(t, s.Flow[len(s.Flow)-1].Latest)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: typo
description: misspelled key
project: p1
flow:
  - op: manual_file
    as: man
assertion:
  - type: trace_count
    op: manual_file
    count: 1
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	const head = "name: n\ndescription: d\nproject: p1\n"
	const tail = "assertions:\n  - {type: trace_count, op: register, count: 1}\n"

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no name", "description: d\nproject: p1\nflow: [{op: manual_file, as: m}]\n" + tail, "name is required"},
		{"no description", "name: n\nproject: p1\nflow: [{op: manual_file, as: m}]\n" + tail, "description is required"},
		{"no flow", head + tail, "flow list is required"},
		{"no assertions", head + "flow: [{op: manual_file, as: m}]\n", "assertions list is required"},
		{"no project", "name: n\ndescription: d\nflow: [{op: manual_file, as: m}]\n" + tail, "project is required"},
		{"unknown op", head + "flow: [{op: delete, as: m}]\n" + tail, `unknown op "delete"`},
		{"missing op", head + "flow: [{as: m}]\n" + tail, "op is required"},
		{"register without kind", head + "flow: [{op: register, as: m}]\n" + tail, "as and kind are required"},
		{"unknown sheet", head + "flow: [{op: register, as: m, kind: part, sheet: nope}]\n" + tail, `unknown sheet "nope"`},
		{"unknown file alias", head + "flow: [{op: validate, file: m}]\n" + tail, `unknown file alias "m"`},
		{"duplicate alias", head + "flow: [{op: manual_file, as: m}, {op: manual_file, as: m}]\n" + tail, `alias "m" already defined`},
		{"bad item ref", head + "flow: [{op: manual_file, as: m}, {op: confirm, item: m}]\n" + tail, "want <file alias>#<row>"},
		{"zero row", head + "flow: [{op: manual_file, as: m}, {op: confirm, item: 'm#0'}]\n" + tail, "row must be a positive number"},
		{"edit without set", head + "flow: [{op: manual_file, as: m}, {op: edit, item: 'm#1'}]\n" + tail, "edit: set is required"},
		{"ingest without sheet", head + "flow: [{op: manual_file, as: m}, {op: ingest, file: m}]\n" + tail, "ingest: sheet is required"},
		{"snapshot without files", head + "flow: [{op: snapshot}]\n" + tail, "files or latest is required"},
		{"snapshot bad slot", head + "flow: [{op: manual_file, as: m}, {op: snapshot, files: {freight: m}}]\n" + tail, `unknown slot "freight"`},
		{"unknown assertion", head + "flow: [{op: manual_file, as: m}]\nassertions: [{type: trace_sum}]\n", `unknown assertion type "trace_sum"`},
		{"final_state bad table", head + "flow: [{op: manual_file, as: m}]\nassertions: [{type: final_state, table: rows, ref: m, expect: {a: 1}}]\n", "table must be file, item or summary"},
		{"final_state no expect", head + "flow: [{op: manual_file, as: m}]\nassertions: [{type: final_state, table: file, ref: m}]\n", "expect is required"},
		{"trace_order no ops", head + "flow: [{op: manual_file, as: m}]\nassertions: [{type: trace_order}]\n", "ops list is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDiscoverScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yaml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	paths, err := DiscoverScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml")}, paths)
}
