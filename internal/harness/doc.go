// Package harness runs end-to-end cost scenarios against the engine.
//
// A scenario is a YAML file naming inline sheets, a flow of engine
// operations and assertions over the resulting trace and stored state:
//
//	name: snapshot_lifecycle
//	description: "Confirming the last warning row unblocks the snapshot"
//	project: p1
//	sheets:
//	  material:
//	    header: [name, weight_kg, unit_price, subtotal]
//	    rows:
//	      - [steel plate, "1000", "50", "50"]
//	flow:
//	  - op: register
//	    as: mat
//	    kind: material
//	    sheet: material
//	    expect: { status: ok }
//	  - op: confirm
//	    item: prt#2
//	  - op: snapshot
//	    as: s1
//	    files: { material: mat, part: prt, labor: lab, logistics: log }
//	    expect: { failure: FILE_NOT_VALIDATED }
//	assertions:
//	  - type: trace_count
//	    op: snapshot
//	    outcome: ok
//	    count: 1
//	  - type: final_state
//	    table: file
//	    ref: mat
//	    expect: { locked: true }
//
// Files and snapshots are referenced by the alias given in "as"; items by
// "<file alias>#<row number>".
//
// # Operations
//
//   - register: register a file of kind; with sheet, also ingest it
//   - ingest: ingest sheet into file
//   - validate: re-validate file
//   - confirm, edit: act on item (edit takes a "set" map)
//   - manual_file: create a manual logistics file
//   - manual_item: add a row to file (type, description, subtotal)
//   - snapshot: freeze files (slot to alias), or the newest usable files with latest
//
// # Assertion Types
//
//   - trace_contains: an op (optionally with ref and outcome) appears in the trace
//   - trace_order: ops first appear in the given order
//   - trace_count: an op (optionally with outcome) appears exactly N times
//   - final_state: a stored file, item or summary has the expected JSON fields
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory database, a testutil.DeterministicClock
// and sequential ids, so the rendered trace is stable and can be compared
// against a golden file with RunWithGolden.
package harness
