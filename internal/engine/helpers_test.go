package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/costcore/internal/ingest"
	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
	"github.com/roach88/costcore/internal/testutil"
)

const (
	testProject  = "proj-1"
	testOperator = "alice"
)

type fixture struct {
	eng   *Engine
	store *store.Store
	clock *testutil.DeterministicClock
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "costcore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewDeterministicClock()
	base := []EngineOption{
		WithClock(clock),
		WithIDGenerator(testutil.NewSequenceGenerator("id")),
	}
	return &fixture{
		eng:   New(s, append(base, opts...)...),
		store: s,
		clock: clock,
	}
}

func sheet(header []string, rows ...[]string) *ingest.Sheet {
	return &ingest.Sheet{Header: header, Rows: rows}
}

var (
	materialHeader  = []string{"name", "weight_kg", "unit_price", "subtotal"}
	partHeader      = []string{"name", "quantity", "unit_price", "subtotal"}
	laborHeader     = []string{"group", "quantity", "unit", "unit_price", "ton_bonus", "extra_subsidy", "subtotal"}
	logisticsHeader = []string{"type", "description", "subtotal"}
)

// Sheets whose items all validate ok. Totals: material 130, part 60,
// labor 1050, logistics 300.
func okSheets() map[model.FileKind]*ingest.Sheet {
	return map[model.FileKind]*ingest.Sheet{
		model.FileMaterial: sheet(materialHeader,
			[]string{"steel plate", "1000", "50", "50"},
			[]string{"angle", "2000", "40", "80"},
		),
		model.FilePart: sheet(partHeader,
			[]string{"bolt", "10", "5", "50"},
			[]string{"nut", "4", "2.5", "10"},
		),
		model.FileLabor: sheet(laborHeader,
			[]string{"welding team", "10", "t", "100", "20", "30", "1050"},
		),
		model.FileLogistics: sheet(logisticsHeader,
			[]string{"运输", "truck", "300"},
		),
	}
}

func (fx *fixture) register(t *testing.T, project string, kind model.FileKind) model.FileRecord {
	t.Helper()
	f, err := fx.eng.RegisterFile(context.Background(), RegisterRequest{
		ProjectID:    project,
		Kind:         kind,
		OriginalName: string(kind) + ".yaml",
		Content:      []byte(string(kind) + " content"),
		OperatorID:   testOperator,
	})
	require.NoError(t, err)
	return *f
}

// load registers a file of kind and ingests s into it.
func (fx *fixture) load(t *testing.T, project string, kind model.FileKind, s *ingest.Sheet) (model.FileRecord, *Report) {
	t.Helper()
	f := fx.register(t, project, kind)
	rep, err := fx.eng.Ingest(context.Background(), f.ID, s, testOperator)
	require.NoError(t, err)
	return fx.file(t, f.ID), rep
}

// readyRequest loads one usable file per slot and returns the snapshot request over them.
func (fx *fixture) readyRequest(t *testing.T, project string) SnapshotRequest {
	t.Helper()
	sheets := okSheets()
	ids := make(map[model.FileKind]string)
	for _, k := range []model.FileKind{model.FileMaterial, model.FilePart, model.FileLabor, model.FileLogistics} {
		f, rep := fx.load(t, project, k, sheets[k])
		require.Equal(t, model.ValidationOK, rep.FileStatus, "file %s", k)
		ids[k] = f.ID
	}
	return SnapshotRequest{
		ProjectID:       project,
		MaterialFileID:  ids[model.FileMaterial],
		PartFileID:      ids[model.FilePart],
		LaborFileID:     ids[model.FileLabor],
		LogisticsFileID: ids[model.FileLogistics],
		OperatorID:      testOperator,
	}
}

func (fx *fixture) file(t *testing.T, id string) model.FileRecord {
	t.Helper()
	f, err := fx.store.GetFile(context.Background(), id)
	require.NoError(t, err)
	return f
}

func (fx *fixture) items(t *testing.T, fileID string) []model.Item {
	t.Helper()
	items, err := fx.store.ListItems(context.Background(), fileID)
	require.NoError(t, err)
	return items
}

func (fx *fixture) auditCount(t *testing.T, project string) int64 {
	t.Helper()
	n, err := fx.store.CountAudit(context.Background(), project)
	require.NoError(t, err)
	return n
}

func (fx *fixture) entityAudit(t *testing.T, et model.EntityType, id string) []model.AuditEntry {
	t.Helper()
	entries, err := fx.store.ListAudit(context.Background(), store.AuditFilter{EntityType: et, EntityID: id})
	require.NoError(t, err)
	return entries
}

// requireFailure asserts err is a Failure of the given kind and code.
func requireFailure(t *testing.T, err error, kind FailureKind, code FailureCode) {
	t.Helper()
	require.Error(t, err)
	f, ok := AsFailure(err)
	require.True(t, ok, "expected Failure, got %v", err)
	require.Equal(t, code, f.Code, f.Message)
	require.Equal(t, kind, f.Kind)
}

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
