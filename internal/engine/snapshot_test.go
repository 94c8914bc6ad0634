package engine

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/costcore/internal/model"
)

func TestGenerateSnapshot_Totals(t *testing.T) {
	fx := newFixture(t)
	req := fx.readyRequest(t, testProject)

	s, err := fx.eng.GenerateSnapshot(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), s.CalculationVersion)
	assert.Equal(t, model.SummaryActive, s.Status)
	assert.Equal(t, "130", s.MaterialCost.String())
	assert.Equal(t, "60", s.PartCost.String())
	assert.Equal(t, "1050", s.LaborCost.String())
	assert.Equal(t, "300", s.LogisticsCost.String())
	assert.Equal(t, "1540", s.TotalCost.String())
	assert.Equal(t, req.PartFileID, s.PartFile.ID)
	assert.Equal(t, int64(1), s.PartFile.Version)
	assert.Equal(t, testOperator, s.OperatorID)

	for _, id := range s.FileIDs() {
		assert.True(t, fx.file(t, id).Locked, "file %s", id)
	}

	stored, err := fx.store.GetSummary(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, s.TotalCost.Equal(stored.TotalCost))

	entries := fx.entityAudit(t, model.EntityCostSummary, s.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionCreate, entries[0].Action)
	assert.Equal(t, testOperator, entries[0].OperatorID)
}

func TestGenerateSnapshot_ExactDecimalSum(t *testing.T) {
	fx := newFixture(t)
	req := fx.readyRequest(t, testProject)

	// Replace the logistics file with one whose float sum would drift.
	f, rep := fx.load(t, testProject, model.FileLogistics, sheet(logisticsHeader,
		[]string{"运输", "truck", "0.1"},
		[]string{"安装", "crane", "0.2"},
	))
	require.Equal(t, model.ValidationOK, rep.FileStatus)
	req.LogisticsFileID = f.ID

	s, err := fx.eng.GenerateSnapshot(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0.3", s.LogisticsCost.String())
	assert.Equal(t, "1240.3", s.TotalCost.String())
}

func TestGenerateSnapshot_ExcludesNonCalculable(t *testing.T) {
	fx := newFixture(t)
	req := fx.readyRequest(t, testProject)

	f, rep := fx.load(t, testProject, model.FilePart, sheet(partHeader,
		[]string{"bolt", "10", "5", "50"},
		[]string{"washer", "10", "", ""},
	))
	require.Equal(t, model.ValidationOK, rep.FileStatus)
	req.PartFileID = f.ID

	s, err := fx.eng.GenerateSnapshot(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "50", s.PartCost.String())
	assert.Equal(t, int64(2), s.PartFile.Version)
}

func TestGenerateSnapshot_ManualLogistics(t *testing.T) {
	fx := newFixture(t)
	req := fx.readyRequest(t, testProject)

	ctx := context.Background()
	mf, err := fx.eng.CreateManualFile(ctx, testProject, testOperator)
	require.NoError(t, err)
	_, err = fx.eng.AddManualItem(ctx, mf.ID, ManualItem{
		LogisticsType: model.LogisticsInstallation,
		Description:   "crane rental",
		Subtotal:      dec("75.5"),
	}, testOperator)
	require.NoError(t, err)
	req.LogisticsFileID = mf.ID

	s, err := fx.eng.GenerateSnapshot(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "75.5", s.LogisticsCost.String())
	assert.True(t, fx.file(t, mf.ID).Locked)
}

func TestGenerateSnapshot_VersionsAndReplacement(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	var summaries []*model.CostSummary
	for i := 0; i < 3; i++ {
		s, err := fx.eng.GenerateSnapshot(ctx, fx.readyRequest(t, testProject))
		require.NoError(t, err)
		summaries = append(summaries, s)
	}

	for i, s := range summaries {
		assert.Equal(t, int64(i+1), s.CalculationVersion)
	}

	all, err := fx.store.ListSummaries(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, all, 3)

	byID := make(map[string]model.CostSummary)
	for _, s := range all {
		byID[s.ID] = s
	}
	for i := 0; i < 2; i++ {
		old := byID[summaries[i].ID]
		assert.Equal(t, model.SummaryReplaced, old.Status)
		assert.Equal(t, summaries[i+1].ID, old.ReplacesID)
		require.NotNil(t, old.InvalidatedAt)
	}
	latest := byID[summaries[2].ID]
	assert.Equal(t, model.SummaryActive, latest.Status)
	assert.Nil(t, latest.InvalidatedAt)

	active, err := fx.store.ActiveSummaries(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, summaries[2].ID, active[0].ID)

	var fields []string
	for _, e := range fx.entityAudit(t, model.EntityCostSummary, summaries[0].ID) {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"*", "status", "replaces_id"}, fields)
}

func TestGenerateSnapshot_ProjectsAreIndependent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	a, err := fx.eng.GenerateSnapshot(ctx, fx.readyRequest(t, "proj-a"))
	require.NoError(t, err)
	b, err := fx.eng.GenerateSnapshot(ctx, fx.readyRequest(t, "proj-b"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.CalculationVersion)
	assert.Equal(t, int64(1), b.CalculationVersion)

	stored, err := fx.store.GetSummary(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SummaryActive, stored.Status)
}

func TestGenerateSnapshot_LockedPartFile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first := fx.readyRequest(t, testProject)
	_, err := fx.eng.GenerateSnapshot(ctx, first)
	require.NoError(t, err)

	second := fx.readyRequest(t, testProject)
	second.PartFileID = first.PartFileID
	before := fx.auditCount(t, testProject)

	_, err = fx.eng.GenerateSnapshot(ctx, second)
	requireFailure(t, err, KindIrreversibleConflict, CodeFileLocked)

	all, err := fx.store.ListSummaries(ctx, testProject)
	require.NoError(t, err)
	assert.Len(t, all, 1, "no summary may be created")
	assert.Equal(t, model.SummaryActive, all[0].Status)

	// Nothing of the failed attempt persisted.
	assert.False(t, fx.file(t, second.MaterialFileID).Locked)
	assert.False(t, fx.file(t, second.LaborFileID).Locked)
	assert.Equal(t, before, fx.auditCount(t, testProject))
}

func TestGenerateSnapshot_Eligibility(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, fx *fixture, req *SnapshotRequest)
		kind  FailureKind
		code  FailureCode
	}{
		{
			name: "missing operator",
			setup: func(_ *testing.T, _ *fixture, req *SnapshotRequest) {
				req.OperatorID = ""
			},
			kind: KindInput,
			code: CodeInvalidRequest,
		},
		{
			name: "missing slot",
			setup: func(_ *testing.T, _ *fixture, req *SnapshotRequest) {
				req.LaborFileID = ""
			},
			kind: KindInput,
			code: CodeInvalidRequest,
		},
		{
			name: "unknown file",
			setup: func(_ *testing.T, _ *fixture, req *SnapshotRequest) {
				req.LaborFileID = "nope"
			},
			kind: KindInput,
			code: CodeFileNotFound,
		},
		{
			name: "other project",
			setup: func(t *testing.T, fx *fixture, req *SnapshotRequest) {
				f, _ := fx.load(t, "proj-other", model.FileLabor, okSheets()[model.FileLabor])
				req.LaborFileID = f.ID
			},
			kind: KindInput,
			code: CodeFileProjectMismatch,
		},
		{
			name: "wrong kind in slot",
			setup: func(_ *testing.T, _ *fixture, req *SnapshotRequest) {
				req.MaterialFileID = req.PartFileID
			},
			kind: KindInput,
			code: CodeFileKindMismatch,
		},
		{
			name: "not parsed",
			setup: func(t *testing.T, fx *fixture, req *SnapshotRequest) {
				req.PartFileID = fx.register(t, testProject, model.FilePart).ID
			},
			kind: KindBusinessRule,
			code: CodeFileNotParsed,
		},
		{
			name: "blocked file",
			setup: func(t *testing.T, fx *fixture, req *SnapshotRequest) {
				f, _ := fx.load(t, testProject, model.FilePart, sheet(partHeader,
					[]string{"bolt", "10", "5", "70"},
				))
				req.PartFileID = f.ID
			},
			kind: KindBusinessRule,
			code: CodeFileNotValidated,
		},
		{
			name: "warning file",
			setup: func(t *testing.T, fx *fixture, req *SnapshotRequest) {
				f, _ := fx.load(t, testProject, model.FilePart, sheet(partHeader,
					[]string{"bolt", "", "5", "70"},
				))
				req.PartFileID = f.ID
			},
			kind: KindBusinessRule,
			code: CodeFileNotValidated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			req := fx.readyRequest(t, testProject)
			tt.setup(t, fx, &req)

			_, err := fx.eng.GenerateSnapshot(context.Background(), req)
			requireFailure(t, err, tt.kind, tt.code)

			all, err := fx.store.ListSummaries(context.Background(), testProject)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.False(t, fx.file(t, req.LogisticsFileID).Locked)
		})
	}
}

func TestGenerateSnapshot_ConcurrentCallsSerialize(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	const n = 4
	reqs := make([]SnapshotRequest, n)
	for i := range reqs {
		reqs[i] = fx.readyRequest(t, testProject)
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.eng.GenerateSnapshot(ctx, reqs[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	all, err := fx.store.ListSummaries(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, all, n)

	versions := make([]int, 0, n)
	active := 0
	for _, s := range all {
		versions = append(versions, int(s.CalculationVersion))
		if s.Status == model.SummaryActive {
			active++
		}
	}
	sort.Ints(versions)
	assert.Equal(t, []int{1, 2, 3, 4}, versions)
	assert.Equal(t, 1, active)
}

func TestGenerateSnapshot_LockIsPermanent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	req := fx.readyRequest(t, testProject)
	_, err := fx.eng.GenerateSnapshot(ctx, req)
	require.NoError(t, err)

	items := fx.items(t, req.PartFileID)
	_ = fx.eng.EditItem(ctx, "part", items[0].ID, map[string]string{"subtotal": "1"}, testOperator)
	_ = fx.eng.ConfirmItem(ctx, "part", items[0].ID, testOperator)
	_, _ = fx.eng.ValidateFile(ctx, req.PartFileID)
	_, _ = fx.eng.Ingest(ctx, req.PartFileID, okSheets()[model.FilePart], testOperator)
	_, _ = fx.eng.GenerateSnapshot(ctx, req)

	assert.True(t, fx.file(t, req.PartFileID).Locked)
	assert.Equal(t, items, fx.items(t, req.PartFileID))
}
