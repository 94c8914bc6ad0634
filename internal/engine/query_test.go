package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/costcore/internal/model"
)

func TestGetFile(t *testing.T) {
	fx := newFixture(t)
	f := fx.register(t, testProject, model.FilePart)

	got, err := fx.eng.GetFile(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, *got)

	_, err = fx.eng.GetFile(context.Background(), "missing")
	requireFailure(t, err, KindInput, CodeFileNotFound)
}

func TestFileItems(t *testing.T) {
	fx := newFixture(t)
	f, _ := fx.load(t, testProject, model.FilePart, okSheets()[model.FilePart])

	items, err := fx.eng.FileItems(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = fx.eng.FileItems(context.Background(), "missing")
	requireFailure(t, err, KindInput, CodeFileNotFound)
}

func TestLatestSnapshotRequest(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	want := fx.readyRequest(t, testProject)

	// A newer part file that does not validate is skipped.
	fx.load(t, testProject, model.FilePart, sheet(partHeader, []string{"bolt", "10", "5", "70"}))

	got, err := fx.eng.LatestSnapshotRequest(ctx, SnapshotRequest{ProjectID: testProject, OperatorID: testOperator})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	explicit := fx.register(t, testProject, model.FileMaterial)
	got, err = fx.eng.LatestSnapshotRequest(ctx, SnapshotRequest{
		ProjectID:      testProject,
		MaterialFileID: explicit.ID,
		OperatorID:     testOperator,
	})
	require.NoError(t, err)
	assert.Equal(t, explicit.ID, got.MaterialFileID, "set slots are kept")
	assert.Equal(t, want.PartFileID, got.PartFileID)
}

func TestLatestSnapshotRequest_ManualFallback(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	mf, err := fx.eng.CreateManualFile(ctx, testProject, testOperator)
	require.NoError(t, err)

	got, err := fx.eng.LatestSnapshotRequest(ctx, SnapshotRequest{ProjectID: testProject})
	require.NoError(t, err)
	assert.Equal(t, mf.ID, got.LogisticsFileID)
	assert.Empty(t, got.MaterialFileID)

	_, err = fx.eng.GenerateSnapshot(ctx, got)
	requireFailure(t, err, KindInput, CodeInvalidRequest)

	_, err = fx.eng.LatestSnapshotRequest(ctx, SnapshotRequest{})
	requireFailure(t, err, KindInput, CodeInvalidRequest)
}

func TestLatestSnapshotRequest_SkipsLockedFiles(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	req := fx.readyRequest(t, testProject)
	_, err := fx.eng.GenerateSnapshot(ctx, req)
	require.NoError(t, err)

	got, err := fx.eng.LatestSnapshotRequest(ctx, SnapshotRequest{ProjectID: testProject, OperatorID: testOperator})
	require.NoError(t, err)
	assert.Empty(t, got.MaterialFileID)
	assert.Empty(t, got.LogisticsFileID)
}
