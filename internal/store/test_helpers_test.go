package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/costcore/internal/model"
)

var testTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testFile creates a pending file record with minimal required fields.
func testFile(id, projectID string, kind model.FileKind, version int64) model.FileRecord {
	return model.FileRecord{
		ID:               id,
		ProjectID:        projectID,
		Kind:             kind,
		OriginalName:     string(kind) + ".yaml",
		UploaderID:       "u1",
		FileHash:         "hash-" + id,
		Version:          version,
		ParseStatus:      model.ParsePending,
		ValidationStatus: model.ValidationPending,
		CreatedAt:        testTime,
		UpdatedAt:        testTime,
	}
}

// usableFile creates a parsed, ok, unlocked file record.
func usableFile(id, projectID string, kind model.FileKind, version int64) model.FileRecord {
	f := testFile(id, projectID, kind, version)
	f.ParseStatus = model.ParseParsed
	f.ValidationStatus = model.ValidationOK
	return f
}

// testItem creates a part item belonging to fileID.
func testItem(id, fileID string, row int) model.Item {
	return model.Item{
		ID:           id,
		Kind:         model.ItemPart,
		ProjectID:    "p1",
		SourceFileID: fileID,
		RowNo:        row,
		Status:       model.StatusWarning,
		Calculable:   true,
		RawName:      "bolt",
		Quantity:     decimal.NewNullDecimal(decimal.RequireFromString("4")),
		UnitPrice:    decimal.NewNullDecimal(decimal.RequireFromString("2.50")),
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
}

// testSummary creates an active summary over four file ids.
func testSummary(id, projectID string, version int64, files [4]string) model.CostSummary {
	return model.CostSummary{
		ID:                 id,
		ProjectID:          projectID,
		CalculationVersion: version,
		Status:             model.SummaryActive,
		MaterialCost:       decimal.RequireFromString("10.5"),
		PartCost:           decimal.RequireFromString("20"),
		LaborCost:          decimal.Zero,
		LogisticsCost:      decimal.RequireFromString("0.25"),
		TotalCost:          decimal.RequireFromString("30.75"),
		MaterialFile:       model.FileRef{ID: files[0], Version: 1},
		PartFile:           model.FileRef{ID: files[1], Version: 1},
		LaborFile:          model.FileRef{ID: files[2], Version: 1},
		LogisticsFile:      model.FileRef{ID: files[3], Version: 1},
		CalculatedAt:       testTime,
		OperatorID:         "u1",
	}
}
