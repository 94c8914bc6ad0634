package engine

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
)

// SnapshotRequest names the four source files of a cost snapshot.
type SnapshotRequest struct {
	ProjectID       string
	MaterialFileID  string
	PartFileID      string
	LaborFileID     string
	LogisticsFileID string
	OperatorID      string
}

// slot is one source position of a snapshot and the file kinds it accepts.
type slot struct {
	name   string
	fileID string
	kinds  []model.FileKind
}

func (r SnapshotRequest) slots() []slot {
	return []slot{
		{"material", r.MaterialFileID, []model.FileKind{model.FileMaterial}},
		{"part", r.PartFileID, []model.FileKind{model.FilePart}},
		{"labor", r.LaborFileID, []model.FileKind{model.FileLabor}},
		{"logistics", r.LogisticsFileID, []model.FileKind{model.FileLogistics, model.FileManual}},
	}
}

func (r SnapshotRequest) check() error {
	if r.ProjectID == "" {
		return inputFailure(CodeInvalidRequest, nil, "project id is required")
	}
	if r.OperatorID == "" {
		return inputFailure(CodeInvalidRequest, nil, "operator id is required")
	}
	for _, s := range r.slots() {
		if s.fileID == "" {
			return inputFailure(CodeInvalidRequest, map[string]string{"slot": s.name},
				"%s file id is required", s.name)
		}
	}
	return nil
}

// GenerateSnapshot freezes the four files into a new active CostSummary.
//
// In one transaction it checks every file, sums the calculable subtotals,
// replaces the project's previous active summary, locks the four files and
// inserts the new summary. Either all of it commits or none of it does.
func (e *Engine) GenerateSnapshot(ctx context.Context, req SnapshotRequest) (*model.CostSummary, error) {
	if err := req.check(); err != nil {
		return nil, e.failed("snapshot", err, zap.String("project_id", req.ProjectID))
	}

	lock := e.projectLock(req.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	var summary model.CostSummary
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		slots := req.slots()
		files := make([]model.FileRecord, len(slots))
		costs := make([]decimal.Decimal, len(slots))
		for i, s := range slots {
			f, err := eligibleFile(ctx, tx, req.ProjectID, s)
			if err != nil {
				return err
			}
			sum, err := sumCalculable(ctx, tx, f.ID)
			if err != nil {
				return err
			}
			files[i], costs[i] = f, sum
		}

		maxVersion, err := tx.MaxCalculationVersion(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		active, err := tx.ActiveSummaries(ctx, req.ProjectID)
		if err != nil {
			return err
		}

		now := e.clock.Now()
		summary = model.CostSummary{
			ID:                 e.ids.Generate(),
			ProjectID:          req.ProjectID,
			CalculationVersion: maxVersion + 1,
			Status:             model.SummaryActive,
			MaterialCost:       costs[0],
			PartCost:           costs[1],
			LaborCost:          costs[2],
			LogisticsCost:      costs[3],
			TotalCost:          costs[0].Add(costs[1]).Add(costs[2]).Add(costs[3]),
			MaterialFile:       model.FileRef{ID: files[0].ID, Version: files[0].Version},
			PartFile:           model.FileRef{ID: files[1].ID, Version: files[1].Version},
			LaborFile:          model.FileRef{ID: files[2].ID, Version: files[2].Version},
			LogisticsFile:      model.FileRef{ID: files[3].ID, Version: files[3].Version},
			CalculatedAt:       now,
			OperatorID:         req.OperatorID,
		}

		// The old summary leaves the active set before the new one enters it.
		for _, old := range active {
			if err := tx.ReplaceSummary(ctx, old.ID, summary.ID, now); err != nil {
				return err
			}
			if err := audit(ctx, tx,
				model.SystemEntry(req.ProjectID, model.EntityCostSummary, old.ID, "status",
					string(model.SummaryActive), string(model.SummaryReplaced), now),
				model.SystemEntry(req.ProjectID, model.EntityCostSummary, old.ID, "replaces_id",
					"", summary.ID, now),
			); err != nil {
				return err
			}
		}

		for _, f := range files {
			if err := tx.LockFile(ctx, f.ID, now); err != nil {
				return err
			}
			if err := audit(ctx, tx, model.SystemEntry(req.ProjectID, model.EntityFileRecord, f.ID,
				"locked", strconv.FormatBool(false), strconv.FormatBool(true), now)); err != nil {
				return err
			}
		}

		if err := tx.InsertSummary(ctx, summary); err != nil {
			return err
		}
		return audit(ctx, tx, model.CreateEntry(req.ProjectID, model.EntityCostSummary,
			summary.ID, req.OperatorID, now))
	})
	if err != nil {
		return nil, e.failed("snapshot", err, zap.String("project_id", req.ProjectID))
	}

	e.metrics.RecordSnapshot()
	e.logger.Info("snapshot generated",
		zap.String("project_id", summary.ProjectID),
		zap.String("summary_id", summary.ID),
		zap.Int64("version", summary.CalculationVersion),
		zap.String("total_cost", summary.TotalCost.String()),
	)
	return &summary, nil
}

// eligibleFile loads the file of s and checks it can enter a snapshot.
// The same file id cannot fill two slots since each slot takes its own kind.
func eligibleFile(ctx context.Context, tx *store.Tx, projectID string, s slot) (model.FileRecord, error) {
	f, err := loadFile(ctx, tx, s.fileID)
	if err != nil {
		return f, err
	}
	details := map[string]string{"file_id": f.ID, "slot": s.name}
	if f.ProjectID != projectID {
		return f, inputFailure(CodeFileProjectMismatch, details,
			"file %s belongs to project %s, not %s", f.ID, f.ProjectID, projectID)
	}
	if !acceptsKind(s.kinds, f.Kind) {
		return f, inputFailure(CodeFileKindMismatch, details,
			"file %s is a %s file and cannot fill the %s slot", f.ID, f.Kind, s.name)
	}
	if f.ParseStatus != model.ParseParsed {
		return f, businessFailure(CodeFileNotParsed, details,
			"file %s is %s, not parsed", f.ID, f.ParseStatus)
	}
	if f.Locked {
		return f, fileLocked(f.ID)
	}
	if f.ValidationStatus != model.ValidationOK && f.ValidationStatus != model.ValidationConfirmed {
		return f, businessFailure(CodeFileNotValidated, details,
			"file %s has validation status %s; ok or confirmed required", f.ID, f.ValidationStatus)
	}
	return f, nil
}

func acceptsKind(kinds []model.FileKind, k model.FileKind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// sumCalculable adds the subtotals of the calculable items of a file.
// A null subtotal counts as zero.
func sumCalculable(ctx context.Context, tx *store.Tx, fileID string) (decimal.Decimal, error) {
	items, err := tx.ListItems(ctx, fileID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, it := range items {
		if it.Calculable && it.Subtotal.Valid {
			sum = sum.Add(it.Subtotal.Decimal)
		}
	}
	return sum, nil
}
