package engine

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/rules"
	"github.com/roach88/costcore/internal/store"
)

// Report is the outcome of validating one file.
type Report struct {
	FileID       string                  `json:"file_id"`
	FileKind     model.FileKind          `json:"file_kind"`
	FileStatus   model.ValidationStatus  `json:"file_status"`
	Total        int                     `json:"total"`
	OK           int                     `json:"ok_count"`
	Warning      int                     `json:"warning_count"`
	Confirmed    int                     `json:"confirmed_count"`
	Blocked      int                     `json:"blocked_count"`
	BlockedItems []string                `json:"blocked_items"`
	WarningItems []string                `json:"warning_items"`
	Items        map[string]rules.Result `json:"items"`
}

func newReport(f model.FileRecord) *Report {
	return &Report{
		FileID:       f.ID,
		FileKind:     f.Kind,
		FileStatus:   f.ValidationStatus,
		BlockedItems: []string{},
		WarningItems: []string{},
		Items:        map[string]rules.Result{},
	}
}

func (r *Report) add(res rules.Result) {
	r.Total++
	r.Items[res.ItemID] = res
	switch res.Status {
	case model.StatusOK:
		r.OK++
	case model.StatusWarning:
		r.Warning++
		r.WarningItems = append(r.WarningItems, res.ItemID)
	case model.StatusConfirmed:
		r.Confirmed++
	case model.StatusBlocked:
		r.Blocked++
		r.BlockedItems = append(r.BlockedItems, res.ItemID)
	}
}

// ValidateFile recomputes the status of every item of a file and the
// file's aggregate validation status.
//
// Only changed statuses are written, each with a system audit entry, so a
// second run over unchanged data writes nothing. Plan files have no items
// and yield an empty report.
//
// Returns a Failure if the file does not exist, is not parsed, or is locked.
func (e *Engine) ValidateFile(ctx context.Context, fileID string) (*Report, error) {
	start := time.Now()
	var rep *Report
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		f, err := loadFile(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if f.Kind.IsPlan() {
			rep = newReport(f)
			return nil
		}
		if f.ParseStatus != model.ParseParsed {
			return businessFailure(CodeFileNotParsed, map[string]string{"file_id": f.ID},
				"file %s is %s, not parsed", f.ID, f.ParseStatus)
		}
		if f.Locked {
			return fileLocked(f.ID)
		}
		rep, err = e.validateFileTx(ctx, tx, f)
		return err
	})
	if err != nil {
		return nil, e.failed("validate", err, zap.String("file_id", fileID))
	}
	e.observeReport(rep, time.Since(start))
	return rep, nil
}

// validateFileTx validates f inside an open transaction. The caller has
// checked that f is parsed and unlocked.
func (e *Engine) validateFileTx(ctx context.Context, tx *store.Tx, f model.FileRecord) (*Report, error) {
	rep := newReport(f)
	kind, ok := f.Kind.ItemKind()
	if !ok {
		return rep, nil
	}

	items, err := tx.ListItems(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*model.Item, len(items))
	before := make([]model.Item, len(items))
	for i := range items {
		before[i] = items[i]
		ptrs[i] = &items[i]
	}

	var results []rules.Result
	if kind == model.ItemPart {
		results = e.validator.ValidateParts(ptrs)
	} else {
		results = make([]rules.Result, len(ptrs))
		for i, it := range ptrs {
			results[i] = e.validator.Validate(it)
		}
	}

	now := e.clock.Now()
	statuses := make([]model.ItemStatus, len(items))
	for i, it := range ptrs {
		res := results[i]
		statuses[i] = res.Status
		rep.add(res)

		old := before[i]
		if res.Status == old.Status && it.Calculable == old.Calculable {
			continue
		}
		if err := tx.SetItemStatus(ctx, it.ID, res.Status, it.Calculable, now); err != nil {
			return nil, err
		}
		et := kind.EntityType()
		if res.Status != old.Status {
			if err := audit(ctx, tx, model.SystemEntry(f.ProjectID, et, it.ID, "status",
				string(old.Status), string(res.Status), now)); err != nil {
				return nil, err
			}
		}
		if it.Calculable != old.Calculable {
			if err := audit(ctx, tx, model.SystemEntry(f.ProjectID, et, it.ID, "is_calculable",
				strconv.FormatBool(old.Calculable), strconv.FormatBool(it.Calculable), now)); err != nil {
				return nil, err
			}
		}
	}

	agg := model.AggregateStatus(statuses)
	if agg != f.ValidationStatus {
		if err := tx.SetValidationStatus(ctx, f.ID, agg, now); err != nil {
			return nil, err
		}
		if err := audit(ctx, tx, model.SystemEntry(f.ProjectID, model.EntityFileRecord, f.ID,
			"validation_status", string(f.ValidationStatus), string(agg), now)); err != nil {
			return nil, err
		}
	}
	rep.FileStatus = agg
	return rep, nil
}

// observeReport logs and counts a committed validation run.
func (e *Engine) observeReport(rep *Report, d time.Duration) {
	e.logger.Info("file validated",
		zap.String("file_id", rep.FileID),
		zap.String("kind", string(rep.FileKind)),
		zap.String("status", string(rep.FileStatus)),
		zap.Int("total", rep.Total),
		zap.Int("blocked", rep.Blocked),
		zap.Int("warning", rep.Warning),
		zap.Duration("duration", d),
	)
	e.metrics.RecordValidation(string(rep.FileKind), string(rep.FileStatus), d)
	for _, res := range rep.Items {
		e.metrics.RecordItem(string(rep.FileKind), string(res.Status))
	}
}
