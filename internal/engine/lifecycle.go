package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/ingest"
	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
)

// RegisterRequest describes an uploaded file.
type RegisterRequest struct {
	ProjectID    string
	Kind         model.FileKind
	OriginalName string
	Content      []byte
	OperatorID   string
}

// RegisterFile records a new version of a project's file of the given kind.
// The record starts pending and unlocked; its items arrive through Ingest.
func (e *Engine) RegisterFile(ctx context.Context, req RegisterRequest) (*model.FileRecord, error) {
	if err := req.check(); err != nil {
		return nil, e.failed("register", err, zap.String("project_id", req.ProjectID))
	}

	var f model.FileRecord
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		version, err := tx.MaxFileVersion(ctx, req.ProjectID, req.Kind)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		f = model.FileRecord{
			ID:               e.ids.Generate(),
			ProjectID:        req.ProjectID,
			Kind:             req.Kind,
			OriginalName:     req.OriginalName,
			UploaderID:       req.OperatorID,
			FileHash:         ingest.HashContent(req.Content),
			Version:          version + 1,
			ParseStatus:      model.ParsePending,
			ValidationStatus: model.ValidationPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.InsertFile(ctx, f); err != nil {
			return err
		}
		return audit(ctx, tx, model.CreateEntry(f.ProjectID, model.EntityFileRecord, f.ID, req.OperatorID, now))
	})
	if err != nil {
		return nil, e.failed("register", err, zap.String("project_id", req.ProjectID))
	}

	e.logger.Info("file registered",
		zap.String("file_id", f.ID),
		zap.String("project_id", f.ProjectID),
		zap.String("kind", string(f.Kind)),
		zap.Int64("version", f.Version),
	)
	return &f, nil
}

func (r RegisterRequest) check() error {
	if r.ProjectID == "" {
		return inputFailure(CodeInvalidRequest, nil, "project id is required")
	}
	if r.OperatorID == "" {
		return inputFailure(CodeInvalidRequest, nil, "operator id is required")
	}
	if _, err := model.ParseFileKind(string(r.Kind)); err != nil {
		return inputFailure(CodeInvalidRequest, nil, "%v", err)
	}
	if r.Kind == model.FileManual {
		return inputFailure(CodeInvalidRequest, nil, "manual files are created empty, not registered")
	}
	return nil
}

// Ingest parses sheet into the items of a pending file and validates them.
//
// Parsing is attempted once. When the sheet does not fit the file's kind
// the file is marked failed, that change is committed, and a PARSE_FAILED
// failure is returned; a corrected sheet needs a new file version.
func (e *Engine) Ingest(ctx context.Context, fileID string, sheet *ingest.Sheet, operatorID string) (*Report, error) {
	if sheet == nil {
		return nil, e.failed("ingest", inputFailure(CodeInvalidRequest, nil, "sheet is required"),
			zap.String("file_id", fileID))
	}

	start := time.Now()
	var (
		rep      *Report
		parseErr error
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		f, err := loadFile(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if f.Locked {
			return fileLocked(f.ID)
		}
		if !f.ParseStatus.CanTransition(model.ParseParsed) {
			return businessFailure(CodeFileNotPending, map[string]string{"file_id": f.ID},
				"file %s is already %s", f.ID, f.ParseStatus)
		}

		items, err := ingest.Convert(f.Kind, sheet, e.normalizer)
		now := e.clock.Now()
		if err != nil {
			parseErr = err
			if err := tx.SetParseStatus(ctx, f.ID, model.ParseFailed, now); err != nil {
				return err
			}
			return audit(ctx, tx, model.SystemEntry(f.ProjectID, model.EntityFileRecord, f.ID,
				"parse_status", string(f.ParseStatus), string(model.ParseFailed), now))
		}

		for _, it := range items {
			it.ID = e.ids.Generate()
			it.ProjectID = f.ProjectID
			it.SourceFileID = f.ID
			it.CreatedAt = now
			it.UpdatedAt = now
			if err := tx.InsertItem(ctx, it); err != nil {
				return err
			}
			if err := audit(ctx, tx, model.CreateEntry(f.ProjectID, it.Kind.EntityType(), it.ID, operatorID, now)); err != nil {
				return err
			}
		}
		if err := tx.SetParseStatus(ctx, f.ID, model.ParseParsed, now); err != nil {
			return err
		}
		if err := audit(ctx, tx, model.SystemEntry(f.ProjectID, model.EntityFileRecord, f.ID,
			"parse_status", string(f.ParseStatus), string(model.ParseParsed), now)); err != nil {
			return err
		}
		f.ParseStatus = model.ParseParsed

		if f.Kind.IsPlan() {
			rep = newReport(f)
			return nil
		}
		rep, err = e.validateFileTx(ctx, tx, f)
		return err
	})
	if err == nil && parseErr != nil {
		err = businessFailure(CodeParseFailed, map[string]string{"file_id": fileID},
			"parse file %s: %v", fileID, parseErr)
	}
	if err != nil {
		return nil, e.failed("ingest", err, zap.String("file_id", fileID))
	}

	e.logger.Info("file ingested", zap.String("file_id", fileID), zap.Int("items", rep.Total))
	e.observeReport(rep, time.Since(start))
	return rep, nil
}

// CreateManualFile creates an empty manual logistics file for a project.
// Manual files have no source sheet and are parsed from the start.
func (e *Engine) CreateManualFile(ctx context.Context, projectID, operatorID string) (*model.FileRecord, error) {
	if projectID == "" || operatorID == "" {
		return nil, e.failed("manual_file",
			inputFailure(CodeInvalidRequest, nil, "project id and operator id are required"))
	}

	var f model.FileRecord
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		version, err := tx.MaxFileVersion(ctx, projectID, model.FileManual)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		f = model.FileRecord{
			ID:               e.ids.Generate(),
			ProjectID:        projectID,
			Kind:             model.FileManual,
			OriginalName:     "manual",
			UploaderID:       operatorID,
			Version:          version + 1,
			ParseStatus:      model.ParseParsed,
			ValidationStatus: model.ValidationPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.InsertFile(ctx, f); err != nil {
			return err
		}
		if err := audit(ctx, tx, model.CreateEntry(projectID, model.EntityFileRecord, f.ID, operatorID, now)); err != nil {
			return err
		}
		rep, err := e.validateFileTx(ctx, tx, f)
		if err != nil {
			return err
		}
		f.ValidationStatus = rep.FileStatus
		return nil
	})
	if err != nil {
		return nil, e.failed("manual_file", err, zap.String("project_id", projectID))
	}

	e.logger.Info("manual file created",
		zap.String("file_id", f.ID),
		zap.String("project_id", projectID),
		zap.Int64("version", f.Version),
	)
	return &f, nil
}

// ManualItem is a logistics cost entered by hand.
type ManualItem struct {
	LogisticsType model.LogisticsType
	Description   string
	Subtotal      decimal.NullDecimal
}

// AddManualItem appends a logistics item to an unlocked manual file and
// re-validates the file. It returns the stored item with its new status.
func (e *Engine) AddManualItem(ctx context.Context, fileID string, mi ManualItem, operatorID string) (*model.Item, error) {
	if operatorID == "" {
		return nil, e.failed("manual_item",
			inputFailure(CodeInvalidRequest, nil, "operator id is required"), zap.String("file_id", fileID))
	}
	lt, err := model.ParseLogisticsType(string(mi.LogisticsType))
	if err != nil {
		return nil, e.failed("manual_item",
			inputFailure(CodeInvalidFieldValue, map[string]string{"field": string(model.FieldLogisticsType)}, "%v", err),
			zap.String("file_id", fileID))
	}

	start := time.Now()
	var (
		item model.Item
		rep  *Report
	)
	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		f, err := loadFile(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if f.Kind != model.FileManual {
			return inputFailure(CodeFileKindMismatch, map[string]string{"file_id": f.ID},
				"file %s is a %s file, not manual", f.ID, f.Kind)
		}
		if f.Locked {
			return fileLocked(f.ID)
		}
		row, err := tx.MaxRowNo(ctx, f.ID)
		if err != nil {
			return err
		}

		now := e.clock.Now()
		item = model.Item{
			ID:            e.ids.Generate(),
			Kind:          model.ItemLogistics,
			ProjectID:     f.ProjectID,
			SourceFileID:  f.ID,
			RowNo:         row + 1,
			Status:        model.StatusWarning,
			Calculable:    true,
			Subtotal:      mi.Subtotal,
			LogisticsType: lt,
			Description:   mi.Description,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertItem(ctx, item); err != nil {
			return err
		}
		if err := audit(ctx, tx, model.CreateEntry(f.ProjectID, model.EntityLogisticsItem, item.ID, operatorID, now)); err != nil {
			return err
		}
		if rep, err = e.validateFileTx(ctx, tx, f); err != nil {
			return err
		}
		item, err = tx.GetItem(ctx, model.ItemLogistics, item.ID)
		return err
	})
	if err != nil {
		return nil, e.failed("manual_item", err, zap.String("file_id", fileID))
	}

	e.logger.Info("manual item added", zap.String("file_id", fileID), zap.String("item_id", item.ID))
	e.observeReport(rep, time.Since(start))
	return &item, nil
}
