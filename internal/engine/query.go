package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
)

// GetFile returns a file record, failing with FILE_NOT_FOUND for an unknown id.
func (e *Engine) GetFile(ctx context.Context, fileID string) (*model.FileRecord, error) {
	f, err := e.store.GetFile(ctx, fileID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fileNotFound(fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return &f, nil
}

// FileItems lists the items parsed from fileID in row order.
func (e *Engine) FileItems(ctx context.Context, fileID string) ([]model.Item, error) {
	if _, err := e.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	return e.store.ListItems(ctx, fileID)
}

// LatestSnapshotRequest fills every empty file slot of req with the
// project's newest usable file of the matching kind. The logistics slot
// falls back to a manual file when no uploaded logistics file is usable.
// Slots with no usable candidate stay empty and GenerateSnapshot rejects them.
func (e *Engine) LatestSnapshotRequest(ctx context.Context, req SnapshotRequest) (SnapshotRequest, error) {
	if req.ProjectID == "" {
		return req, inputFailure(CodeInvalidRequest, nil, "project id is required")
	}
	fill := func(slot *string, kinds ...model.FileKind) error {
		if *slot != "" {
			return nil
		}
		for _, k := range kinds {
			f, err := e.store.LatestUsableFile(ctx, req.ProjectID, k)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("latest %s file: %w", k, err)
			}
			*slot = f.ID
			return nil
		}
		return nil
	}
	for _, s := range []struct {
		slot  *string
		kinds []model.FileKind
	}{
		{&req.MaterialFileID, []model.FileKind{model.FileMaterial}},
		{&req.PartFileID, []model.FileKind{model.FilePart}},
		{&req.LaborFileID, []model.FileKind{model.FileLabor}},
		{&req.LogisticsFileID, []model.FileKind{model.FileLogistics, model.FileManual}},
	} {
		if err := fill(s.slot, s.kinds...); err != nil {
			return req, err
		}
	}
	return req, nil
}
