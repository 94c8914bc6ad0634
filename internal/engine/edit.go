package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/store"
)

// editRules lists, per item kind, the fields an operator may edit and the
// subset that feeds a validation rule.
type editRules struct {
	editable map[model.Field]bool
	triggers map[model.Field]bool
}

func fieldSet(fs ...model.Field) map[model.Field]bool {
	m := make(map[model.Field]bool, len(fs))
	for _, f := range fs {
		m[f] = true
	}
	return m
}

var editable = map[model.ItemKind]editRules{
	model.ItemMaterial: {
		editable: fieldSet(model.FieldNormalizedName, model.FieldSpec, model.FieldSupplier,
			model.FieldQuantity, model.FieldUnit, model.FieldMaterialGrade,
			model.FieldWeightKg, model.FieldUnitPrice, model.FieldSubtotal),
		triggers: fieldSet(model.FieldQuantity, model.FieldUnit, model.FieldWeightKg,
			model.FieldUnitPrice, model.FieldSubtotal),
	},
	model.ItemPart: {
		editable: fieldSet(model.FieldNormalizedName, model.FieldSpec, model.FieldSupplier,
			model.FieldQuantity, model.FieldUnit, model.FieldUnitPrice, model.FieldSubtotal),
		triggers: fieldSet(model.FieldQuantity, model.FieldUnitPrice, model.FieldSubtotal),
	},
	model.ItemLabor: {
		editable: fieldSet(model.FieldQuantity, model.FieldUnit, model.FieldUnitPrice,
			model.FieldExtraSubsidy, model.FieldTonBonus, model.FieldSubtotal),
		triggers: fieldSet(model.FieldQuantity, model.FieldUnit, model.FieldUnitPrice,
			model.FieldExtraSubsidy, model.FieldTonBonus, model.FieldSubtotal),
	},
	model.ItemLogistics: {
		editable: fieldSet(model.FieldDescription, model.FieldLogisticsType, model.FieldSubtotal),
		triggers: fieldSet(model.FieldSubtotal),
	},
}

// loadItem resolves an item and its owning file inside tx.
func loadItem(ctx context.Context, tx *store.Tx, kind, itemID string) (model.Item, model.FileRecord, error) {
	k, err := model.ParseItemKind(kind)
	if err != nil {
		return model.Item{}, model.FileRecord{}, inputFailure(CodeInvalidRequest,
			map[string]string{"item_kind": kind}, "%v", err)
	}
	it, err := tx.GetItem(ctx, k, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return it, model.FileRecord{}, inputFailure(CodeItemNotFound,
			map[string]string{"item_id": itemID, "item_kind": kind}, "%s item %s not found", kind, itemID)
	}
	if err != nil {
		return it, model.FileRecord{}, fmt.Errorf("load item %s: %w", itemID, err)
	}
	f, err := loadFile(ctx, tx, it.SourceFileID)
	return it, f, err
}

// ConfirmItem accepts a warning item on the operator's word. The item
// becomes confirmed and stays so until a rule field of it is edited.
//
// Manual logistics items cannot be confirmed; they must carry a subtotal.
func (e *Engine) ConfirmItem(ctx context.Context, kind, itemID, operatorID string) error {
	if operatorID == "" {
		return e.failed("confirm", inputFailure(CodeInvalidRequest, nil, "operator id is required"),
			zap.String("item_id", itemID))
	}

	var f model.FileRecord
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		it, file, err := loadItem(ctx, tx, kind, itemID)
		if err != nil {
			return err
		}
		f = file
		details := map[string]string{"item_id": it.ID, "file_id": f.ID}
		if it.Kind == model.ItemLogistics && f.Kind == model.FileManual {
			return businessFailure(CodeManualItemNotConfirmable, details,
				"item %s belongs to a manual file and cannot be confirmed", it.ID)
		}
		if f.Locked {
			return fileLocked(f.ID)
		}
		if it.Status != model.StatusWarning {
			return businessFailure(CodeItemNotWarning, details,
				"item %s is %s; only warning items can be confirmed", it.ID, it.Status)
		}

		now := e.clock.Now()
		if err := tx.SetItemStatus(ctx, it.ID, model.StatusConfirmed, it.Calculable, now); err != nil {
			return err
		}
		if err := audit(ctx, tx, model.AuditEntry{
			ProjectID:  it.ProjectID,
			EntityType: it.Kind.EntityType(),
			EntityID:   it.ID,
			Action:     model.ActionConfirm,
			Field:      "status",
			Before:     string(model.StatusWarning),
			After:      string(model.StatusConfirmed),
			OperatorID: operatorID,
			Timestamp:  now,
		}); err != nil {
			return err
		}
		_, err = e.validateFileTx(ctx, tx, f)
		return err
	})
	if err != nil {
		return e.failed("confirm", err, zap.String("item_id", itemID))
	}

	e.logger.Info("item confirmed",
		zap.String("item_id", itemID),
		zap.String("file_id", f.ID),
		zap.String("operator_id", operatorID),
	)
	return nil
}

// EditItem applies field updates to an item. Values are text; numeric
// fields take decimals and an empty value clears the field.
//
// Unchanged values are ignored. If a changed field feeds a validation rule,
// a confirmed item falls back to warning and the owning file is
// re-validated in the same transaction.
func (e *Engine) EditItem(ctx context.Context, kind, itemID string, updates map[string]string, operatorID string) error {
	if operatorID == "" {
		return e.failed("edit", inputFailure(CodeInvalidRequest, nil, "operator id is required"),
			zap.String("item_id", itemID))
	}

	var changed []string
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		it, f, err := loadItem(ctx, tx, kind, itemID)
		if err != nil {
			return err
		}
		if !f.Editable() {
			return fileLocked(f.ID)
		}
		changes, revalidate, err := applyUpdates(&it, updates)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}

		now := e.clock.Now()
		et := it.Kind.EntityType()
		if revalidate && it.Status == model.StatusConfirmed {
			it.Status = model.StatusWarning
			changes = append(changes, model.SystemEntry(it.ProjectID, et, it.ID, "status",
				string(model.StatusConfirmed), string(model.StatusWarning), now))
		}
		it.UpdatedAt = now
		if err := tx.UpdateItem(ctx, it); err != nil {
			return err
		}
		for _, c := range changes {
			if c.Action == model.ActionUpdate {
				c.ProjectID, c.EntityType, c.EntityID = it.ProjectID, et, it.ID
				c.OperatorID, c.Timestamp = operatorID, now
				changed = append(changed, c.Field)
			}
			if err := audit(ctx, tx, c); err != nil {
				return err
			}
		}
		if !revalidate {
			return nil
		}
		_, err = e.validateFileTx(ctx, tx, f)
		return err
	})
	if err != nil {
		return e.failed("edit", err, zap.String("item_id", itemID))
	}

	e.logger.Info("item edited",
		zap.String("item_id", itemID),
		zap.Strings("fields", changed),
		zap.String("operator_id", operatorID),
	)
	return nil
}

// applyUpdates writes updates into it and returns one update entry per
// changed field, plus whether any changed field feeds a rule. Fields are
// applied in name order so audit output is stable.
func applyUpdates(it *model.Item, updates map[string]string) ([]model.AuditEntry, bool, error) {
	rules := editable[it.Kind]
	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		changes    []model.AuditEntry
		revalidate bool
	)
	for _, name := range names {
		f := model.Field(name)
		if !rules.editable[f] {
			return nil, false, inputFailure(CodeFieldNotEditable,
				map[string]string{"field": name, "item_kind": string(it.Kind)},
				"field %s of %s items is not editable", name, it.Kind)
		}
		raw := updates[name]
		var before, after string
		if f.IsNumeric() {
			d, err := model.ParseDecimal(raw)
			if err != nil {
				return nil, false, inputFailure(CodeInvalidFieldValue, map[string]string{"field": name},
					"field %s: %q is not a decimal", name, raw)
			}
			old := it.Decimal(f)
			if old.Valid == d.Valid && (!d.Valid || old.Decimal.Equal(d.Decimal)) {
				continue
			}
			before, after = model.FormatDecimal(old), model.FormatDecimal(d)
			it.SetDecimal(f, d)
		} else {
			old := it.Text(f)
			if old == raw {
				continue
			}
			if _, err := it.SetText(f, raw); err != nil {
				return nil, false, inputFailure(CodeInvalidFieldValue, map[string]string{"field": name},
					"field %s: %v", name, err)
			}
			before, after = old, it.Text(f)
			if before == after {
				continue
			}
		}
		if rules.triggers[f] {
			revalidate = true
		}
		changes = append(changes, model.AuditEntry{
			Action: model.ActionUpdate,
			Field:  name,
			Before: before,
			After:  after,
		})
	}
	return changes, revalidate, nil
}
