package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/costcore/internal/model"
)

// InsertFile inserts a new file record.
// UNIQUE(project_id, kind, version) rejects a duplicate version.
func (q queries) InsertFile(ctx context.Context, f model.FileRecord) error {
	_, err := q.c.ExecContext(ctx, `
		INSERT INTO file_records (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.ID, f.ProjectID, string(f.Kind), f.OriginalName, f.UploaderID, f.FileHash, f.Version,
		string(f.ParseStatus), string(f.ValidationStatus), f.Locked,
		formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// SetParseStatus updates a file's parse status.
func (q queries) SetParseStatus(ctx context.Context, id string, status model.ParseStatus, at time.Time) error {
	res, err := q.c.ExecContext(ctx, `
		UPDATE file_records SET parse_status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("write parse status: %w", err)
	}
	return expectOne(res, "file", id)
}

// SetValidationStatus updates a file's aggregated validation status.
func (q queries) SetValidationStatus(ctx context.Context, id string, status model.ValidationStatus, at time.Time) error {
	res, err := q.c.ExecContext(ctx, `
		UPDATE file_records SET validation_status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("write validation status: %w", err)
	}
	return expectOne(res, "file", id)
}

// LockFile sets the lock on an unlocked file. Locks are never cleared;
// locking an already locked file reports ErrNotFound.
func (q queries) LockFile(ctx context.Context, id string, at time.Time) error {
	res, err := q.c.ExecContext(ctx, `
		UPDATE file_records SET locked = 1, updated_at = ? WHERE id = ? AND locked = 0
	`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("lock file: %w", err)
	}
	return expectOne(res, "unlocked file", id)
}

// InsertItem inserts a cost item.
func (q queries) InsertItem(ctx context.Context, it model.Item) error {
	_, err := q.c.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		it.ID, string(it.Kind), it.ProjectID, it.SourceFileID, it.RowNo, string(it.Status), it.Calculable,
		it.RawName, it.NormalizedName, it.Spec, it.Supplier, it.Unit,
		it.Quantity, it.UnitPrice, it.Subtotal,
		it.WeightKg, it.MaterialGrade, nullInt(it.BundleKey), it.ExtraSubsidy, it.TonBonus,
		string(it.LogisticsType), it.Description,
		formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("write item: %w", err)
	}
	return nil
}

// UpdateItem rewrites the mutable columns of an item: status,
// calculability and every data field. Identity, owning file, row number
// and creation time are fixed.
func (q queries) UpdateItem(ctx context.Context, it model.Item) error {
	res, err := q.c.ExecContext(ctx, `
		UPDATE items SET
			status = ?, is_calculable = ?,
			raw_name = ?, normalized_name = ?, spec = ?, supplier = ?, unit = ?,
			quantity = ?, unit_price = ?, subtotal = ?,
			weight_kg = ?, material_grade = ?, bundle_key = ?, extra_subsidy = ?, ton_bonus = ?,
			logistics_type = ?, description = ?, updated_at = ?
		WHERE id = ?
	`,
		string(it.Status), it.Calculable,
		it.RawName, it.NormalizedName, it.Spec, it.Supplier, it.Unit,
		it.Quantity, it.UnitPrice, it.Subtotal,
		it.WeightKg, it.MaterialGrade, nullInt(it.BundleKey), it.ExtraSubsidy, it.TonBonus,
		string(it.LogisticsType), it.Description, formatTime(it.UpdatedAt),
		it.ID,
	)
	if err != nil {
		return fmt.Errorf("write item: %w", err)
	}
	return expectOne(res, "item", it.ID)
}

// SetItemStatus updates only the system-owned columns of an item.
func (q queries) SetItemStatus(ctx context.Context, id string, status model.ItemStatus, calculable bool, at time.Time) error {
	res, err := q.c.ExecContext(ctx, `
		UPDATE items SET status = ?, is_calculable = ?, updated_at = ? WHERE id = ?
	`, string(status), calculable, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("write item status: %w", err)
	}
	return expectOne(res, "item", id)
}

// InsertSummary inserts a cost summary. The schema rejects a duplicate
// calculation version and a second active summary for the project.
func (q queries) InsertSummary(ctx context.Context, s model.CostSummary) error {
	_, err := q.c.ExecContext(ctx, `
		INSERT INTO cost_summaries (`+summaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.ProjectID, s.CalculationVersion, string(s.Status),
		s.MaterialCost, s.PartCost, s.LaborCost, s.LogisticsCost, s.TotalCost,
		s.MaterialFile.ID, s.MaterialFile.Version, s.PartFile.ID, s.PartFile.Version,
		s.LaborFile.ID, s.LaborFile.Version, s.LogisticsFile.ID, s.LogisticsFile.Version,
		nullString(s.ReplacesID), nullTime(s.InvalidatedAt), formatTime(s.CalculatedAt), s.OperatorID,
	)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReplaceSummary moves an active summary to replaced, pointing it at the
// summary that supersedes it. Only active summaries can be replaced.
func (q queries) ReplaceSummary(ctx context.Context, id, replacedBy string, at time.Time) error {
	res, err := q.c.ExecContext(ctx, `
		UPDATE cost_summaries
		SET status = 'replaced', replaces_id = ?, invalidated_at = ?
		WHERE id = ? AND status = 'active'
	`, replacedBy, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("replace summary: %w", err)
	}
	return expectOne(res, "active summary", id)
}

// AppendAudit appends an entry to the audit log and returns its seq.
func (q queries) AppendAudit(ctx context.Context, e model.AuditEntry) (int64, error) {
	res, err := q.c.ExecContext(ctx, `
		INSERT INTO audit_log
		(project_id, entity_type, entity_id, action, field, before_value, after_value, operator_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ProjectID, string(e.EntityType), e.EntityID, string(e.Action), e.Field,
		e.Before, e.After, e.OperatorID, formatTime(e.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("write audit: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write audit: last insert id: %w", err)
	}
	return seq, nil
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
