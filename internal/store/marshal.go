package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/costcore/internal/model"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

const fileColumns = `id, project_id, kind, original_name, uploader_id, file_hash, version,
	parse_status, validation_status, locked, created_at, updated_at`

func scanFile(sc scanner) (model.FileRecord, error) {
	var (
		f                       model.FileRecord
		kind, parse, validation string
		createdAt, updatedAt    string
		err                     error
	)
	if err := sc.Scan(
		&f.ID, &f.ProjectID, &kind, &f.OriginalName, &f.UploaderID, &f.FileHash, &f.Version,
		&parse, &validation, &f.Locked, &createdAt, &updatedAt,
	); err != nil {
		return model.FileRecord{}, err
	}
	if f.Kind, err = model.ParseFileKind(kind); err != nil {
		return model.FileRecord{}, fmt.Errorf("scan file %s: %w", f.ID, err)
	}
	if f.ParseStatus, err = model.ParseParseStatus(parse); err != nil {
		return model.FileRecord{}, fmt.Errorf("scan file %s: %w", f.ID, err)
	}
	if f.ValidationStatus, err = model.ParseValidationStatus(validation); err != nil {
		return model.FileRecord{}, fmt.Errorf("scan file %s: %w", f.ID, err)
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.FileRecord{}, fmt.Errorf("scan file %s: %w", f.ID, err)
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.FileRecord{}, fmt.Errorf("scan file %s: %w", f.ID, err)
	}
	return f, nil
}

const itemColumns = `id, kind, project_id, source_file_id, row_no, status, is_calculable,
	raw_name, normalized_name, spec, supplier, unit, quantity, unit_price, subtotal,
	weight_kg, material_grade, bundle_key, extra_subsidy, ton_bonus, logistics_type,
	description, created_at, updated_at`

func scanItem(sc scanner) (model.Item, error) {
	var (
		it                          model.Item
		kind, status, logisticsType string
		bundleKey                   sql.NullInt64
		createdAt, updatedAt        string
		err                         error
	)
	if err := sc.Scan(
		&it.ID, &kind, &it.ProjectID, &it.SourceFileID, &it.RowNo, &status, &it.Calculable,
		&it.RawName, &it.NormalizedName, &it.Spec, &it.Supplier, &it.Unit,
		&it.Quantity, &it.UnitPrice, &it.Subtotal,
		&it.WeightKg, &it.MaterialGrade, &bundleKey, &it.ExtraSubsidy, &it.TonBonus,
		&logisticsType, &it.Description, &createdAt, &updatedAt,
	); err != nil {
		return model.Item{}, err
	}
	if it.Kind, err = model.ParseItemKind(kind); err != nil {
		return model.Item{}, fmt.Errorf("scan item %s: %w", it.ID, err)
	}
	if it.Status, err = model.ParseItemStatus(status); err != nil {
		return model.Item{}, fmt.Errorf("scan item %s: %w", it.ID, err)
	}
	if logisticsType != "" {
		if it.LogisticsType, err = model.ParseLogisticsType(logisticsType); err != nil {
			return model.Item{}, fmt.Errorf("scan item %s: %w", it.ID, err)
		}
	}
	if bundleKey.Valid {
		k := bundleKey.Int64
		it.BundleKey = &k
	}
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Item{}, fmt.Errorf("scan item %s: %w", it.ID, err)
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Item{}, fmt.Errorf("scan item %s: %w", it.ID, err)
	}
	return it, nil
}

const summaryColumns = `id, project_id, calculation_version, status,
	material_cost, part_cost, labor_cost, logistics_cost, total_cost,
	material_file_id, material_file_version, part_file_id, part_file_version,
	labor_file_id, labor_file_version, logistics_file_id, logistics_file_version,
	replaces_id, invalidated_at, calculated_at, operator_id`

func scanSummary(sc scanner) (model.CostSummary, error) {
	var (
		s                         model.CostSummary
		status                    string
		replacesID, invalidatedAt sql.NullString
		calculatedAt              string
		err                       error
	)
	if err := sc.Scan(
		&s.ID, &s.ProjectID, &s.CalculationVersion, &status,
		&s.MaterialCost, &s.PartCost, &s.LaborCost, &s.LogisticsCost, &s.TotalCost,
		&s.MaterialFile.ID, &s.MaterialFile.Version, &s.PartFile.ID, &s.PartFile.Version,
		&s.LaborFile.ID, &s.LaborFile.Version, &s.LogisticsFile.ID, &s.LogisticsFile.Version,
		&replacesID, &invalidatedAt, &calculatedAt, &s.OperatorID,
	); err != nil {
		return model.CostSummary{}, err
	}
	if s.Status, err = model.ParseSummaryStatus(status); err != nil {
		return model.CostSummary{}, fmt.Errorf("scan summary %s: %w", s.ID, err)
	}
	s.ReplacesID = replacesID.String
	if invalidatedAt.Valid {
		t, err := parseTime(invalidatedAt.String)
		if err != nil {
			return model.CostSummary{}, fmt.Errorf("scan summary %s: %w", s.ID, err)
		}
		s.InvalidatedAt = &t
	}
	if s.CalculatedAt, err = parseTime(calculatedAt); err != nil {
		return model.CostSummary{}, fmt.Errorf("scan summary %s: %w", s.ID, err)
	}
	return s, nil
}

const auditColumns = `seq, project_id, entity_type, entity_id, action, field,
	before_value, after_value, operator_id, created_at`

func scanAudit(sc scanner) (model.AuditEntry, error) {
	var (
		e                  model.AuditEntry
		entityType, action string
		createdAt          string
		err                error
	)
	if err := sc.Scan(
		&e.Seq, &e.ProjectID, &entityType, &e.EntityID, &action, &e.Field,
		&e.Before, &e.After, &e.OperatorID, &createdAt,
	); err != nil {
		return model.AuditEntry{}, err
	}
	if e.EntityType, err = model.ParseEntityType(entityType); err != nil {
		return model.AuditEntry{}, fmt.Errorf("scan audit %d: %w", e.Seq, err)
	}
	if e.Action, err = model.ParseAuditAction(action); err != nil {
		return model.AuditEntry{}, fmt.Errorf("scan audit %d: %w", e.Seq, err)
	}
	if e.Timestamp, err = parseTime(createdAt); err != nil {
		return model.AuditEntry{}, fmt.Errorf("scan audit %d: %w", e.Seq, err)
	}
	return e, nil
}
