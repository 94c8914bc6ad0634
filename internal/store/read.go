package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/costcore/internal/model"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// conn is the subset of *sql.DB and *sql.Tx the queries need.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every read and write statement. Store runs them on the
// pool, Tx inside its transaction.
type queries struct {
	c conn
}

// GetFile retrieves a file record by ID.
// Returns an error wrapping ErrNotFound if it does not exist.
func (q queries) GetFile(ctx context.Context, id string) (model.FileRecord, error) {
	row := q.c.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM file_records WHERE id = ?`, id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FileRecord{}, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

// FileFilter narrows ListFiles. Empty fields match everything.
type FileFilter struct {
	ProjectID string
	Kind      model.FileKind
}

// ListFiles returns file records for a project, newest version first
// within each kind. Kinds are ordered by name.
//
// Returns an empty slice (not nil) if nothing matches.
func (q queries) ListFiles(ctx context.Context, f FileFilter) ([]model.FileRecord, error) {
	rows, err := q.c.QueryContext(ctx, `
		SELECT `+fileColumns+`
		FROM file_records
		WHERE (? = '' OR project_id = ?)
		  AND (? = '' OR kind = ?)
		ORDER BY project_id ASC, kind ASC, version DESC, id ASC
	`, f.ProjectID, f.ProjectID, string(f.Kind), string(f.Kind))
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	files := []model.FileRecord{}
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// LatestUsableFile returns the newest file of a kind that can feed a
// snapshot: parsed, validated ok or confirmed, and unlocked.
// Returns an error wrapping ErrNotFound if there is none.
func (q queries) LatestUsableFile(ctx context.Context, projectID string, kind model.FileKind) (model.FileRecord, error) {
	row := q.c.QueryRowContext(ctx, `
		SELECT `+fileColumns+`
		FROM file_records
		WHERE project_id = ? AND kind = ?
		  AND parse_status = 'parsed'
		  AND validation_status IN ('ok', 'confirmed')
		  AND locked = 0
		ORDER BY version DESC
		LIMIT 1
	`, projectID, string(kind))
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FileRecord{}, fmt.Errorf("usable %s file in project %s: %w", kind, projectID, ErrNotFound)
	}
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("latest usable file: %w", err)
	}
	return f, nil
}

// MaxFileVersion returns the highest version of a file kind in a project,
// or 0 if none exist.
func (q queries) MaxFileVersion(ctx context.Context, projectID string, kind model.FileKind) (int64, error) {
	var v int64
	err := q.c.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM file_records WHERE project_id = ? AND kind = ?
	`, projectID, string(kind)).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("max file version: %w", err)
	}
	return v, nil
}

// ListItems returns the items of a file in sheet order (row_no, then id).
// Returns an empty slice (not nil) if the file has no items.
func (q queries) ListItems(ctx context.Context, fileID string) ([]model.Item, error) {
	rows, err := q.c.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE source_file_id = ?
		ORDER BY row_no ASC, id ASC
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// GetItem retrieves an item by ID and kind. An item stored under another
// kind is reported as not found.
func (q queries) GetItem(ctx context.Context, kind model.ItemKind, id string) (model.Item, error) {
	row := q.c.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ? AND kind = ?`, id, string(kind))
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("%s item %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// MaxRowNo returns the highest row number in a file, or 0 if it has no items.
func (q queries) MaxRowNo(ctx context.Context, fileID string) (int, error) {
	var n int
	err := q.c.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(row_no), 0) FROM items WHERE source_file_id = ?
	`, fileID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max row no: %w", err)
	}
	return n, nil
}

// GetSummary retrieves a cost summary by ID.
func (q queries) GetSummary(ctx context.Context, id string) (model.CostSummary, error) {
	row := q.c.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM cost_summaries WHERE id = ?`, id)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CostSummary{}, fmt.Errorf("summary %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.CostSummary{}, fmt.Errorf("get summary: %w", err)
	}
	return s, nil
}

// ListSummaries returns a project's summaries, newest version first.
func (q queries) ListSummaries(ctx context.Context, projectID string) ([]model.CostSummary, error) {
	return q.listSummaries(ctx, `
		SELECT `+summaryColumns+`
		FROM cost_summaries
		WHERE project_id = ?
		ORDER BY calculation_version DESC
	`, projectID)
}

// ActiveSummaries returns the project's active summaries. The store keeps
// at most one, but callers treat the result as a set.
func (q queries) ActiveSummaries(ctx context.Context, projectID string) ([]model.CostSummary, error) {
	return q.listSummaries(ctx, `
		SELECT `+summaryColumns+`
		FROM cost_summaries
		WHERE project_id = ? AND status = 'active'
		ORDER BY calculation_version ASC
	`, projectID)
}

func (q queries) listSummaries(ctx context.Context, query string, args ...any) ([]model.CostSummary, error) {
	rows, err := q.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []model.CostSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

// MaxCalculationVersion returns the highest summary version of a project,
// or 0 if none exist.
func (q queries) MaxCalculationVersion(ctx context.Context, projectID string) (int64, error) {
	var v int64
	err := q.c.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(calculation_version), 0) FROM cost_summaries WHERE project_id = ?
	`, projectID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("max calculation version: %w", err)
	}
	return v, nil
}

// AuditFilter narrows ListAudit. Empty fields match everything;
// Limit <= 0 means no limit.
type AuditFilter struct {
	ProjectID  string
	EntityType model.EntityType
	EntityID   string
	Limit      int
}

// ListAudit returns audit entries in append order (seq ascending).
func (q queries) ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.c.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE (? = '' OR project_id = ?)
		  AND (? = '' OR entity_type = ?)
		  AND (? = '' OR entity_id = ?)
		ORDER BY seq ASC
		LIMIT ?
	`, f.ProjectID, f.ProjectID, string(f.EntityType), string(f.EntityType), f.EntityID, f.EntityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit: %w", err)
	}
	return entries, nil
}

// CountAudit returns the number of audit entries, optionally per project.
func (q queries) CountAudit(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := q.c.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_log WHERE (? = '' OR project_id = ?)
	`, projectID, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit: %w", err)
	}
	return n, nil
}
