package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/costcore/internal/model"
)

// CellError reports a cell that could not be converted.
type CellError struct {
	Row   int
	Field model.Field
	Value string
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, %s: cannot parse %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// Convert maps a sheet onto items of the kind the file owns.
//
// Items come back with Kind, RowNo (1-based sheet data row), field values,
// NormalizedName, BundleKey (parts), status warning and calculable set.
// Identity, ownership and timestamps are left to the caller. Plan kinds
// only have their header checked and yield no items. Fully blank rows are
// skipped.
func Convert(kind model.FileKind, s *Sheet, n Normalizer) ([]model.Item, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("%s files are not ingested from sheets", kind)
	}
	cols, err := l.resolve(kind, s.Header)
	if err != nil {
		return nil, err
	}

	itemKind, owns := kind.ItemKind()
	if !owns {
		return nil, nil
	}
	if n == nil {
		n = IdentityNormalizer{}
	}

	items := make([]model.Item, 0, len(s.Rows))
	carried := make(map[model.Field]string, len(l.carry))
	for i, row := range s.Rows {
		if blankRow(row) {
			continue
		}
		it := model.Item{
			Kind:       itemKind,
			RowNo:      i + 1,
			Status:     model.StatusWarning,
			Calculable: true,
		}

		for _, c := range l.columns {
			col, ok := cols[c.field]
			if !ok {
				continue
			}
			f, v := c.field, cell(row, col)
			if f.IsNumeric() {
				d, err := parseNumber(v)
				if err != nil {
					return nil, &CellError{Row: i + 1, Field: f, Value: v, Err: err}
				}
				it.SetDecimal(f, d)
				continue
			}
			if f == model.FieldLogisticsType {
				it.LogisticsType = logisticsType(v)
				continue
			}
			if _, err := it.SetText(f, v); err != nil {
				return nil, &CellError{Row: i + 1, Field: f, Value: v, Err: err}
			}
		}

		for _, f := range l.carry {
			if v := it.Text(f); v != "" {
				carried[f] = v
			} else if prev := carried[f]; prev != "" {
				it.SetText(f, prev)
			}
		}

		if it.RawName != "" {
			it.NormalizedName = n.Normalize(l.domain, it.RawName)
		}
		if itemKind == model.ItemLogistics && it.LogisticsType == "" {
			it.LogisticsType = model.LogisticsOther
		}
		items = append(items, it)
	}

	if itemKind == model.ItemPart {
		AssignBundleKeys(items)
	}
	return items, nil
}

// parseNumber accepts plain decimals with optional thousands separators.
// A blank cell is absent, not zero.
func parseNumber(s string) (decimal.NullDecimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	return model.ParseDecimal(s)
}

// logisticsType maps the type column onto the closed enumeration.
// Unrecognized and blank values become other.
func logisticsType(v string) model.LogisticsType {
	switch foldKey(v) {
	case "运输", "transport":
		return model.LogisticsTransport
	case "安装", "installation":
		return model.LogisticsInstallation
	}
	return model.LogisticsOther
}
