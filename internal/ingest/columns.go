package ingest

import (
	"fmt"
	"strings"

	"github.com/roach88/costcore/internal/model"
)

type column struct {
	field   model.Field
	aliases []string
}

// layout describes how a sheet of one file kind maps onto item fields.
type layout struct {
	columns  []column
	required []model.Field
	// carry lists text fields whose blank cells repeat the row above.
	carry  []model.Field
	domain Domain
}

var (
	colName     = column{model.FieldRawName, []string{"名称", "name", "raw_name"}}
	colSpec     = column{model.FieldSpec, []string{"规格型号", "规格", "spec"}}
	colQuantity = column{model.FieldQuantity, []string{"数量", "quantity", "qty"}}
	colUnit     = column{model.FieldUnit, []string{"单位", "unit"}}
	colPrice    = column{model.FieldUnitPrice, []string{"单价", "unit_price", "price"}}
	colSubtotal = column{model.FieldSubtotal, []string{"小计", "subtotal", "amount"}}
	colSupplier = column{model.FieldSupplier, []string{"供应商", "supplier"}}
	colGrade    = column{model.FieldMaterialGrade, []string{"材质", "material_grade", "grade"}}
	colWeight   = column{model.FieldWeightKg, []string{"参考重量（kg）", "重量（kg）", "重量", "weight_kg", "weight"}}
)

var layouts = map[model.FileKind]layout{
	model.FileMaterial: {
		columns:  []column{colName, colSpec, colQuantity, colUnit, colGrade, colWeight, colPrice, colSubtotal, colSupplier},
		required: []model.Field{model.FieldRawName, model.FieldWeightKg, model.FieldUnitPrice, model.FieldSubtotal},
		carry:    []model.Field{model.FieldRawName, model.FieldUnit, model.FieldMaterialGrade},
		domain:   DomainMaterial,
	},
	model.FilePart: {
		columns:  []column{colName, colSpec, colQuantity, colUnit, colPrice, colSubtotal, colSupplier},
		required: []model.Field{model.FieldRawName, model.FieldQuantity, model.FieldUnitPrice, model.FieldSubtotal},
		carry:    []model.Field{model.FieldRawName},
		domain:   DomainPart,
	},
	model.FileLabor: {
		columns: []column{
			{model.FieldRawName, []string{"班组（外协单位）", "班组", "labor_group", "group"}},
			{model.FieldQuantity, []string{"数量", "工作量", "quantity", "work_quantity"}},
			colUnit,
			colPrice,
			{model.FieldTonBonus, []string{"吨位奖金", "ton_bonus"}},
			{model.FieldExtraSubsidy, []string{"箱梁攻丝费、行走、液压站组装费、溜槽补助", "补助", "extra_subsidy"}},
			colSubtotal,
		},
		required: []model.Field{
			model.FieldRawName, model.FieldQuantity, model.FieldUnit, model.FieldUnitPrice,
			model.FieldTonBonus, model.FieldExtraSubsidy, model.FieldSubtotal,
		},
		carry:  []model.Field{model.FieldRawName},
		domain: DomainLaborGroup,
	},
	model.FileLogistics: {
		columns: []column{
			{model.FieldLogisticsType, []string{"类型", "logistics_type", "type"}},
			{model.FieldDescription, []string{"备注", "description", "remark"}},
			colSubtotal,
		},
		required: []model.Field{model.FieldLogisticsType, model.FieldDescription, model.FieldSubtotal},
	},
	model.FileMaterialPlan: {
		columns: []column{colName, colSpec, colQuantity, colUnit, colGrade, colWeight, colPrice, colSubtotal},
		required: []model.Field{
			model.FieldRawName, model.FieldSpec, model.FieldQuantity, model.FieldUnit,
			model.FieldMaterialGrade, model.FieldWeightKg, model.FieldUnitPrice, model.FieldSubtotal,
		},
	},
	model.FilePartPlan: {
		columns: []column{colName, colSpec, colQuantity, colUnit, colPrice, colSubtotal},
		required: []model.Field{
			model.FieldRawName, model.FieldSpec, model.FieldQuantity, model.FieldUnit,
			model.FieldUnitPrice, model.FieldSubtotal,
		},
	},
}

// MissingColumnsError reports required columns absent from a sheet header.
type MissingColumnsError struct {
	Kind    model.FileKind
	Missing []model.Field
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s sheet is missing required columns: %s", e.Kind, strings.Join(names, ", "))
}

// resolve maps header positions to fields. The first header matching a
// field wins; unknown headers are ignored.
func (l layout) resolve(kind model.FileKind, header []string) (map[model.Field]int, error) {
	byAlias := make(map[string]model.Field)
	for _, c := range l.columns {
		for _, a := range c.aliases {
			byAlias[foldKey(a)] = c.field
		}
	}

	cols := make(map[model.Field]int)
	for i, h := range header {
		f, ok := byAlias[foldKey(h)]
		if !ok {
			continue
		}
		if _, seen := cols[f]; !seen {
			cols[f] = i
		}
	}

	var missing []model.Field
	for _, f := range l.required {
		if _, ok := cols[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Kind: kind, Missing: missing}
	}
	return cols, nil
}
