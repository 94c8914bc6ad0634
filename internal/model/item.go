package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names a cost item attribute. The names double as the edit keys
// accepted by the engine and the column names in the store.
type Field string

const (
	FieldRawName        Field = "raw_name"
	FieldNormalizedName Field = "normalized_name"
	FieldSpec           Field = "spec"
	FieldSupplier       Field = "supplier"
	FieldUnit           Field = "unit"
	FieldQuantity       Field = "quantity"
	FieldUnitPrice      Field = "unit_price"
	FieldSubtotal       Field = "subtotal"
	FieldWeightKg       Field = "weight_kg"
	FieldMaterialGrade  Field = "material_grade"
	FieldExtraSubsidy   Field = "extra_subsidy"
	FieldTonBonus       Field = "ton_bonus"
	FieldLogisticsType  Field = "logistics_type"
	FieldDescription    Field = "description"
)

// Item is one row of cost data. The four variants share this shape and are
// told apart by Kind; fields that do not apply to a kind stay empty.
//
// Labor items keep their work quantity in Quantity and their crew name in
// RawName / NormalizedName.
type Item struct {
	ID           string     `json:"id"`
	Kind         ItemKind   `json:"kind"`
	ProjectID    string     `json:"project_id"`
	SourceFileID string     `json:"source_file_id"`
	RowNo        int        `json:"row_no"`
	Status       ItemStatus `json:"status"`
	Calculable   bool       `json:"is_calculable"`

	RawName        string `json:"raw_name,omitempty"`
	NormalizedName string `json:"normalized_name,omitempty"`
	Spec           string `json:"spec,omitempty"`
	Supplier       string `json:"supplier,omitempty"`
	Unit           string `json:"unit,omitempty"`

	Quantity  decimal.NullDecimal `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Subtotal  decimal.NullDecimal `json:"subtotal"`

	// material
	WeightKg      decimal.NullDecimal `json:"weight_kg"`
	MaterialGrade string              `json:"material_grade,omitempty"`

	// part
	BundleKey *int64 `json:"bundle_key,omitempty"`

	// labor
	ExtraSubsidy decimal.NullDecimal `json:"extra_subsidy"`
	TonBonus     decimal.NullDecimal `json:"ton_bonus"`

	// logistics
	LogisticsType LogisticsType `json:"logistics_type,omitempty"`
	Description   string        `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decimal returns a numeric field. Unknown or non-numeric fields report absent.
func (it *Item) Decimal(f Field) decimal.NullDecimal {
	if p := it.decimalPtr(f); p != nil {
		return *p
	}
	return decimal.NullDecimal{}
}

// SetDecimal assigns a numeric field and reports whether f is numeric.
func (it *Item) SetDecimal(f Field, v decimal.NullDecimal) bool {
	p := it.decimalPtr(f)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (it *Item) decimalPtr(f Field) *decimal.NullDecimal {
	switch f {
	case FieldQuantity:
		return &it.Quantity
	case FieldUnitPrice:
		return &it.UnitPrice
	case FieldSubtotal:
		return &it.Subtotal
	case FieldWeightKg:
		return &it.WeightKg
	case FieldExtraSubsidy:
		return &it.ExtraSubsidy
	case FieldTonBonus:
		return &it.TonBonus
	}
	return nil
}

// Text returns a text field. Unknown or numeric fields return "".
func (it *Item) Text(f Field) string {
	if p := it.textPtr(f); p != nil {
		return *p
	}
	if f == FieldLogisticsType {
		return string(it.LogisticsType)
	}
	return ""
}

// SetText assigns a text field and reports whether f is a text field.
// logistics_type is validated against the closed enumeration.
func (it *Item) SetText(f Field, v string) (bool, error) {
	if f == FieldLogisticsType {
		lt, err := ParseLogisticsType(v)
		if err != nil {
			return true, err
		}
		it.LogisticsType = lt
		return true, nil
	}
	p := it.textPtr(f)
	if p == nil {
		return false, nil
	}
	*p = v
	return true, nil
}

func (it *Item) textPtr(f Field) *string {
	switch f {
	case FieldRawName:
		return &it.RawName
	case FieldNormalizedName:
		return &it.NormalizedName
	case FieldSpec:
		return &it.Spec
	case FieldSupplier:
		return &it.Supplier
	case FieldUnit:
		return &it.Unit
	case FieldMaterialGrade:
		return &it.MaterialGrade
	case FieldDescription:
		return &it.Description
	}
	return nil
}

// IsNumeric reports whether f holds a decimal value.
func (f Field) IsNumeric() bool {
	var it Item
	return it.decimalPtr(f) != nil
}

// DisplayName returns the name shown for the item: normalized if known.
func (it *Item) DisplayName() string {
	if it.NormalizedName != "" {
		return it.NormalizedName
	}
	return it.RawName
}

// FormatDecimal renders a nullable decimal for audit and text output.
// Absent values render as "".
func FormatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// ParseDecimal parses user input into a nullable decimal.
// Empty input clears the value.
func ParseDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
