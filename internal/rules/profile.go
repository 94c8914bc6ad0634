package rules

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/costcore/internal/model"
)

// profile describes how the shared rule shape applies to one item kind.
type profile struct {
	// system lists the numeric fields of the system-computed path.
	system []model.Field

	// systemText lists text fields the system path also requires.
	systemText []model.Field

	// nonNegative lists every numeric field that must not be negative.
	nonNegative []model.Field

	// expected recomputes the subtotal from the system path.
	// nil means the kind has no system path and the subtotal is authoritative.
	expected func(p Policy, it *model.Item) decimal.Decimal

	// formula is shown when the consistency check fails.
	formula string
}

var profiles = map[model.ItemKind]profile{
	model.ItemMaterial: {
		system:      []model.Field{model.FieldWeightKg, model.FieldUnitPrice},
		nonNegative: []model.Field{model.FieldQuantity, model.FieldWeightKg, model.FieldUnitPrice, model.FieldSubtotal},
		expected: func(p Policy, it *model.Item) decimal.Decimal {
			return it.WeightKg.Decimal.Mul(it.UnitPrice.Decimal).Mul(p.MaterialFactor)
		},
		formula: "subtotal = weight_kg * unit_price * 0.001 (unit price is per ton)",
	},
	model.ItemPart: {
		system:      []model.Field{model.FieldQuantity, model.FieldUnitPrice},
		nonNegative: []model.Field{model.FieldQuantity, model.FieldUnitPrice, model.FieldSubtotal},
		expected: func(_ Policy, it *model.Item) decimal.Decimal {
			return it.Quantity.Decimal.Mul(it.UnitPrice.Decimal)
		},
		formula: "subtotal = quantity * unit_price",
	},
	model.ItemLabor: {
		system:     []model.Field{model.FieldQuantity, model.FieldUnitPrice, model.FieldExtraSubsidy, model.FieldTonBonus},
		systemText: []model.Field{model.FieldUnit},
		nonNegative: []model.Field{
			model.FieldQuantity, model.FieldUnitPrice, model.FieldExtraSubsidy,
			model.FieldTonBonus, model.FieldSubtotal,
		},
		expected: func(_ Policy, it *model.Item) decimal.Decimal {
			return it.Quantity.Decimal.Mul(it.UnitPrice.Decimal).
				Add(it.ExtraSubsidy.Decimal).
				Add(it.TonBonus.Decimal)
		},
		formula: "subtotal = quantity * unit_price + extra_subsidy + ton_bonus",
	},
	model.ItemLogistics: {
		nonNegative: []model.Field{model.FieldSubtotal},
	},
}

// completeness classifies which cost paths an item provides.
type completeness struct {
	system  bool
	manual  bool
	missing []model.Field // system-path fields that are absent
}

func (p profile) completeness(it *model.Item) completeness {
	var c completeness
	for _, f := range p.system {
		if !it.Decimal(f).Valid {
			c.missing = append(c.missing, f)
		}
	}
	for _, f := range p.systemText {
		if it.Text(f) == "" {
			c.missing = append(c.missing, f)
		}
	}
	c.system = len(p.system) > 0 && len(c.missing) == 0
	c.manual = it.Subtotal.Valid
	return c
}

// negatives returns the numeric fields of it that hold a negative value.
func (p profile) negatives(it *model.Item) []model.Field {
	var out []model.Field
	for _, f := range p.nonNegative {
		if v := it.Decimal(f); v.Valid && v.Decimal.IsNegative() {
			out = append(out, f)
		}
	}
	return out
}
