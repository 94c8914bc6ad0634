package rules

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/costcore/internal/model"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func material(id, weight, price, subtotal string) *model.Item {
	it := &model.Item{ID: id, Kind: model.ItemMaterial, Status: model.StatusWarning, Calculable: true}
	if weight != "" {
		it.WeightKg = dec(weight)
	}
	if price != "" {
		it.UnitPrice = dec(price)
	}
	if subtotal != "" {
		it.Subtotal = dec(subtotal)
	}
	return it
}

func part(id string, row int, qty, price, subtotal string) *model.Item {
	it := &model.Item{ID: id, Kind: model.ItemPart, RowNo: row, Status: model.StatusWarning, Calculable: true}
	if qty != "" {
		it.Quantity = dec(qty)
	}
	if price != "" {
		it.UnitPrice = dec(price)
	}
	if subtotal != "" {
		it.Subtotal = dec(subtotal)
	}
	return it
}

func withBundle(key int64, items ...*model.Item) []*model.Item {
	for _, it := range items {
		k := key
		it.BundleKey = &k
	}
	return items
}
