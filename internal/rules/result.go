package rules

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/costcore/internal/model"
)

// Code is a stable diagnostic code attached to a Result.
type Code string

const (
	// CodeMissingAll: neither the system path nor the declared subtotal is usable.
	CodeMissingAll Code = "MISSING_ALL"

	// CodeMissingSystem: the system path is incomplete; the subtotal is taken on trust.
	CodeMissingSystem Code = "MISSING_SYSTEM"

	// CodeMissingSubtotal: a logistics item has no subtotal.
	CodeMissingSubtotal Code = "MISSING_SUBTOTAL"

	// CodeNegativeValue: a numeric field is negative.
	CodeNegativeValue Code = "NEGATIVE_VALUE"

	// CodeRuleInconsistent: the declared subtotal disagrees with the recomputed one.
	CodeRuleInconsistent Code = "RULE_INCONSISTENT"

	// CodeBundleMultiAnchor: a non-anchor bundle row declares a non-zero subtotal.
	CodeBundleMultiAnchor Code = "BUNDLE_MULTI_ANCHOR"

	// CodeUnknownItem: the item kind has no rule profile.
	CodeUnknownItem Code = "UNKNOWN_ITEM"
)

// Result is the outcome of validating one item.
type Result struct {
	ItemID   string           `json:"item_id"`
	Status   model.ItemStatus `json:"status"`
	Codes    []Code           `json:"error_codes,omitempty"`
	Messages []string         `json:"messages,omitempty"`
}

// HasCode reports whether the result carries code c.
func (r Result) HasCode(c Code) bool {
	for _, rc := range r.Codes {
		if rc == c {
			return true
		}
	}
	return false
}

func (r *Result) block(c Code, msg string) {
	r.Status = model.StatusBlocked
	r.Codes = append(r.Codes, c)
	r.Messages = append(r.Messages, msg)
}

func (r *Result) warn(c Code, msg string) {
	r.Status = model.StatusWarning
	r.Codes = append(r.Codes, c)
	r.Messages = append(r.Messages, msg)
}

// Policy holds the numeric constants of the rules.
type Policy struct {
	// Tolerance is the absolute difference allowed between the declared and
	// the recomputed subtotal.
	Tolerance decimal.Decimal

	// MaterialFactor converts weight_kg * unit_price (price per ton) into cost.
	MaterialFactor decimal.Decimal

	// BundleEpsilon is the magnitude below which a non-anchor subtotal counts as zero.
	BundleEpsilon decimal.Decimal
}

// DefaultPolicy returns tolerance 1, material factor 0.001 and bundle epsilon 1e-8.
func DefaultPolicy() Policy {
	return Policy{
		Tolerance:      decimal.NewFromInt(1),
		MaterialFactor: decimal.New(1, -3),
		BundleEpsilon:  decimal.New(1, -8),
	}
}
