package rules

import (
	"fmt"
	"strings"

	"github.com/roach88/costcore/internal/model"
)

const msgConfirmed = "confirmed by operator; rules apply again once its fields change"

// Validator evaluates items under a Policy. It holds no mutable state and is
// safe for concurrent use.
type Validator struct {
	policy Policy
}

// New returns a Validator using policy p.
func New(p Policy) *Validator {
	return &Validator{policy: p}
}

// Default returns a Validator using DefaultPolicy.
func Default() *Validator {
	return New(DefaultPolicy())
}

// Policy returns the validator's policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate applies the single-item rules to it.
//
// Evaluation order:
//  1. confirmed items short-circuit and stay confirmed
//  2. any negative numeric field blocks (NEGATIVE_VALUE)
//  3. completeness: no usable path blocks (MISSING_ALL); an incomplete
//     system path with a subtotal warns (MISSING_SYSTEM)
//  4. consistency, only while still ok with both paths present
//     (RULE_INCONSISTENT beyond the tolerance)
func (v *Validator) Validate(it *model.Item) Result {
	if it.Status == model.StatusConfirmed {
		return Result{
			ItemID:   it.ID,
			Status:   model.StatusConfirmed,
			Messages: []string{msgConfirmed},
		}
	}

	res := Result{ItemID: it.ID, Status: model.StatusOK}

	prof, ok := profiles[it.Kind]
	if !ok {
		res.block(CodeUnknownItem, fmt.Sprintf("unknown item kind %q", it.Kind))
		return res
	}

	if neg := prof.negatives(it); len(neg) > 0 {
		blockNegative(&res, neg)
		return res
	}

	// Logistics: the subtotal is the only path.
	if prof.expected == nil {
		if !it.Subtotal.Valid {
			res.block(CodeMissingSubtotal, "subtotal is missing")
		}
		return res
	}

	c := prof.completeness(it)
	switch {
	case !c.system && !c.manual:
		res.block(CodeMissingAll, fmt.Sprintf("missing %s and subtotal", joinFields(c.missing)))
		return res
	case !c.system:
		res.warn(CodeMissingSystem, fmt.Sprintf("missing %s; subtotal accepted on trust", joinFields(c.missing)))
	}

	if res.Status == model.StatusOK && c.system && c.manual {
		expected := prof.expected(v.policy, it)
		if expected.Sub(it.Subtotal.Decimal).Abs().GreaterThan(v.policy.Tolerance) {
			res.block(CodeRuleInconsistent, fmt.Sprintf(
				"subtotal %s does not match expected %s: %s",
				it.Subtotal.Decimal.String(), expected.String(), prof.formula,
			))
		}
	}

	return res
}

func blockNegative(res *Result, fields []model.Field) {
	res.Status = model.StatusBlocked
	res.Codes = append(res.Codes, CodeNegativeValue)
	for _, f := range fields {
		res.Messages = append(res.Messages, fmt.Sprintf("%s is negative", f))
	}
}

func joinFields(fs []model.Field) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
