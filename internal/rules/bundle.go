package rules

import (
	"sort"

	"github.com/roach88/costcore/internal/model"
)

const (
	msgNoAnchor       = "no row in the bundle carries a usable cost; fill in quantity, unit_price or subtotal"
	msgMultiAnchor    = "another row already carries this bundle's cost; set this row's subtotal to 0"
	msgExcludedAnchor = "bundle member without its own cost; excluded from totals"
)

// anchor priority classes, best first
const (
	classFull = iota
	classSystemOnly
	classManualOnly
	classNone
)

// ResolveBundle validates the members of one part bundle. Exactly one member,
// the anchor, may carry the bundle's cost.
//
// The anchor is the first row (by RowNo) with both paths present, else the
// first with only the system path, else the first with only a subtotal.
// Without an anchor every member is blocked with MISSING_ALL. Non-anchor rows
// with a negative field are blocked with NEGATIVE_VALUE; rows with a non-zero
// subtotal are blocked with BUNDLE_MULTI_ANCHOR; the rest are marked not
// calculable and ok. The anchor is marked calculable and validated as a single
// item.
//
// Results are returned in the order of items.
func (v *Validator) ResolveBundle(items []*model.Item) []Result {
	ordered := make([]*model.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RowNo < ordered[j].RowNo })

	byID := make(map[string]Result, len(items))

	anchor := v.selectAnchor(ordered)
	if anchor == nil {
		for _, it := range ordered {
			r := Result{ItemID: it.ID}
			r.block(CodeMissingAll, msgNoAnchor)
			byID[it.ID] = r
		}
		return collect(items, byID)
	}

	for _, it := range ordered {
		if it == anchor {
			continue
		}
		r := Result{ItemID: it.ID, Status: model.StatusOK}
		prof := profiles[it.Kind]
		if neg := prof.negatives(it); len(neg) > 0 {
			blockNegative(&r, neg)
		} else if it.Subtotal.Valid && it.Subtotal.Decimal.Abs().GreaterThan(v.policy.BundleEpsilon) {
			r.block(CodeBundleMultiAnchor, msgMultiAnchor)
		} else {
			it.Calculable = false
			r.Messages = append(r.Messages, msgExcludedAnchor)
		}
		byID[it.ID] = r
	}

	anchor.Calculable = true
	byID[anchor.ID] = v.Validate(anchor)

	return collect(items, byID)
}

func (v *Validator) selectAnchor(ordered []*model.Item) *model.Item {
	best, bestClass := (*model.Item)(nil), classNone
	for _, it := range ordered {
		if c := classify(it); c < bestClass {
			best, bestClass = it, c
		}
	}
	return best
}

func classify(it *model.Item) int {
	prof, ok := profiles[it.Kind]
	if !ok {
		return classNone
	}
	c := prof.completeness(it)
	switch {
	case c.system && c.manual:
		return classFull
	case c.system:
		return classSystemOnly
	case c.manual:
		return classManualOnly
	}
	return classNone
}

// ValidateParts validates all part items of one file. Items sharing a bundle
// key form a bundle and go through ResolveBundle; items without a key, or
// alone under their key, are validated singly and are always calculable.
//
// Results are returned in the order of items.
func (v *Validator) ValidateParts(items []*model.Item) []Result {
	groups := make(map[int64][]*model.Item)
	for _, it := range items {
		if it.BundleKey != nil {
			groups[*it.BundleKey] = append(groups[*it.BundleKey], it)
		}
	}

	byID := make(map[string]Result, len(items))
	done := make(map[int64]bool)
	for _, it := range items {
		if it.BundleKey == nil || len(groups[*it.BundleKey]) < 2 {
			it.Calculable = true
			byID[it.ID] = v.Validate(it)
			continue
		}
		key := *it.BundleKey
		if done[key] {
			continue
		}
		done[key] = true
		members := groups[key]
		for i, r := range v.ResolveBundle(members) {
			byID[members[i].ID] = r
		}
	}
	return collect(items, byID)
}

func collect(items []*model.Item, byID map[string]Result) []Result {
	out := make([]Result, len(items))
	for i, it := range items {
		out[i] = byID[it.ID]
	}
	return out
}
