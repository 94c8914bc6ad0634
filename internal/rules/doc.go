// Package rules evaluates the completeness and consistency rules for cost
// items.
//
// Rule evaluation is pure: given the current field values of an item (or of
// all members of a part bundle) it returns a Result per item. The only
// mutation performed is toggling Item.Calculable on bundle members; the
// caller decides whether to persist the returned statuses.
//
// Consistency violations are data, not errors. A blocked or warning Result is
// the normal outcome for bad input and is never reported through an error
// return.
package rules
