// Package model defines the persisted shapes of the cost engine: file records,
// cost items, cost summaries and audit entries, plus the closed enumerations
// that describe their lifecycles.
//
// This package contains types and pure helpers only. Every other internal
// package imports model; model imports nothing internal.
//
// Key design constraints:
//   - Money and quantities are exact decimals (shopspring/decimal), never floats
//   - Nullable numeric fields use decimal.NullDecimal; absence is meaningful
//     to the validation rules and must not collapse to zero
//   - Every enumeration has a Parse function that rejects unknown values;
//     store scans and CLI flags go through it
//   - All JSON tags use snake_case
package model
