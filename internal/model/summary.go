package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostSummary is an immutable, versioned snapshot of project cost computed
// from four locked source files. The only permitted mutation is
// active -> replaced, which stamps InvalidatedAt and ReplacesID.
type CostSummary struct {
	ID                 string        `json:"id"`
	ProjectID          string        `json:"project_id"`
	CalculationVersion int64         `json:"calculation_version"`
	Status             SummaryStatus `json:"status"`

	MaterialCost  decimal.Decimal `json:"material_cost"`
	PartCost      decimal.Decimal `json:"part_cost"`
	LaborCost     decimal.Decimal `json:"labor_cost"`
	LogisticsCost decimal.Decimal `json:"logistics_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`

	MaterialFile  FileRef `json:"material_file"`
	PartFile      FileRef `json:"part_file"`
	LaborFile     FileRef `json:"labor_file"`
	LogisticsFile FileRef `json:"logistics_file"`

	// ReplacesID is set on a replaced summary and names the snapshot that
	// superseded it.
	ReplacesID    string     `json:"replaces_id,omitempty"`
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty"`
	CalculatedAt  time.Time  `json:"calculated_at"`
	OperatorID    string     `json:"operator_id"`
}

// FileRef pins the exact file version a summary was computed from.
type FileRef struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

// FileIDs returns the four source file ids in material, part, labor,
// logistics order.
func (s *CostSummary) FileIDs() []string {
	return []string{s.MaterialFile.ID, s.PartFile.ID, s.LaborFile.ID, s.LogisticsFile.ID}
}
