package model

import (
	"fmt"
	"time"
)

// SystemOperator is recorded as the operator of system-triggered changes.
const SystemOperator = "system"

// EntityType names the kind of entity an audit entry refers to.
type EntityType string

const (
	EntityFileRecord    EntityType = "file_record"
	EntityMaterialItem  EntityType = "material_item"
	EntityPartItem      EntityType = "part_item"
	EntityLaborItem     EntityType = "labor_item"
	EntityLogisticsItem EntityType = "logistics_item"
	EntityCostSummary   EntityType = "cost_summary"
)

// ParseEntityType converts a stored string to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityFileRecord, EntityMaterialItem, EntityPartItem,
		EntityLaborItem, EntityLogisticsItem, EntityCostSummary:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// AuditAction classifies an audit entry.
type AuditAction string

const (
	ActionCreate  AuditAction = "create"
	ActionUpdate  AuditAction = "update"
	ActionConfirm AuditAction = "confirm"
	ActionSystem  AuditAction = "system"
)

// ParseAuditAction converts a stored string to an AuditAction.
func ParseAuditAction(s string) (AuditAction, error) {
	switch AuditAction(s) {
	case ActionCreate, ActionUpdate, ActionConfirm, ActionSystem:
		return AuditAction(s), nil
	}
	return "", fmt.Errorf("unknown audit action %q", s)
}

// AuditEntry is one append-only audit log record.
// Field is "*" for create entries; Before/After are empty when absent.
type AuditEntry struct {
	Seq        int64       `json:"seq"`
	ProjectID  string      `json:"project_id"`
	EntityType EntityType  `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	Action     AuditAction `json:"action"`
	Field      string      `json:"field"`
	Before     string      `json:"before,omitempty"`
	After      string      `json:"after,omitempty"`
	OperatorID string      `json:"operator_id"`
	Timestamp  time.Time   `json:"timestamp"`
}

// CreateEntry builds the audit entry for a newly created entity.
func CreateEntry(projectID string, et EntityType, id, operatorID string, at time.Time) AuditEntry {
	return AuditEntry{
		ProjectID:  projectID,
		EntityType: et,
		EntityID:   id,
		Action:     ActionCreate,
		Field:      "*",
		OperatorID: operatorID,
		Timestamp:  at,
	}
}

// SystemEntry builds the audit entry for a system-triggered field change.
func SystemEntry(projectID string, et EntityType, id, field, before, after string, at time.Time) AuditEntry {
	return AuditEntry{
		ProjectID:  projectID,
		EntityType: et,
		EntityID:   id,
		Action:     ActionSystem,
		Field:      field,
		Before:     before,
		After:      after,
		OperatorID: SystemOperator,
		Timestamp:  at,
	}
}
