package model

import "fmt"

// FileKind identifies what a FileRecord contains.
type FileKind string

const (
	FileMaterial     FileKind = "material"
	FilePart         FileKind = "part"
	FileLabor        FileKind = "labor"
	FileLogistics    FileKind = "logistics"
	FileMaterialPlan FileKind = "material_plan"
	FilePartPlan     FileKind = "part_plan"
	FileManual       FileKind = "manual"
)

var fileKinds = []FileKind{
	FileMaterial, FilePart, FileLabor, FileLogistics,
	FileMaterialPlan, FilePartPlan, FileManual,
}

// ParseFileKind converts a string to a FileKind.
func ParseFileKind(s string) (FileKind, error) {
	for _, k := range fileKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown file kind %q", s)
}

// IsPlan reports whether the kind is evidence only. Plan files never own items.
func (k FileKind) IsPlan() bool {
	return k == FileMaterialPlan || k == FilePartPlan
}

// ItemKind returns the kind of item a file of this kind owns.
// Plan kinds own nothing and return ok=false.
func (k FileKind) ItemKind() (ItemKind, bool) {
	switch k {
	case FileMaterial:
		return ItemMaterial, true
	case FilePart:
		return ItemPart, true
	case FileLabor:
		return ItemLabor, true
	case FileLogistics, FileManual:
		return ItemLogistics, true
	}
	return "", false
}

// ItemKind identifies one of the four cost item variants.
type ItemKind string

const (
	ItemMaterial  ItemKind = "material"
	ItemPart      ItemKind = "part"
	ItemLabor     ItemKind = "labor"
	ItemLogistics ItemKind = "logistics"
)

// ItemKinds lists the item kinds in snapshot order.
var ItemKinds = []ItemKind{ItemMaterial, ItemPart, ItemLabor, ItemLogistics}

// ParseItemKind converts a string to an ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	for _, k := range ItemKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// EntityType returns the audit entity type for items of this kind.
func (k ItemKind) EntityType() EntityType {
	switch k {
	case ItemMaterial:
		return EntityMaterialItem
	case ItemPart:
		return EntityPartItem
	case ItemLabor:
		return EntityLaborItem
	default:
		return EntityLogisticsItem
	}
}

// ParseStatus is the parse lifecycle of a FileRecord.
//
//	pending -> parsed
//	pending -> failed
type ParseStatus string

const (
	ParsePending ParseStatus = "pending"
	ParseParsed  ParseStatus = "parsed"
	ParseFailed  ParseStatus = "failed"
)

// ParseParseStatus converts a string to a ParseStatus.
func ParseParseStatus(s string) (ParseStatus, error) {
	switch ParseStatus(s) {
	case ParsePending, ParseParsed, ParseFailed:
		return ParseStatus(s), nil
	}
	return "", fmt.Errorf("unknown parse status %q", s)
}

// CanTransition reports whether a parse status may move to next.
// parsed and failed are terminal; a retry is a new file version.
func (s ParseStatus) CanTransition(next ParseStatus) bool {
	return s == ParsePending && (next == ParseParsed || next == ParseFailed)
}

// ValidationStatus is the aggregated validation outcome of a FileRecord.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationOK        ValidationStatus = "ok"
	ValidationWarning   ValidationStatus = "warning"
	ValidationConfirmed ValidationStatus = "confirmed"
	ValidationBlocked   ValidationStatus = "blocked"
)

// ParseValidationStatus converts a string to a ValidationStatus.
func ParseValidationStatus(s string) (ValidationStatus, error) {
	switch ValidationStatus(s) {
	case ValidationPending, ValidationOK, ValidationWarning, ValidationConfirmed, ValidationBlocked:
		return ValidationStatus(s), nil
	}
	return "", fmt.Errorf("unknown validation status %q", s)
}

// ItemStatus is the system-owned validation status of a single cost item.
// warning -> confirmed is the only transition a human may trigger.
type ItemStatus string

const (
	StatusOK        ItemStatus = "ok"
	StatusWarning   ItemStatus = "warning"
	StatusConfirmed ItemStatus = "confirmed"
	StatusBlocked   ItemStatus = "blocked"
)

// ParseItemStatus converts a string to an ItemStatus.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case StatusOK, StatusWarning, StatusConfirmed, StatusBlocked:
		return ItemStatus(s), nil
	}
	return "", fmt.Errorf("unknown item status %q", s)
}

// AggregateStatus folds item statuses into a file status by priority:
// blocked > warning > confirmed > ok. No items aggregates to ok.
func AggregateStatus(statuses []ItemStatus) ValidationStatus {
	var warning, confirmed bool
	for _, s := range statuses {
		switch s {
		case StatusBlocked:
			return ValidationBlocked
		case StatusWarning:
			warning = true
		case StatusConfirmed:
			confirmed = true
		}
	}
	if warning {
		return ValidationWarning
	}
	if confirmed {
		return ValidationConfirmed
	}
	return ValidationOK
}

// SummaryStatus is the lifecycle of a CostSummary. active -> replaced only.
type SummaryStatus string

const (
	SummaryActive   SummaryStatus = "active"
	SummaryReplaced SummaryStatus = "replaced"
)

// ParseSummaryStatus converts a string to a SummaryStatus.
func ParseSummaryStatus(s string) (SummaryStatus, error) {
	switch SummaryStatus(s) {
	case SummaryActive, SummaryReplaced:
		return SummaryStatus(s), nil
	}
	return "", fmt.Errorf("unknown summary status %q", s)
}

// LogisticsType categorizes a logistics cost.
type LogisticsType string

const (
	LogisticsTransport    LogisticsType = "transport"
	LogisticsInstallation LogisticsType = "installation"
	LogisticsOther        LogisticsType = "other"
)

// ParseLogisticsType converts a string to a LogisticsType.
// Empty input maps to other.
func ParseLogisticsType(s string) (LogisticsType, error) {
	switch LogisticsType(s) {
	case LogisticsTransport, LogisticsInstallation, LogisticsOther:
		return LogisticsType(s), nil
	case "":
		return LogisticsOther, nil
	}
	return "", fmt.Errorf("unknown logistics type %q", s)
}
