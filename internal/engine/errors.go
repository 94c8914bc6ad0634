package engine

import (
	"errors"
	"fmt"
)

// Failure is a typed, expected rejection of an operation. Anything else
// returned by the engine is a system fault.
//
// Failures fall into three kinds:
//   - Input: the request names something that does not exist or does not fit
//   - Business rule: the request is well-formed but the data is not ready
//   - Irreversible conflict: the target is locked and can never change
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind

	// Code identifies the failure; stable across releases.
	Code FailureCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context such as file or item ids.
	Details map[string]string
}

// FailureKind categorizes failures.
type FailureKind string

const (
	KindInput                FailureKind = "input"
	KindBusinessRule         FailureKind = "business_rule"
	KindIrreversibleConflict FailureKind = "irreversible_conflict"
)

// FailureCode identifies a failure.
type FailureCode string

const (
	// Input
	CodeInvalidRequest      FailureCode = "INVALID_REQUEST"
	CodeFileNotFound        FailureCode = "FILE_NOT_FOUND"
	CodeFileProjectMismatch FailureCode = "FILE_PROJECT_MISMATCH"
	CodeFileKindMismatch    FailureCode = "FILE_KIND_MISMATCH"
	CodeItemNotFound        FailureCode = "ITEM_NOT_FOUND"
	CodeFieldNotEditable    FailureCode = "FIELD_NOT_EDITABLE"
	CodeInvalidFieldValue   FailureCode = "INVALID_FIELD_VALUE"

	// Business rule
	CodeFileNotParsed            FailureCode = "FILE_NOT_PARSED"
	CodeFileNotValidated         FailureCode = "FILE_NOT_VALIDATED"
	CodeFileNotPending           FailureCode = "FILE_NOT_PENDING"
	CodeParseFailed              FailureCode = "PARSE_FAILED"
	CodeItemNotWarning           FailureCode = "ITEM_NOT_WARNING"
	CodeManualItemNotConfirmable FailureCode = "MANUAL_ITEM_NOT_CONFIRMABLE"

	// Irreversible conflict
	CodeFileLocked FailureCode = "FILE_LOCKED"
)

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// AsFailure extracts a Failure from err. Uses errors.As to handle wrapped errors.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsFailure reports whether err is, or wraps, a Failure.
func IsFailure(err error) bool {
	_, ok := AsFailure(err)
	return ok
}

// CodeOf returns the failure code of err, or "" if err is not a Failure.
func CodeOf(err error) FailureCode {
	if f, ok := AsFailure(err); ok {
		return f.Code
	}
	return ""
}

func newFailure(kind FailureKind, code FailureCode, details map[string]string, format string, args ...any) *Failure {
	return &Failure{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: details,
	}
}

func inputFailure(code FailureCode, details map[string]string, format string, args ...any) *Failure {
	return newFailure(KindInput, code, details, format, args...)
}

func businessFailure(code FailureCode, details map[string]string, format string, args ...any) *Failure {
	return newFailure(KindBusinessRule, code, details, format, args...)
}

// fileLocked builds the irreversible-conflict failure for a locked file.
func fileLocked(fileID string) *Failure {
	return newFailure(KindIrreversibleConflict, CodeFileLocked,
		map[string]string{"file_id": fileID},
		"file %s is locked by a cost snapshot", fileID)
}

func fileNotFound(fileID string) *Failure {
	return inputFailure(CodeFileNotFound, map[string]string{"file_id": fileID}, "file %s not found", fileID)
}
