// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes reported by the validation engine and
//              its collaborators (metadata providers, mapping loaders, config).
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-15 v0.2.0: Replaced platform codes with validation engine codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"

	// Group model
	CodeInvalidGroup    Code = "INVALID_GROUP"
	CodeGroupCycle      Code = "GROUP_CYCLE"
	CodeInvalidSequence Code = "INVALID_SEQUENCE"

	// Path model
	CodeInvalidPath Code = "INVALID_PATH"

	// Metadata and constraints
	CodeMetadata              Code = "METADATA"
	CodeUnknownProperty       Code = "UNKNOWN_PROPERTY"
	CodeUnknownConstraint     Code = "UNKNOWN_CONSTRAINT"
	CodeInvalidConstraint     Code = "INVALID_CONSTRAINT"
	CodeConstraintEvaluation  Code = "CONSTRAINT_EVALUATION"
	CodeTraversableResolution Code = "TRAVERSABLE_RESOLUTION"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
	CodeMissingConfig Code = "MISSING_CONFIG"

	// Outcome of a validation run, used by callers that turn violations into an error
	CodeValidationFailed Code = "VALIDATION_FAILED"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsConfiguration reports whether the code denotes an unrecoverable
// configuration problem rather than bad data.
func (c Code) IsConfiguration() bool {
	switch c {
	case CodeInvalidGroup, CodeGroupCycle, CodeInvalidSequence,
		CodeMetadata, CodeUnknownConstraint, CodeInvalidConstraint,
		CodeConfigError, CodeInvalidConfig, CodeMissingConfig:
		return true
	default:
		return false
	}
}
