// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors. Configuration errors raised
//              by the validation engine are high severity; malformed caller
//              input such as an unparsable property path is low severity.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-15 v0.2.0: Severity mapping for validation engine codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a caller input problem (unparsable path, unknown property)
	SeverityLow Severity = iota
	
	// SeverityMedium is the default for errors that have not been classified
	SeverityMedium
	
	// SeverityHigh indicates broken metadata or configuration
	SeverityHigh
	
	// SeverityCritical indicates an internal invariant was broken
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Level returns the numeric level of the severity (0-3)
func (s Severity) Level() int {
	return int(s)
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeInternal:
		return SeverityCritical

	case CodeInvalidGroup, CodeGroupCycle, CodeInvalidSequence, CodeMetadata,
		CodeUnknownConstraint, CodeInvalidConstraint, CodeConstraintEvaluation,
		CodeConfigError, CodeInvalidConfig, CodeMissingConfig:
		return SeverityHigh

	case CodeTraversableResolution:
		return SeverityMedium

	case CodeInvalidInput, CodeNotFound, CodeInvalidPath, CodeUnknownProperty,
		CodeValidationFailed:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
