// Package error provides the structured error type shared by all beanval packages.
//
// Package: error
// Title: beanval Error Handling
// Description: Errors raised by the validation engine are unrecoverable
//              problems with metadata, configuration or constraint code.
//              Constraint violations are never errors; they are collected and
//              returned as values by the validator.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-15 v0.2.0: Validation engine codes, errors.Is/As support
//
// Usage:
//
//	import bverror "github.com/msto63/beanval/foundation/core/error"
//
//	err := bverror.New("cyclic dependency in groups definition").
//		WithCode(bverror.CodeGroupCycle).
//		WithDetail("group", "Strict").
//		WithOperation("groups.ComputeGroups")
//
//	if bverror.HasCode(err, bverror.CodeGroupCycle) {
//		// configuration problem, fix the group declarations
//	}
//
// Sentinels created with New(...).WithCode(...) match any error carrying the
// same code through errors.Is.
package error
