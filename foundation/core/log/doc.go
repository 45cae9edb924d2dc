// Package log provides structured logging for beanval.
//
// Package: log
// Title: beanval Structured Logging
// Description: A small structured logger with levels, persistent context
//              fields, correlation ids and JSON or text output. The validator
//              logs plan resolution, cascade decisions and cycle skips at
//              debug level; nothing below warn is written by default.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-15 v0.2.0: Dropped async writer and audit level, added Discard
//
// Usage:
//
//	import bvlog "github.com/msto63/beanval/foundation/core/log"
//
//	logger := bvlog.NewWithConfig(bvlog.Config{Level: bvlog.LevelDebug, Format: bvlog.FormatText}).
//		WithField("component", "validator").
//		WithCorrelationID(runID)
//
//	logger.Debug("cascading into association", bvlog.Fields{"path": "order.customer"})
//
//	timer := logger.StartTimer("validate")
//	// ... validate
//	timer.Stop()
package log
