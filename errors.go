// errors.go: structured error handling for omni-sketch operations
//
// Error kinds follow spec §7: contract violations fail fast, structural
// infeasibilities carry offending table/column names, type mismatches
// fail before any state mutates. Numeric edges (empty sample, zero
// denominator) are not errors — they resolve locally to documented
// defaults and never reach this file.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for omni-sketch operations.
const (
	// Contract violations — programmer bugs, fail fast.
	ErrCodeFlattenedIngest   errors.ErrorCode = "OMNISKETCH_FLATTENED_INGEST"
	ErrCodeCapacityMismatch  errors.ErrorCode = "OMNISKETCH_CAPACITY_MISMATCH"
	ErrCodeEmptyCombination  errors.ErrorCode = "OMNISKETCH_EMPTY_COMBINATION"
	ErrCodeInvalidDimensions errors.ErrorCode = "OMNISKETCH_INVALID_DIMENSIONS"

	// Structural infeasibility — query graph or registry faults.
	ErrCodeNotAlphaAcyclic   errors.ErrorCode = "OMNISKETCH_NOT_ALPHA_ACYCLIC"
	ErrCodeUnknownSketch     errors.ErrorCode = "OMNISKETCH_UNKNOWN_SKETCH"
	ErrCodeDanglingEdge      errors.ErrorCode = "OMNISKETCH_DANGLING_EDGE"
	ErrCodeDuplicateEdge     errors.ErrorCode = "OMNISKETCH_DUPLICATE_EDGE"
	ErrCodeUnconnectedNode   errors.ErrorCode = "OMNISKETCH_UNCONNECTED_NODE"

	// Type mismatch — boundary violations.
	ErrCodeTypeMismatch errors.ErrorCode = "OMNISKETCH_TYPE_MISMATCH"
	ErrCodeRangeTooWide errors.ErrorCode = "OMNISKETCH_RANGE_TOO_WIDE"
)

const (
	msgFlattenedIngest   = "cannot ingest into a flattened sketch"
	msgCapacityMismatch  = "cannot combine samples of differing capacities"
	msgEmptyCombination  = "combination requires at least one input"
	msgInvalidDimensions = "sketch width, depth, and sample capacity must be positive"
	msgNotAlphaAcyclic   = "query graph is not alpha-acyclic: reduction stalled"
	msgUnknownSketch     = "registry has no sketch for this table/column"
	msgDanglingEdge      = "join edge references an undeclared table"
	msgDuplicateEdge     = "query graph has a duplicate edge"
	msgUnconnectedNode   = "table has no connections into the join graph"
	msgTypeMismatch      = "value kind does not match the column's declared kind"
	msgRangeTooWide      = "range predicate exceeds the configured expansion cap"
)

// newErrFlattenedIngest reports an ingest attempt on a flattened sketch.
func newErrFlattenedIngest() error {
	return errors.NewWithField(ErrCodeFlattenedIngest, msgFlattenedIngest, "mutator", "ingest")
}

// NewErrCapacityMismatch reports combining samples whose capacities differ
// where the contract requires them to agree.
func NewErrCapacityMismatch(got, want int) error {
	return errors.NewWithContext(ErrCodeCapacityMismatch, msgCapacityMismatch, map[string]interface{}{
		"got_capacity":  got,
		"want_capacity": want,
	})
}

// NewErrEmptyCombination reports Intersect/Combine called with zero
// inputs.
func NewErrEmptyCombination(operation string) error {
	return errors.NewWithField(ErrCodeEmptyCombination, msgEmptyCombination, "operation", operation)
}

// NewErrInvalidDimensions reports a non-positive width, depth, or sample
// capacity passed to a sketch constructor.
func NewErrInvalidDimensions(width, depth, capacity int) error {
	return errors.NewWithContext(ErrCodeInvalidDimensions, msgInvalidDimensions, map[string]interface{}{
		"width": width, "depth": depth, "capacity": capacity,
	})
}

// NewErrNotAlphaAcyclic reports that the reducer stalled: no rule fired
// and more than one node remains.
func NewErrNotAlphaAcyclic(remainingTables []string) error {
	return errors.NewWithContext(ErrCodeNotAlphaAcyclic, msgNotAlphaAcyclic, map[string]interface{}{
		"remaining_tables": remainingTables,
	})
}

// NewErrUnknownSketch reports a registry lookup miss.
func NewErrUnknownSketch(table, column string) error {
	return errors.NewWithContext(ErrCodeUnknownSketch, msgUnknownSketch, map[string]interface{}{
		"table": table, "column": column,
	})
}

// NewErrDanglingEdge reports a join edge naming a table absent from the
// graph.
func NewErrDanglingEdge(table string) error {
	return errors.NewWithField(ErrCodeDanglingEdge, msgDanglingEdge, "table", table)
}

// NewErrDuplicateEdge reports two edges connecting the same pair of
// tables on the same columns.
func NewErrDuplicateEdge(a, b string) error {
	return errors.NewWithContext(ErrCodeDuplicateEdge, msgDuplicateEdge, map[string]interface{}{
		"table_a": a, "table_b": b,
	})
}

// NewErrUnconnectedNode reports a table with no edges in a multi-table
// graph (spec §6 "unconnected relation").
func NewErrUnconnectedNode(table string) error {
	return errors.NewWithField(ErrCodeUnconnectedNode, msgUnconnectedNode, "table", table)
}

// NewErrTypeMismatch reports a value offered to a column whose declared
// kind disagrees.
func NewErrTypeMismatch(table, column string, declared, got ValueKind) error {
	return errors.NewWithContext(ErrCodeTypeMismatch, msgTypeMismatch, map[string]interface{}{
		"table": table, "column": column,
		"declared_kind": declared, "got_kind": got,
	})
}

// NewErrRangeTooWide reports a convertRange call whose span exceeds the
// configured cap.
func NewErrRangeTooWide(span, cap int64) error {
	return errors.NewWithContext(ErrCodeRangeTooWide, msgRangeTooWide, map[string]interface{}{
		"span": span, "cap": cap,
	})
}

// IsStructural reports whether err is a structural-infeasibility error
// (cyclic/disconnected graph, missing registry entry).
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		switch coder.ErrorCode() {
		case ErrCodeNotAlphaAcyclic, ErrCodeUnknownSketch, ErrCodeDanglingEdge,
			ErrCodeDuplicateEdge, ErrCodeUnconnectedNode:
			return true
		}
	}
	return false
}

// IsContractViolation reports whether err indicates a programmer bug
// (ingest into a flattened sketch, mismatched capacities).
func IsContractViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		switch coder.ErrorCode() {
		case ErrCodeFlattenedIngest, ErrCodeCapacityMismatch, ErrCodeEmptyCombination, ErrCodeInvalidDimensions:
			return true
		}
	}
	return false
}

// IsTypeMismatch reports whether err is a type-mismatch error.
func IsTypeMismatch(err error) bool {
	return errors.HasCode(err, ErrCodeTypeMismatch)
}

// GetErrorCode extracts the error code from err, or "" if it carries none.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context map from err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var e *errors.Error
	if goerrors.As(err, &e) {
		return e.Context
	}
	return nil
}
