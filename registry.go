// registry.go: process-wide table/column name resolver
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// ColumnRef holds the sketches registered for one table column: the main
// sketch built over the table's own rows, plus any referencing sketches —
// pre-joined sketches built over a foreign table's rows, keyed by that
// table's name (SPEC_FULL §12.1, spec §3 "Registry").
type ColumnRef struct {
	Main        *OmniSketch
	Referencing map[string]*PreJoinedOmniSketch
}

// Registry is a process-wide name resolver: table_name -> column_name ->
// ColumnRef. Construct it before the first query, populate it fully, then
// treat it as read-only; Clear resets it atomically for test reuse (spec
// §5 "Shared resources").
type Registry struct {
	tables map[string]map[string]*ColumnRef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]map[string]*ColumnRef)}
}

// RegisterColumn installs table.column's main sketch. It is a contract
// violation to register the same table.column twice with different
// sketches; a repeat registration with the same sketch is a no-op.
func (r *Registry) RegisterColumn(table, column string, sketch *OmniSketch) {
	ref := r.columnRef(table, column)
	ref.Main = sketch
}

// RegisterReferencingColumn installs a pre-joined sketch built over
// referencingTable's rows for table.column, used when a dimension
// predicate needs to be evaluated pre-joined through to a specific fact
// table (spec §4.4).
func (r *Registry) RegisterReferencingColumn(table, column, referencingTable string, sketch *PreJoinedOmniSketch) {
	ref := r.columnRef(table, column)
	if ref.Referencing == nil {
		ref.Referencing = make(map[string]*PreJoinedOmniSketch)
	}
	ref.Referencing[referencingTable] = sketch
}

func (r *Registry) columnRef(table, column string) *ColumnRef {
	cols, ok := r.tables[table]
	if !ok {
		cols = make(map[string]*ColumnRef)
		r.tables[table] = cols
	}
	ref, ok := cols[column]
	if !ok {
		ref = &ColumnRef{}
		cols[column] = ref
	}
	return ref
}

// Get looks up table.column's ColumnRef. It reports ErrCodeUnknownSketch
// if the table or column was never registered.
func (r *Registry) Get(table, column string) (*ColumnRef, error) {
	cols, ok := r.tables[table]
	if !ok {
		return nil, NewErrUnknownSketch(table, column)
	}
	ref, ok := cols[column]
	if !ok || ref.Main == nil {
		return nil, NewErrUnknownSketch(table, column)
	}
	return ref, nil
}

// GetReferencing looks up the pre-joined sketch for table.column built
// over referencingTable, falling back to ErrCodeUnknownSketch when absent.
func (r *Registry) GetReferencing(table, column, referencingTable string) (*PreJoinedOmniSketch, error) {
	ref, ok := r.tables[table][column]
	if !ok {
		return nil, NewErrUnknownSketch(table, column)
	}
	sketch, ok := ref.Referencing[referencingTable]
	if !ok {
		return nil, NewErrUnknownSketch(table, column)
	}
	return sketch, nil
}

// Clear resets the registry to empty, an atomic whole-registry reset
// intended for tests (spec §3 "Registry" lifetime note).
func (r *Registry) Clear() {
	r.tables = make(map[string]map[string]*ColumnRef)
}

// AnySketch returns any one of table's registered main sketches, used to
// read the table's base row count or aggregate rid sample when a plan has
// no column filters of its own to supply one.
func (r *Registry) AnySketch(table string) (*OmniSketch, error) {
	cols, ok := r.tables[table]
	if !ok {
		return nil, NewErrUnknownSketch(table, "")
	}
	for _, ref := range cols {
		if ref.Main != nil {
			return ref.Main, nil
		}
	}
	return nil, NewErrUnknownSketch(table, "")
}

// BaseTableCard reports table's row count, read off any of its registered
// sketches (every column sketch of a table shares the same RecordCount,
// spec §4.3 invariants).
func (r *Registry) BaseTableCard(table string) (uint64, error) {
	sketch, err := r.AnySketch(table)
	if err != nil {
		return 0, err
	}
	return sketch.RecordCount(), nil
}

// AggregateRIDSample returns table's sketch-wide rid sample, used when a
// plan node has no filters at all (spec §4.7 step 1 "PK-FK Join Expansion"
// fallback).
func (r *Registry) AggregateRIDSample(table string) (*Cell, error) {
	sketch, err := r.AnySketch(table)
	if err != nil {
		return nil, err
	}
	return sketch.AggregateRIDSample(), nil
}

// NextBestSampleCount returns a sample capacity to build a PlanNode's
// result cell with when it has no filters to derive one from directly.
func (r *Registry) NextBestSampleCount(table string) int {
	if sketch, err := r.AnySketch(table); err == nil {
		return sketch.Capacity()
	}
	return DefaultSampleCapacity
}
