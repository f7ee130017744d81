// sketch.go: the omni-sketch, a D-by-W grid of bounded record-id samples
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// OmniSketch is a D-by-W grid of cells supporting value-lookup,
// set-membership, and bounded-memory ingestion (spec §2 component E). Its
// dimensions (width, depth, sample capacity) are immutable once
// constructed.
type OmniSketch struct {
	width, depth, capacity int
	router                 CellRouter
	kind                   ValueKind

	rows [][]*Cell // rows[row][col]

	recordCount uint64
	nullCount   uint64
	flattened   bool

	hasBounds bool
	min, max  interface{}
}

// NewOmniSketch allocates an empty sketch with the given dimensions and
// the default (Barrett-quadratic) router.
func NewOmniSketch(kind ValueKind, width, depth, capacity int) *OmniSketch {
	return NewOmniSketchWithRouter(kind, width, depth, capacity, DefaultRouter)
}

// NewOmniSketchWithRouter allocates an empty sketch using an explicit
// CellRouter variant.
func NewOmniSketchWithRouter(kind ValueKind, width, depth, capacity int, router CellRouter) *OmniSketch {
	rows := make([][]*Cell, depth)
	for r := range rows {
		row := make([]*Cell, width)
		for c := range row {
			row[c] = NewCell(capacity)
		}
		rows[r] = row
	}
	return &OmniSketch{
		width: width, depth: depth, capacity: capacity,
		router: router, kind: kind, rows: rows,
	}
}

// Width, Depth, and Capacity report the sketch's fixed dimensions.
func (s *OmniSketch) Width() int    { return s.width }
func (s *OmniSketch) Depth() int    { return s.depth }
func (s *OmniSketch) Capacity() int { return s.capacity }

// RecordCount is the total number of non-null records ingested.
func (s *OmniSketch) RecordCount() uint64 { return s.recordCount }

// NullCount is the number of records ingested with a null value.
func (s *OmniSketch) NullCount() uint64 { return s.nullCount }

// Min and Max return the smallest and largest value ingested so far
// (typed trackers used by range-to-point predicate expansion, spec §4.3).
func (s *OmniSketch) Min() (interface{}, bool) { return s.min, s.hasBounds }
func (s *OmniSketch) Max() (interface{}, bool) { return s.max, s.hasBounds }

// columns returns the D cell addresses a value hash routes to.
func (s *OmniSketch) columns(valueHash uint64) []int {
	cols := make([]int, s.depth)
	for r := 0; r < s.depth; r++ {
		cols[r] = s.router.Column(valueHash, r, s.width)
	}
	return cols
}

// cellsFor returns the D cells a value hash routes to.
func (s *OmniSketch) cellsFor(valueHash uint64) []*Cell {
	cols := s.columns(valueHash)
	cells := make([]*Cell, s.depth)
	for r, c := range cols {
		cells[r] = s.rows[r][c]
	}
	return cells
}

// Add ingests (value, rid): the value and rid are hashed, routed to D
// cells (one per row), and each cell is offered the rid hash. Ingestion
// into a flattened sketch is a contract violation. A value whose type
// disagrees with the sketch's declared kind fails with ErrCodeTypeMismatch
// before any cell is touched.
func (s *OmniSketch) Add(value interface{}, rid uint64) error {
	if s.flattened {
		return newErrFlattenedIngest()
	}

	vh, err := HashValue(s.kind, value)
	if err != nil {
		return err
	}
	rh := HashRID(rid)

	for _, cell := range s.cellsFor(vh) {
		cell.Offer(rh)
	}

	s.recordCount++
	s.updateBounds(value)
	return nil
}

// AddNull records a null ingest: only the record and null counters
// advance, no cell is touched. Nulls are invisible to point probes.
func (s *OmniSketch) AddNull() error {
	if s.flattened {
		return newErrFlattenedIngest()
	}
	s.recordCount++
	s.nullCount++
	return nil
}

func (s *OmniSketch) updateBounds(value interface{}) {
	if !s.hasBounds {
		s.min, s.max = value, value
		s.hasBounds = true
		return
	}
	if lessValue(s.kind, value, s.min) {
		s.min = value
	}
	if lessValue(s.kind, s.max, value) {
		s.max = value
	}
}

func lessValue(kind ValueKind, a, b interface{}) bool {
	switch kind {
	case KindInt32:
		return a.(int32) < b.(int32)
	case KindUint64:
		return a.(uint64) < b.(uint64)
	case KindFloat64:
		return a.(float64) < b.(float64)
	case KindString:
		return a.(string) < b.(string)
	default:
		return false
	}
}

// Probe computes the D cell addresses for value, intersects their
// samples, and returns the estimated record count for value together with
// the intersection cell (spec §4.3 "Point probe"). A value whose type
// disagrees with the sketch's declared kind fails with ErrCodeTypeMismatch.
func (s *OmniSketch) Probe(value interface{}) (*Cell, error) {
	vh, err := HashValue(s.kind, value)
	if err != nil {
		return nil, err
	}
	return Intersect(s.cellsFor(vh), 0), nil
}

// ProbeHashedSet evaluates set membership for several values: each value's
// D-cell intersection is computed independently, then the per-value
// samples are unioned; the record count of the result is the sum of the
// per-value record counts (spec §4.3 "Hashed-set probe").
func (s *OmniSketch) ProbeHashedSet(values []interface{}) (*Cell, error) {
	cells := make([]*Cell, len(values))
	for i, v := range values {
		cell, err := s.Probe(v)
		if err != nil {
			return nil, err
		}
		cells[i] = cell
	}
	return Combine(cells), nil
}

// ProbeHash is Probe's hash-already-known variant, used by the pre-joined
// sketch and the planner when only a value hash (not a typed value) is
// available.
func (s *OmniSketch) ProbeHash(valueHash uint64) *Cell {
	return Intersect(s.cellsFor(valueHash), 0)
}

// Flatten replaces every cell's sample with its vector-backed equivalent.
// This is irreversible: ingestion after flattening returns a contract
// violation (spec §4.3 invariants).
func (s *OmniSketch) Flatten() {
	for _, row := range s.rows {
		for _, cell := range row {
			cell.Sample = cell.Sample.Flatten()
		}
	}
	s.flattened = true
}

// IsFlattened reports whether Flatten has been called.
func (s *OmniSketch) IsFlattened() bool { return s.flattened }

// RowRecordCount sums RecordCount across every cell in row r, which must
// equal s.RecordCount() by the per-row invariant of spec §3.
func (s *OmniSketch) RowRecordCount(row int) uint64 {
	var total uint64
	for _, cell := range s.rows[row] {
		total += cell.RecordCount
	}
	return total
}

// AggregateRIDSample returns the sketch-wide sample of rid hashes used
// when no column filter exists: the union of every cell in row 0. This
// backs the "RIDS" aggregate described in spec §6.
func (s *OmniSketch) AggregateRIDSample() *Cell {
	cells := make([]*Cell, len(s.rows[0]))
	copy(cells, s.rows[0])
	return Combine(cells)
}
