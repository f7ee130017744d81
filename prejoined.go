// prejoined.go: pre-joined omni-sketch, a dimension sketch joined through
// to a reference sketch at ingest time
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// PreJoinedOmniSketch wraps a reference OmniSketch P (typically the
// primary-key sketch of a fact table). Ingesting (value, secondaryRID)
// first probes P with secondaryRID to obtain a primary-rid representative,
// then routes the dimension value as usual but stores pair-cells
// (primaryRIDHash, secondaryRIDHash) instead of plain rid-hash cells (spec
// §4.4). A later probe on the dimension column returns a cell whose sample
// holds the primary-rid hashes, a ready-made probe set without a
// query-time join; the secondary-rid payloads are not carried into it.
type PreJoinedOmniSketch struct {
	reference *OmniSketch

	width, depth, capacity int
	router                 CellRouter
	kind                   ValueKind

	rows [][]*Cell

	recordCount uint64
}

// NewPreJoinedOmniSketch allocates an empty pre-joined sketch over
// reference, using the default Barrett-quadratic router.
func NewPreJoinedOmniSketch(reference *OmniSketch, kind ValueKind, width, depth, capacity int) *PreJoinedOmniSketch {
	return NewPreJoinedOmniSketchWithRouter(reference, kind, width, depth, capacity, DefaultRouter)
}

// NewPreJoinedOmniSketchWithRouter is NewPreJoinedOmniSketch with an
// explicit CellRouter variant.
func NewPreJoinedOmniSketchWithRouter(reference *OmniSketch, kind ValueKind, width, depth, capacity int, router CellRouter) *PreJoinedOmniSketch {
	rows := make([][]*Cell, depth)
	for r := range rows {
		row := make([]*Cell, width)
		for c := range row {
			row[c] = &Cell{Sample: NewPairSample(capacity)}
		}
		rows[r] = row
	}
	return &PreJoinedOmniSketch{
		reference: reference,
		width:     width, depth: depth, capacity: capacity,
		router: router, kind: kind, rows: rows,
	}
}

// Width, Depth, and Capacity report the sketch's fixed dimensions.
func (p *PreJoinedOmniSketch) Width() int    { return p.width }
func (p *PreJoinedOmniSketch) Depth() int    { return p.depth }
func (p *PreJoinedOmniSketch) Capacity() int { return p.capacity }

// RecordCount is the total number of ingests performed.
func (p *PreJoinedOmniSketch) RecordCount() uint64 { return p.recordCount }

// AggregateRIDSample returns the sketch-wide sample of primary-rid hashes
// used when no column filter exists: the union of every cell in row 0
// (mirrors OmniSketch.AggregateRIDSample).
func (p *PreJoinedOmniSketch) AggregateRIDSample() *Cell {
	cells := make([]*Cell, len(p.rows[0]))
	copy(cells, p.rows[0])
	return Combine(cells)
}

// Add ingests (value, secondaryRID): P is probed with secondaryRID's hash
// to find a primary-rid representative; if P has no hit, the value hash is
// used as a synthetic primary rid so the entry is still recorded (spec
// §9 Open Questions, preserved as specified). Each destination cell's
// record count advances by the number of primary matches observed, at
// least one. A value whose type disagrees with the sketch's declared kind
// fails with ErrCodeTypeMismatch before any cell is touched.
func (p *PreJoinedOmniSketch) Add(value interface{}, secondaryRID uint64) error {
	vh, err := HashValue(p.kind, value)
	if err != nil {
		return err
	}

	sh := HashRID(secondaryRID)
	refCell := p.reference.ProbeHash(sh)

	observed := refCell.Sample.Len()
	primaryHash, hit := firstHash(refCell.Sample)
	if !hit {
		primaryHash = vh
		observed = 1
	}

	cols := make([]int, p.depth)
	for r := 0; r < p.depth; r++ {
		cols[r] = p.router.Column(vh, r, p.width)
	}

	for r, c := range cols {
		cell := p.rows[r][c]
		cell.Sample.AddPair(primaryHash, sh)
		cell.RecordCount += uint64(observed)
	}

	p.recordCount++
	return nil
}

// firstHash returns the smallest valid hash in s, the "first" entry of an
// ascending sample, used as the primary-rid representative.
func firstHash(s *Sample) (uint64, bool) {
	all := s.Iterate(1)
	if len(all) == 0 {
		return 0, false
	}
	return all[0], true
}

// Probe hashes value and delegates to ProbeHash. A value whose type
// disagrees with the sketch's declared kind fails with ErrCodeTypeMismatch.
func (p *PreJoinedOmniSketch) Probe(value interface{}) (*Cell, error) {
	vh, err := HashValue(p.kind, value)
	if err != nil {
		return nil, err
	}
	return p.ProbeHash(vh), nil
}

// ProbeHash computes the D cell addresses for a value hash, intersects
// their pair samples on the primary-rid hash channel, and returns the
// result cell: its sample holds the matching primary-rid hashes (the
// reference sketch's rid hashes, or the value hash where the reference
// had no hit). The secondary-rid payloads are not copied into the result.
func (p *PreJoinedOmniSketch) ProbeHash(valueHash uint64) *Cell {
	cells := make([]*Cell, p.depth)
	for r := 0; r < p.depth; r++ {
		c := p.router.Column(valueHash, r, p.width)
		cells[r] = p.rows[r][c]
	}
	return Intersect(cells, p.capacity)
}
