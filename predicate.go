// predicate.go: predicate conversion and combination (spec §4.6, §6)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// ProbeSet is a cell used as a predicate: its sample holds value hashes to
// look up, its RecordCount holds the true cardinality of the underlying
// predicate (GLOSSARY "Probe set"). It is the same shape as a grid Cell,
// so every Cell accessor — SamplingProbability in particular — applies
// unchanged.
type ProbeSet = Cell

// ConvertPoint builds a probe set for a single-value equality predicate:
// capacity 1, record count 1 (spec §6). A value whose type disagrees with
// kind fails with ErrCodeTypeMismatch.
func ConvertPoint(kind ValueKind, v interface{}) (*ProbeSet, error) {
	hv, err := HashValue(kind, v)
	if err != nil {
		return nil, err
	}
	sample := NewSetSample(1)
	sample.Add(hv)
	return &ProbeSet{Sample: sample, RecordCount: 1}, nil
}

// ConvertRange builds a probe set enumerating every integer value in
// [lo,hi] (integer kinds only: KindInt32 and KindUint64; any other kind
// fails with ErrCodeTypeMismatch). It rejects spans wider than expansionCap
// with ErrCodeRangeTooWide (spec §6).
func ConvertRange(kind ValueKind, lo, hi int64, expansionCap int64) (*ProbeSet, error) {
	if kind != KindInt32 && kind != KindUint64 {
		return nil, NewErrTypeMismatch("", "", kind, kind)
	}
	if hi < lo {
		return &ProbeSet{Sample: NewSetSample(0)}, nil
	}
	span := hi - lo + 1
	if span > expansionCap {
		return nil, NewErrRangeTooWide(span, expansionCap)
	}

	sample := NewSetSample(int(span))
	for v := lo; v <= hi; v++ {
		var hv uint64
		var err error
		if kind == KindInt32 {
			hv, err = HashValue(kind, int32(v))
		} else {
			hv, err = HashValue(kind, uint64(v))
		}
		if err != nil {
			return nil, err
		}
		sample.Add(hv)
	}
	return &ProbeSet{Sample: sample, RecordCount: uint64(span)}, nil
}

// ConvertSet builds a probe set from an explicit list of values (spec §6).
// A value whose type disagrees with kind fails with ErrCodeTypeMismatch.
func ConvertSet(kind ValueKind, values []interface{}) (*ProbeSet, error) {
	sample := NewSetSample(len(values))
	for _, v := range values {
		hv, err := HashValue(kind, v)
		if err != nil {
			return nil, err
		}
		sample.Add(hv)
	}
	return &ProbeSet{Sample: sample, RecordCount: uint64(len(values))}, nil
}

// filterProbeSet narrows probeSet by keeping only the hashes that also hit
// sketch, reporting sketch's own (unscaled) record count as the narrowed
// set's record count — it asserts "these rids exist in sketch", not "this
// many of them do" (spec §4.6 last bullet).
func filterProbeSet(sketch *OmniSketch, probeSet *ProbeSet) *ProbeSet {
	kept := NewSetSample(probeSet.Sample.Capacity())
	for _, h := range probeSet.Sample.All() {
		if sketch.ProbeHash(h).Sample.Len() > 0 {
			kept.Add(h)
		}
	}
	return &ProbeSet{Sample: kept, RecordCount: sketch.RecordCount()}
}

// hitsForProbeSet looks up every hash in probeValues against sketch and
// unions the per-hash hit cells, the shared first step of both combinator
// shapes.
func hitsForProbeSet(sketch *OmniSketch, probeValues *ProbeSet) *Cell {
	hashes := probeValues.Sample.All()
	if len(hashes) == 0 {
		return &Cell{Sample: NewSetSample(sketch.Capacity())}
	}
	cells := make([]*Cell, len(hashes))
	for i, h := range hashes {
		cells[i] = sketch.ProbeHash(h)
	}
	return Combine(cells)
}

// Combinator is the shared predicate-combination contract (spec §4.6):
// accumulate predicates and unfiltered carry-through rids, then compute a
// combined result cell against a base cardinality.
type Combinator interface {
	// AddPredicate folds in one (sketch, probe values) predicate.
	AddPredicate(sketch *OmniSketch, probeValues *ProbeSet)

	// AddUnfilteredRids records the carry-through rid set used when a
	// table has no predicates of its own (e.g. the aggregate rid sample).
	AddUnfilteredRids(rids *ProbeSet)

	// FilterProbeSet narrows probeSet by an additional sketch discovered
	// by the query-graph reducer.
	FilterProbeSet(sketch *OmniSketch, probeSet *ProbeSet) *ProbeSet

	// ComputeResult combines every added predicate against baseCard and
	// caches the result for Finalize.
	ComputeResult(baseCard uint64) *Cell

	// Finalize returns the most recently computed result.
	Finalize() *Cell

	// HasPredicates reports whether any predicate was added.
	HasPredicates() bool
}

// clip01 bounds x to [0,1].
func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// UncorrelatedCombinator assumes predicate independence: the combined
// selectivity is the product of per-predicate selectivities (spec §4.6
// "Uncorrelated", the default shape).
type UncorrelatedCombinator struct {
	capacity    int
	capacitySet bool
	samples     []*Sample
	scaledHits  []float64
	unfiltered  *ProbeSet
	lastResult  *Cell
}

// NewUncorrelatedCombinator returns an empty combinator.
func NewUncorrelatedCombinator() *UncorrelatedCombinator {
	return &UncorrelatedCombinator{}
}

func (u *UncorrelatedCombinator) trackCapacity(cap int) {
	if !u.capacitySet || cap < u.capacity {
		u.capacity, u.capacitySet = cap, true
	}
}

func (u *UncorrelatedCombinator) AddPredicate(sketch *OmniSketch, probeValues *ProbeSet) {
	hits := hitsForProbeSet(sketch, probeValues)
	u.trackCapacity(sketch.Capacity())
	u.samples = append(u.samples, hits.Sample)

	pSample := probeValues.SamplingProbability()
	if pSample <= 0 {
		pSample = 1.0
	}
	u.scaledHits = append(u.scaledHits, float64(hits.RecordCount)/pSample)
}

func (u *UncorrelatedCombinator) AddUnfilteredRids(rids *ProbeSet) { u.unfiltered = rids }

func (u *UncorrelatedCombinator) FilterProbeSet(sketch *OmniSketch, probeSet *ProbeSet) *ProbeSet {
	return filterProbeSet(sketch, probeSet)
}

func (u *UncorrelatedCombinator) HasPredicates() bool { return len(u.scaledHits) > 0 }

func (u *UncorrelatedCombinator) ComputeResult(baseCard uint64) *Cell {
	if !u.HasPredicates() {
		if u.unfiltered != nil {
			u.lastResult = u.unfiltered
			return u.lastResult
		}
		u.lastResult = &Cell{Sample: NewSetSample(0)}
		return u.lastResult
	}

	sel := 1.0
	for _, scaled := range u.scaledHits {
		if baseCard == 0 {
			sel = 0
			break
		}
		sel *= clip01(scaled / float64(baseCard))
	}

	resultSample := IntersectSamples(u.samples, u.capacity)
	estimate := float64(baseCard) * sel

	u.lastResult = &Cell{Sample: resultSample, RecordCount: uint64(round(estimate))}
	return u.lastResult
}

func (u *UncorrelatedCombinator) Finalize() *Cell {
	if u.lastResult == nil {
		return u.ComputeResult(0)
	}
	return u.lastResult
}

// ExhaustiveCombinator walks the Cartesian product of per-probe cells
// instead of assuming independence: used when correlations between
// predicates matter. Cost is multiplicative in the number of probe values
// per predicate; treated as best-effort (spec §9 Open Questions) and never
// the default.
type ExhaustiveCombinator struct {
	capacity    int
	capacitySet bool
	predicates  []exhaustivePredicate
	unfiltered  *ProbeSet
	lastResult  *Cell
}

type exhaustivePredicate struct {
	cells        []*Cell
	samplingProb float64
}

// NewExhaustiveCombinator returns an empty combinator.
func NewExhaustiveCombinator() *ExhaustiveCombinator {
	return &ExhaustiveCombinator{}
}

func (e *ExhaustiveCombinator) trackCapacity(cap int) {
	if !e.capacitySet || cap < e.capacity {
		e.capacity, e.capacitySet = cap, true
	}
}

func (e *ExhaustiveCombinator) AddPredicate(sketch *OmniSketch, probeValues *ProbeSet) {
	hashes := probeValues.Sample.All()
	cells := make([]*Cell, len(hashes))
	for i, h := range hashes {
		cells[i] = sketch.ProbeHash(h)
	}
	e.trackCapacity(sketch.Capacity())

	p := probeValues.SamplingProbability()
	if p <= 0 {
		p = 1.0
	}
	e.predicates = append(e.predicates, exhaustivePredicate{cells: cells, samplingProb: p})
}

func (e *ExhaustiveCombinator) AddUnfilteredRids(rids *ProbeSet) { e.unfiltered = rids }

func (e *ExhaustiveCombinator) FilterProbeSet(sketch *OmniSketch, probeSet *ProbeSet) *ProbeSet {
	return filterProbeSet(sketch, probeSet)
}

func (e *ExhaustiveCombinator) HasPredicates() bool { return len(e.predicates) > 0 }

func (e *ExhaustiveCombinator) ComputeResult(baseCard uint64) *Cell {
	if !e.HasPredicates() {
		if e.unfiltered != nil {
			e.lastResult = e.unfiltered
			return e.lastResult
		}
		e.lastResult = &Cell{Sample: NewSetSample(0)}
		return e.lastResult
	}

	var totalEstimate float64
	var leafSamples []*Sample

	var walk func(idx int, acc *Cell, probProduct float64)
	walk = func(idx int, acc *Cell, probProduct float64) {
		if idx == len(e.predicates) {
			if acc != nil {
				totalEstimate += float64(acc.RecordCount) / probProduct
				leafSamples = append(leafSamples, acc.Sample)
			}
			return
		}
		pred := e.predicates[idx]
		for _, cell := range pred.cells {
			next := cell
			if acc != nil {
				next = Intersect([]*Cell{acc, cell}, e.capacity)
			}
			if next.Sample.Len() == 0 && next.RecordCount == 0 {
				continue
			}
			walk(idx+1, next, probProduct*pred.samplingProb)
		}
	}
	walk(0, nil, 1.0)

	estimate := totalEstimate
	if estimate > float64(baseCard) {
		estimate = float64(baseCard)
	}

	resultSample := UnionSamples(leafSamples, e.capacity)
	e.lastResult = &Cell{Sample: resultSample, RecordCount: uint64(round(estimate))}
	return e.lastResult
}

func (e *ExhaustiveCombinator) Finalize() *Cell {
	if e.lastResult == nil {
		return e.ComputeResult(0)
	}
	return e.lastResult
}
