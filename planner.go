// planner.go: plan-node evaluation, the reducer's terminal step (spec §4.7)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import "math"

// probeSource is the subset of OmniSketch/PreJoinedOmniSketch a PlanNode
// needs to evaluate a filter: probe by hash, read the sample capacity and
// base record count, and fall back to the aggregate rid sample when a
// filter carries no probe hashes.
type probeSource interface {
	Capacity() int
	RecordCount() uint64
	ProbeHash(uint64) *Cell
	AggregateRIDSample() *Cell
}

// planFilter is one primary predicate: a column of pn.Table and the probe
// set of value hashes to look up against it.
type planFilter struct {
	Column   string
	ProbeSet *ProbeSet
}

// planSecondaryFilter is a predicate pushed from another table's column,
// evaluated against the pre-joined sketch registered for (table, column)
// over this plan's own table (spec §4.7 rule 1 "secondary sketches on the
// FK side are preferred if present").
type planSecondaryFilter struct {
	Table    string
	Column   string
	ProbeSet *ProbeSet
}

// PKJoinExpansion expands the primary keys in a plan's result through
// foreignKeyNode, keeping only rids that also match there (spec §4.7
// step 4).
type PKJoinExpansion struct {
	ForeignKeyNode *PlanNode
	JoinColumn     string
}

// FKFKJoinExpansion scales a plan's record count by the sibling
// FK-FK-joined subtree's selectivity (spec §4.7 step 5).
type FKFKJoinExpansion struct {
	ThisColumn  string
	OtherNode   *PlanNode
	OtherColumn string
}

// PlanNode accumulates filters and join expansions for one table and
// executes them to produce a result cell (spec §3 "Plan node").
type PlanNode struct {
	Table          string
	BaseCard       uint64
	MaxSampleCount uint64

	Registry *Registry

	filters          []planFilter
	secondaryFilters []planSecondaryFilter
	pkExpansions     []PKJoinExpansion
	fkfkExpansions   []FKFKJoinExpansion
}

// NewPlanNode returns an empty plan for table.
func NewPlanNode(table string, baseCard, maxSampleCount uint64, registry *Registry) *PlanNode {
	return &PlanNode{Table: table, BaseCard: baseCard, MaxSampleCount: maxSampleCount, Registry: registry}
}

// AddFilter adds a primary predicate on one of this table's own columns.
func (pn *PlanNode) AddFilter(column string, probeSet *ProbeSet) {
	pn.filters = append(pn.filters, planFilter{Column: column, ProbeSet: probeSet})
}

// AddSecondaryFilter adds a predicate pushed from table.column, evaluated
// through the pre-joined sketch registered over pn.Table.
func (pn *PlanNode) AddSecondaryFilter(table, column string, probeSet *ProbeSet) {
	pn.secondaryFilters = append(pn.secondaryFilters, planSecondaryFilter{Table: table, Column: column, ProbeSet: probeSet})
}

// AddPKJoinExpansion records a PK-FK expansion through foreignKeyNode.
func (pn *PlanNode) AddPKJoinExpansion(foreignKeyNode *PlanNode, joinColumn string) {
	pn.pkExpansions = append(pn.pkExpansions, PKJoinExpansion{ForeignKeyNode: foreignKeyNode, JoinColumn: joinColumn})
}

// AddFKFKJoinExpansion records an FK-FK expansion against otherNode.
func (pn *PlanNode) AddFKFKJoinExpansion(thisColumn string, otherNode *PlanNode, otherColumn string) {
	pn.fkfkExpansions = append(pn.fkfkExpansions, FKFKJoinExpansion{ThisColumn: thisColumn, OtherNode: otherNode, OtherColumn: otherColumn})
}

// HasFilters reports whether any primary or secondary filter was added.
func (pn *PlanNode) HasFilters() bool {
	return len(pn.filters) > 0 || len(pn.secondaryFilters) > 0
}

// probeResult is one probe-hash's D-cell intersection together with the
// maximum RecordCount among the D cells it routed to.
type probeResult struct {
	NMax uint64
	Rids *Cell
}

// probeResultSet is one filter's probe results plus its sampling
// probability.
type probeResultSet struct {
	PSample float64
	Results []probeResult
}

// estimatePredicate probes sketch with every hash in probeValues, keeping
// only hits. A probe set with zero hashes is the "nulls-only" marker: it
// passes through as "everything except nulls" via the sketch's own
// aggregate rid sample (spec §4.7 step 2).
func estimatePredicate(sketch probeSource, probeValues *ProbeSet) probeResultSet {
	if probeValues.Sample.Len() == 0 {
		return probeResultSet{
			PSample: 1,
			Results: []probeResult{{NMax: sketch.RecordCount(), Rids: sketch.AggregateRIDSample()}},
		}
	}

	rs := probeResultSet{PSample: probeValues.SamplingProbability()}
	for _, h := range probeValues.Sample.All() {
		hit := sketch.ProbeHash(h)
		if hit.RecordCount > 0 {
			rs.Results = append(rs.Results, probeResult{NMax: hit.MaxSampleCount(), Rids: hit})
		}
	}
	if len(rs.Results) == 0 {
		rs.Results = append(rs.Results, probeResult{Rids: &Cell{Sample: NewSetSample(0)}})
	}
	return rs
}

// findMatchesInNextJoin walks the Cartesian product of filter_results
// beyond joinIdx, intersecting the running cell with each candidate match
// and accumulating a scaled cardinality estimate per branch (spec §4.7
// step 3, multi-predicate case). Every recursion leaf's intersection cell
// is appended to *leaves so the caller can fold the matched rids back into
// the result sample, mirroring the original's result->Combine(*intersection_cell).
func findMatchesInNextJoin(filterResults []probeResultSet, current *Cell, joinIdx int, currentNMax uint64, matchCounts []float64, resultCapacity int, leaves *[]*Cell) {
	for _, item := range filterResults[joinIdx].Results {
		intersection := Intersect([]*Cell{current, item.Rids}, resultCapacity)
		if intersection.Sample.Len() == 0 {
			continue
		}

		if item.NMax > currentNMax {
			currentNMax = item.NMax
		}
		cardEst := float64(intersection.Sample.Len())
		if resultCapacity > 0 && currentNMax > uint64(resultCapacity) {
			cardEst = float64(currentNMax) / float64(resultCapacity) * float64(intersection.Sample.Len())
			if cardEst < float64(intersection.Sample.Len()) {
				cardEst = float64(intersection.Sample.Len())
			}
		}
		matchCounts[joinIdx] += cardEst

		if joinIdx < len(filterResults)-1 {
			findMatchesInNextJoin(filterResults, intersection, joinIdx+1, currentNMax, matchCounts, resultCapacity, leaves)
		} else {
			*leaves = append(*leaves, intersection)
		}
	}
}

// Evaluate executes every filter and join expansion and returns the
// resulting cell (spec §4.7 "PlanNode evaluation").
func (pn *PlanNode) Evaluate() (*Cell, error) {
	var filterResults []probeResultSet
	minMaxSampleCount := uint64(math.MaxUint64)

	for _, f := range pn.filters {
		ref, err := pn.Registry.Get(pn.Table, f.Column)
		if err != nil {
			return nil, err
		}
		if cap := uint64(ref.Main.Capacity()); cap < minMaxSampleCount {
			minMaxSampleCount = cap
		}
		filterResults = append(filterResults, estimatePredicate(ref.Main, f.ProbeSet))
	}

	for _, f := range pn.secondaryFilters {
		sketch, err := pn.Registry.GetReferencing(f.Table, f.Column, pn.Table)
		if err != nil {
			return nil, err
		}
		if cap := uint64(sketch.Capacity()); cap < minMaxSampleCount {
			minMaxSampleCount = cap
		}
		filterResults = append(filterResults, estimatePredicate(sketch, f.ProbeSet))
	}

	if minMaxSampleCount == math.MaxUint64 {
		minMaxSampleCount = uint64(pn.Registry.NextBestSampleCount(pn.Table))
	}

	result := &Cell{Sample: NewSetSample(int(minMaxSampleCount))}

	switch {
	case len(filterResults) == 1:
		combineCells := make([]*Cell, 0, len(filterResults[0].Results)+1)
		combineCells = append(combineCells, result)
		for _, m := range filterResults[0].Results {
			combineCells = append(combineCells, m.Rids)
		}
		result = Combine(combineCells)
		pSample := filterResults[0].PSample
		if pSample <= 0 {
			pSample = 1
		}
		result.RecordCount = uint64(round(float64(result.RecordCount) / pSample))

	case len(filterResults) > 1:
		matchCounts := make([]float64, len(filterResults))
		var leaves []*Cell
		for _, pr := range filterResults[0].Results {
			matchCounts[0] += float64(pr.Rids.RecordCount)
			findMatchesInNextJoin(filterResults, pr.Rids, 1, pr.NMax, matchCounts, int(minMaxSampleCount), &leaves)
		}
		if len(leaves) > 0 {
			combined := Combine(append([]*Cell{result}, leaves...))
			result.Sample = combined.Sample
		}

		resultCard := float64(pn.BaseCard)
		for idx := range matchCounts {
			lastCardUnscaled := float64(pn.BaseCard)
			if idx > 0 {
				lastCardUnscaled = matchCounts[idx-1]
			}
			p := filterResults[idx].PSample
			if p <= 0 {
				p = 1
			}
			nextCardScaled := matchCounts[idx] / p
			sel := 0.0
			if lastCardUnscaled != 0 {
				sel = nextCardScaled / lastCardUnscaled
			}
			resultCard *= sel
		}
		result.RecordCount = uint64(round(resultCard))
	}

	if len(filterResults) == 0 {
		rids, err := pn.Registry.AggregateRIDSample(pn.Table)
		if err != nil {
			return nil, err
		}
		result = rids
	}

	for _, exp := range pn.pkExpansions {
		var err error
		result, err = exp.ForeignKeyNode.expandPrimaryKeys(exp.JoinColumn, result)
		if err != nil {
			return nil, err
		}
	}

	multiple, err := pn.fkfkMultiple()
	if err != nil {
		return nil, err
	}
	result.RecordCount = uint64(round(float64(result.RecordCount) * multiple))

	return result, nil
}

// expandPrimaryKeys evaluates pn, then for every rid in primaryKeys keeps
// only those whose match in pn's own column column also survives pn's
// filters, summing the matched record counts. The returned cell keeps
// filteredRids' own sample unchanged; only its record count is replaced
// by the sum over surviving primary keys (spec §4.7 step 4).
func (pn *PlanNode) expandPrimaryKeys(column string, primaryKeys *Cell) (*Cell, error) {
	ref, err := pn.Registry.Get(pn.Table, column)
	if err != nil {
		return nil, err
	}

	filteredRids, err := pn.Evaluate()
	if err != nil {
		return nil, err
	}

	var resultCard uint64
	for _, h := range primaryKeys.Sample.All() {
		probeResult := ref.Main.ProbeHash(h)
		filtered := Intersect([]*Cell{probeResult, filteredRids}, 0)
		if filtered.RecordCount > 0 {
			resultCard += filtered.RecordCount
		}
	}

	filteredRids.RecordCount = resultCard
	return filteredRids, nil
}

// fkfkMultiple computes the uniformity-assumption scaling factor from
// every FK-FK expansion: the sibling subtree's own selectivity times the
// ratio of the FK-FK joint cardinality to this plan's base cardinality
// (spec §4.7 step 5).
func (pn *PlanNode) fkfkMultiple() (float64, error) {
	if len(pn.fkfkExpansions) == 0 {
		return 1.0, nil
	}

	multiple := 1.0
	for _, join := range pn.fkfkExpansions {
		otherEstimate, err := join.OtherNode.Evaluate()
		if err != nil {
			return 0, err
		}
		if join.OtherNode.BaseCard == 0 {
			continue
		}
		multiple *= float64(otherEstimate.RecordCount) / float64(join.OtherNode.BaseCard)

		thisRef, err := pn.Registry.Get(pn.Table, join.ThisColumn)
		if err != nil {
			return 0, err
		}
		otherRef, err := pn.Registry.Get(join.OtherNode.Table, join.OtherColumn)
		if err != nil {
			return 0, err
		}
		combinedCard := multiplyRecordCounts(thisRef.Main, otherRef.Main)
		if pn.BaseCard == 0 {
			continue
		}
		multiple *= float64(combinedCard) / float64(pn.BaseCard)
	}
	return multiple, nil
}

// multiplyRecordCounts estimates the joint cardinality of two FK-FK join
// columns: for each cell present in both grids, the larger of this side's
// own record count and the product of both sides' record counts; a row's
// contribution is the sum across its columns, and the overall estimate is
// the minimum across rows (each row is a complete, independent accounting
// of the same records, so the tightest row bounds the estimate).
func multiplyRecordCounts(a, b *OmniSketch) uint64 {
	const multiplier = 1.0

	depth := a.depth
	if b.depth < depth {
		depth = b.depth
	}
	width := a.width
	if b.width < width {
		width = b.width
	}
	if depth == 0 || width == 0 {
		return 0
	}

	minRowCount := uint64(math.MaxUint64)
	for row := 0; row < depth; row++ {
		var rowCount uint64
		for col := 0; col < width; col++ {
			thisCell := a.rows[row][col]
			otherCell := b.rows[row][col]
			if thisCell.RecordCount == 0 || otherCell.RecordCount == 0 {
				continue
			}
			joint := float64(thisCell.RecordCount) * float64(otherCell.RecordCount) * multiplier
			if float64(thisCell.RecordCount) > joint {
				joint = float64(thisCell.RecordCount)
			}
			rowCount += uint64(round(joint))
		}
		if rowCount < minRowCount {
			minRowCount = rowCount
		}
	}
	return minRowCount
}
