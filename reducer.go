// reducer.go: the query-graph reducer, repeatedly applying four priority
// rules until a single plan node remains (spec §4.7 "Query graph reducer")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import "math"

// Reducer drives a QueryGraph to a single PlanNode by repeatedly applying,
// in priority order, the four merge rules below — each pass tries the
// rules in order and takes the first one that fires. The graph must be
// alpha-acyclic: if no rule can fire while more than one table remains,
// reduction reports ErrCodeNotAlphaAcyclic.
type Reducer struct {
	Registry *Registry
}

// NewReducer returns a reducer bound to registry.
func NewReducer(registry *Registry) *Reducer {
	return &Reducer{Registry: registry}
}

// Estimate reduces graph to a single table and evaluates its plan,
// returning the estimated cardinality.
func (rd *Reducer) Estimate(graph *QueryGraph) (uint64, error) {
	if err := graph.Validate(); err != nil {
		return 0, err
	}

	for graph.NodeCount() > 1 {
		merged, err := rd.tryMergeSingleConnection(graph)
		if err != nil {
			return 0, err
		}
		if !merged {
			if merged, err = rd.tryMergeSingleFKFKConnection(graph); err != nil {
				return 0, err
			}
		}
		if !merged {
			if merged, err = rd.tryMergeMultiPKConnection(graph); err != nil {
				return 0, err
			}
		}
		if !merged {
			if merged, err = rd.tryExpandPKConnection(graph); err != nil {
				return 0, err
			}
		}
		if !merged {
			return 0, NewErrNotAlphaAcyclic(remainingTables(graph))
		}
	}

	nodes := graph.Nodes()
	if len(nodes) == 0 {
		return 0, nil
	}
	node := nodes[0]

	baseCard, err := rd.Registry.BaseTableCard(node.Table)
	if err != nil {
		return 0, err
	}
	plan := NewPlanNode(node.Table, baseCard, math.MaxUint64, rd.Registry)
	for _, f := range node.Filters {
		applyFilterToPlan(plan, f)
	}

	result, err := plan.Evaluate()
	if err != nil {
		return 0, err
	}
	return result.RecordCount, nil
}

func remainingTables(graph *QueryGraph) []string {
	nodes := graph.Nodes()
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Table
	}
	return names
}

// applyFilterToPlan dispatches one TableFilter onto plan according to its
// Kind (spec §4.7; grounds QueryGraph::AddFilterToPlan, translated as an
// explicit tag rather than inferred from which optional fields are set).
func applyFilterToPlan(plan *PlanNode, f TableFilter) {
	switch f.Kind {
	case filterKindSecondary:
		plan.AddSecondaryFilter(f.FromTable, f.Column, f.ProbeSet)
	case filterKindFKFK:
		plan.AddFKFKJoinExpansion(f.Column, f.OtherPlan, f.OtherColumn)
	case filterKindPKExpansion:
		plan.AddPKJoinExpansion(f.OtherPlan, f.OtherColumn)
	default:
		plan.AddFilter(f.Column, f.ProbeSet)
	}
}

// minCapacityForFilters returns the smallest sample capacity among the
// sketches backing filters' named columns against table, falling back to
// the registry's next-best capacity when none apply (mirrors the
// sample_count accumulation repeated across query_graph.cpp's Try* rules).
func (rd *Reducer) minCapacityForFilters(table string, filters []TableFilter) uint64 {
	best := -1
	for _, f := range filters {
		if f.Column == "" {
			continue
		}
		ref, err := rd.Registry.Get(table, f.Column)
		if err != nil {
			continue
		}
		if cap := ref.Main.Capacity(); best < 0 || cap < best {
			best = cap
		}
	}
	if best < 0 {
		return uint64(rd.Registry.NextBestSampleCount(table))
	}
	return uint64(best)
}

// tryMergeSingleConnection is rule 1: a table with exactly one edge to a
// foreign-key-side neighbour is fully absorbed into that neighbour's plan
// (query_graph.cpp TryMergeSingleConnection).
func (rd *Reducer) tryMergeSingleConnection(graph *QueryGraph) (bool, error) {
	for _, node := range graph.Nodes() {
		if len(node.Edges) != 1 {
			continue
		}
		edge := node.Edges[0]
		if edge.OtherCol == "" || edge.IsFKFK {
			// Either this node is itself the FK side of the connection
			// (it can only be merged in by rule 4), or both sides are
			// foreign keys (rule 2's job).
			continue
		}

		otherNode := graph.NodeByName(edge.OtherTable)
		if err := rd.mergePKSideIntoFKSide(node, otherNode, edge); err != nil {
			return false, err
		}
		graph.removeNode(node.Table)
		return true, nil
	}
	return false, nil
}

// mergePKSideIntoFKSide folds node's filters into otherNode: filters whose
// column has a pre-joined sketch registered over otherNode push through as
// secondary filters directly; the rest are evaluated locally into a single
// probe set pushed as a direct filter on otherNode's join column. When node
// carries no filters at all, a null-probe marker is pushed if the FK column
// itself contains nulls (query_graph.cpp MergePkSideIntoFkSide).
func (rd *Reducer) mergePKSideIntoFKSide(node, otherNode *Node, edge Edge) error {
	var remaining []TableFilter

	for _, f := range node.Filters {
		if _, err := rd.Registry.GetReferencing(node.Table, f.Column, edge.OtherTable); err == nil {
			otherNode.Filters = append(otherNode.Filters, TableFilter{
				Kind: filterKindSecondary, Column: f.Column, ProbeSet: f.ProbeSet, FromTable: node.Table,
			})
			continue
		}
		remaining = append(remaining, f)
	}

	if len(remaining) > 0 {
		baseCard, err := rd.Registry.BaseTableCard(node.Table)
		if err != nil {
			return err
		}
		plan := NewPlanNode(node.Table, baseCard, rd.minCapacityForFilters(node.Table, remaining), rd.Registry)
		for _, f := range remaining {
			applyFilterToPlan(plan, f)
		}
		result, err := plan.Evaluate()
		if err != nil {
			return err
		}
		otherNode.Filters = append(otherNode.Filters, TableFilter{
			Kind: filterKindDirect, Column: edge.OtherCol, ProbeSet: result,
		})
	}

	if len(node.Filters) == 0 {
		ref, err := rd.Registry.Get(edge.OtherTable, edge.OtherCol)
		if err != nil {
			return err
		}
		if ref.Main.NullCount() > 0 {
			otherNode.Filters = append(otherNode.Filters, TableFilter{
				Kind: filterKindDirect, Column: edge.OtherCol, ProbeSet: &ProbeSet{Sample: NewSetSample(0)},
			})
		}
	}
	return nil
}

// tryMergeSingleFKFKConnection is rule 2: a table with exactly one FK-FK
// edge is reduced to a plan and pushed as an FKFKJoinExpansion onto its
// neighbour, deferring when the neighbour is itself a single-connection
// node with fewer filters (query_graph.cpp TryMergeSingleFkFkConnection).
func (rd *Reducer) tryMergeSingleFKFKConnection(graph *QueryGraph) (bool, error) {
	for _, node := range graph.Nodes() {
		if len(node.Edges) != 1 {
			continue
		}
		edge := node.Edges[0]
		if edge.OtherCol == "" || !edge.IsFKFK {
			continue
		}

		otherNode := graph.NodeByName(edge.OtherTable)
		if len(otherNode.Edges) == 1 && len(otherNode.Filters) < len(node.Filters) {
			continue
		}

		baseCard, err := rd.Registry.BaseTableCard(node.Table)
		if err != nil {
			return false, err
		}
		plan := NewPlanNode(node.Table, baseCard, rd.minCapacityForFilters(node.Table, node.Filters), rd.Registry)
		for _, f := range node.Filters {
			applyFilterToPlan(plan, f)
		}

		otherNode.Filters = append(otherNode.Filters, TableFilter{
			Kind: filterKindFKFK, Column: edge.OtherCol, OtherColumn: edge.ThisCol, OtherPlan: plan,
		})

		graph.removeNode(node.Table)
		return true, nil
	}
	return false, nil
}

// tryMergeMultiPKConnection is rule 3: a table whose every remaining edge
// is a PK-side or FK-FK connection is reduced to a plan; if its neighbours
// form a single cycle the table is absorbed entirely, otherwise only
// enough edges are cut to break each cycle (query_graph.cpp
// TryMergeMultiPkConnection).
func (rd *Reducer) tryMergeMultiPKConnection(graph *QueryGraph) (bool, error) {
	for _, node := range graph.Nodes() {
		hasUnresolvedFKJoin := false
		for _, e := range node.Edges {
			if e.ThisCol != "" && !e.IsFKFK {
				hasUnresolvedFKJoin = true
				break
			}
		}
		if hasUnresolvedFKJoin {
			continue
		}

		baseCard, err := rd.Registry.BaseTableCard(node.Table)
		if err != nil {
			return false, err
		}
		plan := NewPlanNode(node.Table, baseCard, rd.minCapacityForFilters(node.Table, node.Filters), rd.Registry)
		for _, f := range node.Filters {
			applyFilterToPlan(plan, f)
		}

		cycles := rd.findCycles(graph, node.Table)
		edges := append([]Edge(nil), node.Edges...)

		if len(cycles) == 1 {
			for _, e := range edges {
				otherNode := graph.NodeByName(e.OtherTable)
				if e.IsFKFK {
					otherNode.Filters = append(otherNode.Filters, TableFilter{
						Kind: filterKindFKFK, Column: e.OtherCol, OtherColumn: e.ThisCol, OtherPlan: plan,
					})
				} else if err := rd.mergePKSideIntoFKSide(node, otherNode, e); err != nil {
					return false, err
				}
			}
			graph.removeNode(node.Table)
			return true, nil
		}

		for _, cycle := range cycles {
			for i := 0; i < len(cycle)-1; i++ {
				target := cycle[i]
				for _, e := range edges {
					if e.OtherTable != target {
						continue
					}
					otherNode := graph.NodeByName(e.OtherTable)
					if e.IsFKFK {
						otherNode.Filters = append(otherNode.Filters, TableFilter{
							Kind: filterKindFKFK, Column: e.OtherCol, OtherColumn: e.ThisCol, OtherPlan: plan,
						})
					} else if err := rd.mergePKSideIntoFKSide(node, otherNode, e); err != nil {
						return false, err
					}
					graph.removeEdge(node.Table, e.OtherTable)
				}
			}
		}
		return true, nil
	}
	return false, nil
}

// findCycles groups node's neighbours by connected component, excluding
// edges that pass back through table, mirroring query_graph.cpp's
// FindCycles (a connected component here signals a cycle back to table
// through more than one path).
func (rd *Reducer) findCycles(graph *QueryGraph, table string) [][]string {
	node := graph.NodeByName(table)

	remaining := make(map[string]bool)
	var order []string
	for _, e := range node.Edges {
		if !remaining[e.OtherTable] {
			remaining[e.OtherTable] = true
			order = append(order, e.OtherTable)
		}
	}

	var result [][]string
	for len(remaining) > 0 {
		var start string
		for _, name := range order {
			if remaining[name] {
				start = name
				break
			}
		}

		inComponent := map[string]bool{table: true, start: true}
		queue := []string{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, e := range graph.NodeByName(cur).Edges {
				if !inComponent[e.OtherTable] {
					inComponent[e.OtherTable] = true
					queue = append(queue, e.OtherTable)
				}
			}
		}

		var component []string
		for _, name := range order {
			if remaining[name] && inComponent[name] {
				component = append(component, name)
				delete(remaining, name)
			}
		}
		result = append(result, component)
	}
	return result
}

// tryExpandPKConnection is rule 4: a PK-side table with an FK-side
// neighbour that itself has no other connections is reduced to a plan and
// pushed as a PKJoinExpansion onto the PK-side table (query_graph.cpp
// TryExpandPkConnection).
func (rd *Reducer) tryExpandPKConnection(graph *QueryGraph) (bool, error) {
	for _, node := range graph.Nodes() {
		for _, conn := range node.Edges {
			if conn.IsFKFK || conn.ThisCol != "" {
				continue
			}
			otherNode := graph.NodeByName(conn.OtherTable)
			if len(otherNode.Edges) != 1 {
				continue
			}

			var sampleCount uint64
			if len(otherNode.Filters) == 0 {
				sampleCount = 1024
			} else {
				sampleCount = rd.minCapacityForFilters(conn.OtherTable, otherNode.Filters)
			}

			baseCard, err := rd.Registry.BaseTableCard(conn.OtherTable)
			if err != nil {
				return false, err
			}
			plan := NewPlanNode(conn.OtherTable, baseCard, sampleCount, rd.Registry)
			for _, f := range otherNode.Filters {
				applyFilterToPlan(plan, f)
			}

			node.Filters = append(node.Filters, TableFilter{
				Kind: filterKindPKExpansion, OtherColumn: conn.OtherCol, OtherPlan: plan,
			})
			graph.removeNode(conn.OtherTable)
			return true, nil
		}
	}
	return false, nil
}
