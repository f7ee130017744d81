// querygraph.go: the query hypergraph reduced by the reducer (spec §3, §4.7)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// filterKind tags how a TableFilter should be applied to the PlanNode built
// for its owning table (spec §4.7; mirrors the reducer's AddFilterToPlan
// dispatch, made an explicit tag instead of inferring the case from which
// optional fields are set).
type filterKind uint8

const (
	// filterKindDirect is a plain predicate on this node's own column.
	filterKindDirect filterKind = iota
	// filterKindSecondary is a predicate pushed from another table's
	// column, to be evaluated through a pre-joined sketch registered over
	// this node's table.
	filterKindSecondary
	// filterKindFKFK pushes an FK-FK join expansion: the neighbour's
	// already-reduced PlanNode scales this node's result.
	filterKindFKFK
	// filterKindPKExpansion pushes a PK-FK join expansion: the
	// neighbour's already-reduced PlanNode narrows this node's result to
	// the rids that also survive there.
	filterKindPKExpansion
)

// TableFilter is one predicate or join-expansion attached to a query-graph
// node, applied to the node's eventual PlanNode according to Kind.
type TableFilter struct {
	Kind     filterKind
	Column   string
	ProbeSet *ProbeSet

	FromTable string // filterKindSecondary: the table the predicate was pushed from

	OtherPlan   *PlanNode // filterKindFKFK / filterKindPKExpansion: the neighbour's reduced plan
	OtherColumn string    // filterKindFKFK / filterKindPKExpansion: the join column on the neighbour's side
}

// Edge connects two query-graph nodes. OtherCol is empty for a PK->FK edge
// (the nameless endpoint names the primary-key table); IsFKFK marks an
// edge where both sides are foreign keys (spec §3 "Query graph node").
type Edge struct {
	ThisTable, ThisCol   string
	OtherTable, OtherCol string
	IsFKFK               bool
}

// Node is one table in the query hypergraph, decorated with its filters
// and its incident edges.
type Node struct {
	Table   string
	Filters []TableFilter
	Edges   []Edge
}

// QueryGraph is a hypergraph of tables and join edges, reduced by a
// Reducer to a single PlanNode (spec §4.7).
type QueryGraph struct {
	nodes map[string]*Node
	order []string // insertion order, for deterministic iteration
}

// NewQueryGraph returns an empty graph.
func NewQueryGraph() *QueryGraph {
	return &QueryGraph{nodes: make(map[string]*Node)}
}

// AddTable declares a table node. Re-declaring an existing table is a
// no-op.
func (g *QueryGraph) AddTable(table string) {
	if _, ok := g.nodes[table]; ok {
		return
	}
	g.nodes[table] = &Node{Table: table}
	g.order = append(g.order, table)
}

// AddFilter attaches a predicate to an already-declared table.
func (g *QueryGraph) AddFilter(table, column string, probeSet *ProbeSet) {
	g.AddTable(table)
	n := g.nodes[table]
	n.Filters = append(n.Filters, TableFilter{Kind: filterKindDirect, Column: column, ProbeSet: probeSet})
}

// AddEdge declares a join edge between two already-declared tables.
func (g *QueryGraph) AddEdge(e Edge) {
	g.AddTable(e.ThisTable)
	g.AddTable(e.OtherTable)
	g.nodes[e.ThisTable].Edges = append(g.nodes[e.ThisTable].Edges, e)
	g.nodes[e.OtherTable].Edges = append(g.nodes[e.OtherTable].Edges, Edge{
		ThisTable: e.OtherTable, ThisCol: e.OtherCol,
		OtherTable: e.ThisTable, OtherCol: e.ThisCol,
		IsFKFK: e.IsFKFK,
	})
}

// NodeCount reports how many tables remain in the graph.
func (g *QueryGraph) NodeCount() int { return len(g.nodes) }

// NodeByName returns table's node, or nil if it was never declared or has
// since been removed by reduction.
func (g *QueryGraph) NodeByName(table string) *Node { return g.nodes[table] }

// Nodes returns the graph's tables in insertion order, skipping any that
// have been removed by reduction.
func (g *QueryGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, name := range g.order {
		if n, ok := g.nodes[name]; ok {
			out = append(out, n)
		}
	}
	return out
}

// removeNode deletes table from the graph and strips any edge pointing at
// it from its former neighbours.
func (g *QueryGraph) removeNode(table string) {
	delete(g.nodes, table)
	for _, n := range g.nodes {
		kept := n.Edges[:0]
		for _, e := range n.Edges {
			if e.OtherTable != table {
				kept = append(kept, e)
			}
		}
		n.Edges = kept
	}
}

// removeEdge deletes the edge between a and b from both sides.
func (g *QueryGraph) removeEdge(a, b string) {
	if n, ok := g.nodes[a]; ok {
		kept := n.Edges[:0]
		for _, e := range n.Edges {
			if e.OtherTable != b {
				kept = append(kept, e)
			}
		}
		n.Edges = kept
	}
	if n, ok := g.nodes[b]; ok {
		kept := n.Edges[:0]
		for _, e := range n.Edges {
			if e.OtherTable != a {
				kept = append(kept, e)
			}
		}
		n.Edges = kept
	}
}

// Validate checks structural well-formedness before reduction runs: every
// edge must reference two declared tables, and no two edges may connect
// the same pair of tables on the same columns (SPEC_FULL §12.4, a
// defensive addition in the spirit of EstimatorConfig.Validate).
func (g *QueryGraph) Validate() error {
	seen := make(map[string]bool)
	for table, n := range g.nodes {
		for _, e := range n.Edges {
			if _, ok := g.nodes[e.OtherTable]; !ok {
				return NewErrDanglingEdge(e.OtherTable)
			}
			// AddEdge installs a mirrored entry on both endpoints; count
			// each logical edge once, from its lexicographically smaller
			// side.
			if table > e.OtherTable {
				continue
			}
			key := edgeKey(table, e.ThisCol, e.OtherTable, e.OtherCol)
			if seen[key] {
				return NewErrDuplicateEdge(table, e.OtherTable)
			}
			seen[key] = true
		}
	}
	if len(g.nodes) > 1 {
		for table, n := range g.nodes {
			if len(n.Edges) == 0 {
				return NewErrUnconnectedNode(table)
			}
		}
	}
	return nil
}

func edgeKey(a, aCol, b, bCol string) string {
	if a > b {
		a, b = b, a
		aCol, bCol = bCol, aCol
	}
	return a + "." + aCol + "=" + b + "." + bCol
}
