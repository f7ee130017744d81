// querygraph_test.go: tests for the query hypergraph
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import (
	"testing"

	"github.com/agilira/go-errors"
)

func TestQueryGraph_AddTableAndFilter(t *testing.T) {
	g := NewQueryGraph()
	g.AddTable("orders")
	if g.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", g.NodeCount())
	}

	probe := NewCell(8)
	g.AddFilter("orders", "status", probe)

	n := g.NodeByName("orders")
	if n == nil {
		t.Fatal("NodeByName(\"orders\") returned nil")
	}
	if len(n.Filters) != 1 {
		t.Fatalf("len(Filters) = %d, want 1", len(n.Filters))
	}
	if n.Filters[0].Kind != filterKindDirect {
		t.Errorf("Filters[0].Kind = %v, want filterKindDirect", n.Filters[0].Kind)
	}
	if n.Filters[0].Column != "status" {
		t.Errorf("Filters[0].Column = %q, want \"status\"", n.Filters[0].Column)
	}
}

func TestQueryGraph_AddTable_redeclareIsNoop(t *testing.T) {
	g := NewQueryGraph()
	g.AddTable("orders")
	g.AddFilter("orders", "status", NewCell(4))
	g.AddTable("orders")

	if g.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", g.NodeCount())
	}
	if len(g.NodeByName("orders").Filters) != 1 {
		t.Error("re-declaring a table should not clear its filters")
	}
}

func TestQueryGraph_AddEdge_mirrorsBothSides(t *testing.T) {
	g := NewQueryGraph()
	g.AddTable("orders")
	g.AddTable("customers")
	g.AddEdge(Edge{ThisTable: "orders", ThisCol: "cust_id", OtherTable: "customers", OtherCol: "id"})

	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", g.NodeCount())
	}

	orders := g.NodeByName("orders")
	customers := g.NodeByName("customers")
	if len(orders.Edges) != 1 || len(customers.Edges) != 1 {
		t.Fatalf("expected one mirrored edge on each side, got %d and %d", len(orders.Edges), len(customers.Edges))
	}
	if orders.Edges[0].OtherTable != "customers" {
		t.Errorf("orders edge points at %q, want customers", orders.Edges[0].OtherTable)
	}
	if customers.Edges[0].OtherTable != "orders" {
		t.Errorf("customers edge points at %q, want orders", customers.Edges[0].OtherTable)
	}
	if customers.Edges[0].ThisCol != "id" || customers.Edges[0].OtherCol != "cust_id" {
		t.Errorf("mirrored edge columns wrong: %+v", customers.Edges[0])
	}
}

func TestQueryGraph_AddEdge_declaresMissingTables(t *testing.T) {
	g := NewQueryGraph()
	g.AddEdge(Edge{ThisTable: "a", ThisCol: "x", OtherTable: "b", OtherCol: "y"})
	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", g.NodeCount())
	}
}

func TestQueryGraph_Nodes_insertionOrder(t *testing.T) {
	g := NewQueryGraph()
	g.AddTable("c")
	g.AddTable("a")
	g.AddTable("b")

	names := make([]string, 0, 3)
	for _, n := range g.Nodes() {
		names = append(names, n.Table)
	}
	want := []string{"c", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("Nodes() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Nodes()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestQueryGraph_removeNode_stripsIncidentEdges(t *testing.T) {
	g := NewQueryGraph()
	g.AddEdge(Edge{ThisTable: "a", ThisCol: "x", OtherTable: "b", OtherCol: "y"})
	g.AddEdge(Edge{ThisTable: "b", ThisCol: "y", OtherTable: "c", OtherCol: "z"})

	g.removeNode("b")

	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", g.NodeCount())
	}
	if len(g.NodeByName("a").Edges) != 0 {
		t.Error("expected a's edge to b to be stripped")
	}
	if len(g.NodeByName("c").Edges) != 0 {
		t.Error("expected c's edge to b to be stripped")
	}
}

func TestQueryGraph_removeEdge(t *testing.T) {
	g := NewQueryGraph()
	g.AddEdge(Edge{ThisTable: "a", ThisCol: "x", OtherTable: "b", OtherCol: "y"})

	g.removeEdge("a", "b")

	if len(g.NodeByName("a").Edges) != 0 {
		t.Error("expected a's edge to be removed")
	}
	if len(g.NodeByName("b").Edges) != 0 {
		t.Error("expected b's edge to be removed")
	}
}

func TestQueryGraph_Validate_ok(t *testing.T) {
	g := NewQueryGraph()
	g.AddEdge(Edge{ThisTable: "orders", ThisCol: "cust_id", OtherTable: "customers", OtherCol: "id"})
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestQueryGraph_Validate_singleNodeOk(t *testing.T) {
	g := NewQueryGraph()
	g.AddTable("orders")
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for a lone node", err)
	}
}

func TestQueryGraph_Validate_danglingEdge(t *testing.T) {
	g := NewQueryGraph()
	g.AddTable("orders")
	g.nodes["orders"].Edges = append(g.nodes["orders"].Edges, Edge{
		ThisTable: "orders", ThisCol: "cust_id", OtherTable: "ghost", OtherCol: "id",
	})

	err := g.Validate()
	if err == nil {
		t.Fatal("Validate() should report the dangling edge")
	}
	if !errors.HasCode(err, ErrCodeDanglingEdge) {
		t.Errorf("expected ErrCodeDanglingEdge, got %v", GetErrorCode(err))
	}
}

func TestQueryGraph_Validate_duplicateEdge(t *testing.T) {
	g := NewQueryGraph()
	g.AddEdge(Edge{ThisTable: "a", ThisCol: "x", OtherTable: "b", OtherCol: "y"})
	g.AddEdge(Edge{ThisTable: "a", ThisCol: "x", OtherTable: "b", OtherCol: "y"})

	err := g.Validate()
	if err == nil {
		t.Fatal("Validate() should report the duplicate edge")
	}
	if !errors.HasCode(err, ErrCodeDuplicateEdge) {
		t.Errorf("expected ErrCodeDuplicateEdge, got %v", GetErrorCode(err))
	}
}

func TestQueryGraph_Validate_unconnectedNode(t *testing.T) {
	g := NewQueryGraph()
	g.AddEdge(Edge{ThisTable: "a", ThisCol: "x", OtherTable: "b", OtherCol: "y"})
	g.AddTable("isolated")

	err := g.Validate()
	if err == nil {
		t.Fatal("Validate() should report the unconnected node")
	}
	if !errors.HasCode(err, ErrCodeUnconnectedNode) {
		t.Errorf("expected ErrCodeUnconnectedNode, got %v", GetErrorCode(err))
	}
}

func TestEdgeKey_orderIndependent(t *testing.T) {
	k1 := edgeKey("a", "x", "b", "y")
	k2 := edgeKey("b", "y", "a", "x")
	if k1 != k2 {
		t.Errorf("edgeKey not symmetric: %q != %q", k1, k2)
	}
}
