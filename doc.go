// doc.go: extended package guide beyond the short overview in omnisketch.go
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package omnisketch: extended guide.
//
// # Building a sketch
//
// Sketches are constructed with fixed dimensions and never resized. Width
// and depth bound the worst-case false-positive rate of cell routing;
// capacity bounds per-cell memory and sets the min-hash sample size K used
// to reconstruct cardinalities above K exactly-known matches:
//
//	s := omnisketch.NewOmniSketch(omnisketch.KindInt32, 256, 4, 128)
//	for _, row := range rows {
//	    s.Add(row.Value, row.RID)
//	}
//
// Call Flatten once ingestion is complete to switch every cell's sample to
// its vector-backed representation; further Add calls then report
// ErrCodeFlattenedIngest.
//
// # Registering sketches
//
// A Registry maps table.column to the sketches built over it. Query
// planning always goes through a Registry rather than holding direct
// sketch references, so a reducer can resolve a column by name alone:
//
//	reg := omnisketch.NewRegistry()
//	reg.RegisterColumn("orders", "customer_id", customerSketch)
//	reg.RegisterReferencingColumn("customers", "region", "orders", preJoined)
//
// # Converting predicates
//
// Query-time filters become probe sets before they reach a sketch:
//
//	point, err := omnisketch.ConvertPoint(omnisketch.KindInt32, int32(42))
//	set, err := omnisketch.ConvertSet(omnisketch.KindString, []interface{}{"EU", "US"})
//	span, err := omnisketch.ConvertRange(omnisketch.KindInt32, 100, 200, cfg.RangeExpansionCap)
//
// A Combinator folds several predicates on the same table into one
// result cell. NewUncorrelatedCombinator is the default; it assumes
// predicate independence and multiplies per-predicate selectivities.
//
// # Reducing a query graph
//
// A QueryGraph describes a join pattern: tables, their local predicates,
// and the PK-FK/FK-FK edges between them. A Reducer folds it down to a
// single estimate by repeatedly merging the most constrained table into
// its neighbour, in priority order, until one table remains:
//
//	g := omnisketch.NewQueryGraph()
//	g.AddFilter("orders", "customer_id", point)
//	g.AddEdge(omnisketch.Edge{ThisTable: "orders", ThisCol: "customer_id", OtherTable: "customers"})
//
//	estimate, err := omnisketch.NewReducer(reg).Estimate(g)
//
// The graph must be alpha-acyclic (the shape guaranteed by star and
// snowflake schemas); a cyclic join pattern reports
// ErrCodeNotAlphaAcyclic rather than looping forever.
//
// # Configuration and hot reload
//
// EstimatorConfig carries the dimensions new sketches default to and the
// predicate-conversion range cap. HotConfig wraps it with a file watcher
// so an operator can adjust those defaults without restarting the
// optimizer process; it never mutates sketches already built.
//
// # Errors
//
// Every error returned by the sketches, the registry, predicate conversion
// and the reducer carries a stable ErrCode* and structured context
// (table/column names, observed vs. expected dimensions) via
// github.com/agilira/go-errors, so callers can branch on errors.HasCode
// rather than parsing message text. NewHotConfig's errors (a missing
// config path, or a failure from the file watcher) carry no ErrCode*.
package omnisketch
