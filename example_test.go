// example_test.go: godoc examples for omnisketch
//
// These examples appear in the generated documentation on pkg.go.dev
// and are executed as part of the test suite to ensure they remain valid.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package omnisketch_test

import (
	"fmt"

	"github.com/agilira/omnisketch"
)

// ExampleNewOmniSketch demonstrates building a sketch and ingesting rows.
func ExampleNewOmniSketch() {
	sketch := omnisketch.NewOmniSketch(omnisketch.KindInt32, 64, 4, 128)
	for i := int32(0); i < 10; i++ {
		_ = sketch.Add(i%3, uint64(i))
	}

	result, err := sketch.Probe(int32(0))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(result.RecordCount)
	// Output: 4
}

// ExampleOmniSketch_AddNull demonstrates that nulls advance the record and
// null counters but never appear in a point probe.
func ExampleOmniSketch_AddNull() {
	sketch := omnisketch.NewOmniSketch(omnisketch.KindInt32, 64, 4, 128)
	_ = sketch.Add(int32(1), 1)
	_ = sketch.AddNull()
	_ = sketch.AddNull()

	fmt.Println(sketch.RecordCount(), sketch.NullCount())
	// Output: 3 2
}

// ExampleOmniSketch_Flatten demonstrates that flattening a sketch preserves
// probe results while forbidding further ingestion.
func ExampleOmniSketch_Flatten() {
	sketch := omnisketch.NewOmniSketch(omnisketch.KindInt32, 64, 4, 128)
	for i := int32(0); i < 5; i++ {
		_ = sketch.Add(i, uint64(i))
	}
	sketch.Flatten()

	result, err := sketch.Probe(int32(2))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(result.RecordCount)
	fmt.Println(sketch.Add(int32(99), 99) != nil)
	// Output: 1
	// true
}

// ExampleRegistry demonstrates registering a sketch and resolving it back
// by table and column name.
func ExampleRegistry() {
	registry := omnisketch.NewRegistry()
	sketch := omnisketch.NewOmniSketch(omnisketch.KindInt32, 64, 4, 128)
	_ = sketch.Add(int32(7), 1)
	registry.RegisterColumn("orders", "status", sketch)

	card, err := registry.BaseTableCard("orders")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(card)
	// Output: 1
}

// ExampleConvertPoint demonstrates building a point predicate's probe set.
func ExampleConvertPoint() {
	probe, err := omnisketch.ConvertPoint(omnisketch.KindInt32, int32(42))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(probe.RecordCount, probe.Sample.Len())
	// Output: 1 1
}

// ExampleConvertRange demonstrates enumerating an inclusive integer range
// into a probe set.
func ExampleConvertRange() {
	probe, err := omnisketch.ConvertRange(omnisketch.KindInt32, 10, 14, 100)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(probe.RecordCount)
	// Output: 5
}

// ExampleNewQueryGraph demonstrates wiring a fact/dimension join and
// reducing it to a single cardinality estimate.
func ExampleNewQueryGraph() {
	registry := omnisketch.NewRegistry()

	custID := omnisketch.NewOmniSketch(omnisketch.KindInt32, 64, 4, 256)
	for i := 0; i < 10; i++ {
		_ = custID.Add(int32(i), uint64(i))
	}
	registry.RegisterColumn("customers", "id", custID)

	ordersCustID := omnisketch.NewOmniSketch(omnisketch.KindInt32, 64, 4, 256)
	for i := 0; i < 40; i++ {
		_ = ordersCustID.Add(int32(i%10), uint64(i))
	}
	registry.RegisterColumn("orders", "cust_id", ordersCustID)

	point, err := omnisketch.ConvertPoint(omnisketch.KindInt32, int32(0))
	if err != nil {
		fmt.Println(err)
		return
	}

	graph := omnisketch.NewQueryGraph()
	graph.AddFilter("customers", "id", point)
	graph.AddEdge(omnisketch.Edge{ThisTable: "orders", ThisCol: "cust_id", OtherTable: "customers", OtherCol: "id"})

	card, err := omnisketch.NewReducer(registry).Estimate(graph)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(card)
	// Output: 4
}

// ExampleDefaultEstimatorConfig demonstrates the estimator's default tuning
// parameters.
func ExampleDefaultEstimatorConfig() {
	cfg := omnisketch.DefaultEstimatorConfig()
	fmt.Println(cfg.DefaultWidth, cfg.DefaultDepth, cfg.DefaultSampleCapacity)
	// Output: 256 4 128
}
