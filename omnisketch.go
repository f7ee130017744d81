// Package omnisketch implements the omni-sketch: a bounded-memory synopsis
// that estimates join and selection cardinalities over star/snowflake
// schemas without executing the underlying query.
//
// An OmniSketch is a D-by-W grid of cells, each holding a bounded min-hash
// sample of record-id hashes plus an exact per-cell record counter. Point
// and set probes intersect or union the cells a value routes to and
// reconstruct a cardinality estimate from the surviving sample, exact
// whenever the true cardinality does not exceed the sample capacity K.
//
// Example usage:
//
//	s := omnisketch.NewOmniSketch(omnisketch.KindInt32, 256, 4, 128)
//	s.Add(int32(42), rid)
//	cell, err := s.Probe(int32(42))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cell.RecordCount)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// Version of the omnisketch library.
const Version = "v0.1.0-dev"
