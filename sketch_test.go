// sketch_test.go: unit tests for the omni-sketch grid and its cells
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import "testing"

func TestNewOmniSketch_dimensions(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 16)
	if s.Width() != 64 || s.Depth() != 4 || s.Capacity() != 16 {
		t.Fatalf("got (%d,%d,%d), want (64,4,16)", s.Width(), s.Depth(), s.Capacity())
	}
	if s.RecordCount() != 0 || s.NullCount() != 0 {
		t.Error("a fresh sketch should have zero counts")
	}
	if s.IsFlattened() {
		t.Error("a fresh sketch should not be flattened")
	}
}

func TestOmniSketch_AddAndProbe_exactBelowCapacity(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	for rid := uint64(0); rid < 10; rid++ {
		if err := s.Add(int32(7), rid); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	cell, err := s.Probe(int32(7))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if cell.RecordCount != 10 {
		t.Errorf("RecordCount = %d, want 10 (exact, below capacity)", cell.RecordCount)
	}
}

func TestOmniSketch_Probe_missReturnsZero(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	_ = s.Add(int32(1), 1)
	cell, err := s.Probe(int32(999))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if cell.RecordCount != 0 {
		t.Errorf("RecordCount = %d, want 0 for an absent value", cell.RecordCount)
	}
}

func TestOmniSketch_Probe_rejectsTypeMismatch(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	if _, err := s.Probe("not an int32"); !IsTypeMismatch(err) {
		t.Errorf("Probe with a mismatched value type should be a type mismatch, got %v", err)
	}
}

func TestOmniSketch_AddNull_invisibleToProbe(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	_ = s.Add(int32(5), 1)
	_ = s.AddNull()
	_ = s.AddNull()

	if s.RecordCount() != 3 {
		t.Errorf("RecordCount() = %d, want 3", s.RecordCount())
	}
	if s.NullCount() != 2 {
		t.Errorf("NullCount() = %d, want 2", s.NullCount())
	}
}

func TestOmniSketch_AddAfterFlatten_errors(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	s.Flatten()
	if err := s.Add(int32(1), 1); !IsContractViolation(err) {
		t.Errorf("Add after Flatten should be a contract violation, got %v", err)
	}
	if err := s.AddNull(); !IsContractViolation(err) {
		t.Errorf("AddNull after Flatten should be a contract violation, got %v", err)
	}
}

func TestOmniSketch_Flatten_preservesCounts(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	for rid := uint64(0); rid < 20; rid++ {
		_ = s.Add(int32(3), rid)
	}
	before, err := s.Probe(int32(3))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	s.Flatten()
	after, err := s.Probe(int32(3))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if before.RecordCount != after.RecordCount {
		t.Errorf("RecordCount changed across Flatten: %d -> %d", before.RecordCount, after.RecordCount)
	}
	if !s.IsFlattened() {
		t.Error("IsFlattened() should be true after Flatten")
	}
}

func TestOmniSketch_ProbeHashedSet_sumsRecordCounts(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	for rid := uint64(0); rid < 5; rid++ {
		_ = s.Add(int32(1), rid)
	}
	for rid := uint64(5); rid < 9; rid++ {
		_ = s.Add(int32(2), rid)
	}
	result, err := s.ProbeHashedSet([]interface{}{int32(1), int32(2)})
	if err != nil {
		t.Fatalf("ProbeHashedSet: %v", err)
	}
	if result.RecordCount != 9 {
		t.Errorf("RecordCount = %d, want 9", result.RecordCount)
	}
}

func TestOmniSketch_MinMax_tracksBounds(t *testing.T) {
	s := NewOmniSketch(KindInt32, 64, 4, 128)
	if _, ok := s.Min(); ok {
		t.Error("an empty sketch should report no bounds")
	}
	_ = s.Add(int32(10), 1)
	_ = s.Add(int32(3), 2)
	_ = s.Add(int32(42), 3)

	min, ok := s.Min()
	if !ok || min.(int32) != 3 {
		t.Errorf("Min() = %v, want 3", min)
	}
	max, ok := s.Max()
	if !ok || max.(int32) != 42 {
		t.Errorf("Max() = %v, want 42", max)
	}
}

func TestOmniSketch_RowRecordCount_matchesTotal(t *testing.T) {
	s := NewOmniSketch(KindInt32, 32, 4, 128)
	for rid := uint64(0); rid < 50; rid++ {
		_ = s.Add(int32(rid%7), rid)
	}
	for row := 0; row < s.Depth(); row++ {
		if got := s.RowRecordCount(row); got != s.RecordCount() {
			t.Errorf("row %d record count = %d, want %d", row, got, s.RecordCount())
		}
	}
}

func TestOmniSketch_AggregateRIDSample_unionsRowZero(t *testing.T) {
	s := NewOmniSketch(KindInt32, 32, 4, 128)
	for rid := uint64(0); rid < 30; rid++ {
		_ = s.Add(int32(rid%5), rid)
	}
	agg := s.AggregateRIDSample()
	if agg.RecordCount != s.RecordCount() {
		t.Errorf("AggregateRIDSample RecordCount = %d, want %d", agg.RecordCount, s.RecordCount())
	}
}

func TestCell_OfferAdvancesRecordCount(t *testing.T) {
	c := NewCell(4)
	for i := uint64(0); i < 10; i++ {
		c.Offer(i)
	}
	if c.RecordCount != 10 {
		t.Errorf("RecordCount = %d, want 10", c.RecordCount)
	}
	if c.Sample.Len() > 4 {
		t.Errorf("Sample.Len() = %d, should not exceed capacity 4", c.Sample.Len())
	}
}

func TestCell_MaxSampleCount(t *testing.T) {
	c := NewCell(128)
	if got := c.MaxSampleCount(); got != 128 {
		t.Errorf("MaxSampleCount() = %d, want 128", got)
	}
}

func TestCell_SamplingProbability(t *testing.T) {
	c := NewCell(128)
	if p := c.SamplingProbability(); p != 1.0 {
		t.Errorf("SamplingProbability() on empty cell = %f, want 1.0", p)
	}
	for i := uint64(0); i < 10; i++ {
		c.Offer(i)
	}
	if p := c.SamplingProbability(); p != 1.0 {
		t.Errorf("SamplingProbability() below capacity = %f, want 1.0", p)
	}
}

func TestIntersect_emptyInput(t *testing.T) {
	result := Intersect(nil, 16)
	if result.RecordCount != 0 || result.Sample.Len() != 0 {
		t.Errorf("Intersect(nil) should be an empty cell, got %+v", result)
	}
}

func TestCombine_sumsRecordCounts(t *testing.T) {
	a := NewCell(16)
	b := NewCell(16)
	for i := uint64(0); i < 5; i++ {
		a.Offer(i)
	}
	for i := uint64(100); i < 108; i++ {
		b.Offer(i)
	}
	result := Combine([]*Cell{a, b})
	if result.RecordCount != 13 {
		t.Errorf("Combine RecordCount = %d, want 13", result.RecordCount)
	}
}

func TestEstimateFromSample_exactAndScaled(t *testing.T) {
	if got := estimateFromSample(5, 5, 128); got != 5 {
		t.Errorf("below-capacity estimate = %d, want exact 5", got)
	}
	if got := estimateFromSample(10, 1000, 100); got != 100 {
		t.Errorf("above-capacity estimate = %d, want 100 (10 * 1000/100)", got)
	}
}
