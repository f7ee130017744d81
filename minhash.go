// minhash.go: bounded sorted min-hash samples and their algebra
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

import "sort"

// SampleKind tags which physical representation a Sample currently uses.
// All three share one iterator+algebra contract (spec §9 "Polymorphism");
// the tag exists for diagnostics and to pick the right constructor, not to
// drive a runtime type switch on the hot path.
type SampleKind uint8

const (
	// KindSortedSet is the live, insert-heavy representation: O(log K)
	// binary-search insertion into a dense sorted slice.
	KindSortedSet SampleKind = iota
	// KindSortedVector is a flattened, scan-only copy produced by Flatten.
	KindSortedVector
	// KindKeyValue carries a payload hash alongside each entry, used by
	// pre-joined sketches to remember the secondary-side rid.
	KindKeyValue
)

// sampleEntry is one (hash, payload) pair. payload is unused (zero) for
// plain samples.
type sampleEntry struct {
	hash    uint64
	payload uint64
}

// Sample is a bounded sorted multiset of hashes with capacity K: it holds
// the K smallest distinct hashes ever offered, or all of them if fewer
// than K distinct hashes were offered (spec §3). Entries are kept in
// ascending order at all times; an optional validity bitmap marks entries
// that have been logically erased without shifting subsequent positions.
type Sample struct {
	kind     SampleKind
	capacity int
	entries  []sampleEntry
	valid    []bool // nil until the first Erase; nil means "all valid"
}

// NewSetSample returns an empty sorted-set sample of the given capacity.
func NewSetSample(capacity int) *Sample {
	return &Sample{kind: KindSortedSet, capacity: capacity}
}

// NewPairSample returns an empty key-value sample of the given capacity,
// ordered by the primary hash with a payload hash riding along (used by
// PreJoinedOmniSketch).
func NewPairSample(capacity int) *Sample {
	return &Sample{kind: KindKeyValue, capacity: capacity}
}

// Kind reports which physical representation this sample currently uses.
func (s *Sample) Kind() SampleKind { return s.kind }

// Capacity returns K, the maximum number of entries this sample can hold.
func (s *Sample) Capacity() int { return s.capacity }

// Len returns the number of valid (non-erased) entries.
func (s *Sample) Len() int {
	if s.valid == nil {
		return len(s.entries)
	}
	n := 0
	for _, v := range s.valid {
		if v {
			n++
		}
	}
	return n
}

func (s *Sample) isValid(i int) bool {
	return s.valid == nil || s.valid[i]
}

// Max returns the largest valid hash in the sample, and whether one
// exists.
func (s *Sample) Max() (uint64, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.isValid(i) {
			return s.entries[i].hash, true
		}
	}
	return 0, false
}

// indexOf returns the insertion point for h, and whether h is already
// present (valid or erased) at that point.
func (s *Sample) indexOf(h uint64) (int, bool) {
	lo, hi := 0, len(s.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.entries[mid].hash < h {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(s.entries) && s.entries[lo].hash == h
}

func (s *Sample) insertAt(idx int, e sampleEntry) {
	s.entries = append(s.entries, sampleEntry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = e

	if s.valid != nil {
		s.valid = append(s.valid, false)
		copy(s.valid[idx+1:], s.valid[idx:])
		s.valid[idx] = true
	}
}

func (s *Sample) removeLast() {
	s.entries = s.entries[:len(s.entries)-1]
	if s.valid != nil {
		s.valid = s.valid[:len(s.valid)-1]
	}
}

// Add offers a hash to the sample: if under capacity it is inserted; if at
// capacity and smaller than the current maximum, it is inserted and the
// maximum is evicted; duplicates are idempotent.
func (s *Sample) Add(h uint64) {
	s.AddPair(h, 0)
}

// AddPair offers a (hash, payload) entry, preserving the hash-ordered
// bound-by-K algebra; payload rides along for key-value samples.
func (s *Sample) AddPair(h, payload uint64) {
	if _, found := s.indexOf(h); found {
		return // duplicates are idempotent, including previously erased ones
	}

	if len(s.entries) < s.capacity {
		idx, _ := s.indexOf(h)
		s.insertAt(idx, sampleEntry{hash: h, payload: payload})
		return
	}

	maxH, ok := s.Max()
	if !ok {
		maxH = s.entries[len(s.entries)-1].hash
	}
	if h < maxH {
		s.removeLast()
		idx, _ := s.indexOf(h)
		s.insertAt(idx, sampleEntry{hash: h, payload: payload})
	}
}

// Erase marks the entry for h as logically invalid without shifting
// subsequent positions. Returns true if an active entry was erased.
func (s *Sample) Erase(h uint64) bool {
	idx, found := s.indexOf(h)
	if !found {
		return false
	}
	if s.valid == nil {
		s.valid = make([]bool, len(s.entries))
		for i := range s.valid {
			s.valid[i] = true
		}
	}
	if !s.valid[idx] {
		return false
	}
	s.valid[idx] = false
	return true
}

// Flatten produces a compact vector-backed copy retaining the same
// ordering, capacity, and validity state. Flattening is irreversible in
// the sense that the copy is meant for read-only workloads.
func (s *Sample) Flatten() *Sample {
	cp := &Sample{kind: KindSortedVector, capacity: s.capacity}
	cp.entries = append([]sampleEntry(nil), s.entries...)
	if s.valid != nil {
		cp.valid = append([]bool(nil), s.valid...)
	}
	return cp
}

// Iterate walks the sample in ascending hash order, skipping invalid
// entries, stopping after at most limit valid entries.
func (s *Sample) Iterate(limit int) []uint64 {
	if limit < 0 {
		limit = 0
	}
	out := make([]uint64, 0, minInt(limit, len(s.entries)))
	for i := range s.entries {
		if len(out) >= limit {
			break
		}
		if s.isValid(i) {
			out = append(out, s.entries[i].hash)
		}
	}
	return out
}

// All returns every valid hash, ascending.
func (s *Sample) All() []uint64 { return s.Iterate(len(s.entries)) }

// PairEntry is one (hash, payload) pair exposed by a key-value sample.
type PairEntry struct {
	Hash    uint64
	Payload uint64
}

// IteratePairs is the key-value analogue of Iterate.
func (s *Sample) IteratePairs(limit int) []PairEntry {
	if limit < 0 {
		limit = 0
	}
	out := make([]PairEntry, 0, minInt(limit, len(s.entries)))
	for i := range s.entries {
		if len(out) >= limit {
			break
		}
		if s.isValid(i) {
			out = append(out, PairEntry{Hash: s.entries[i].hash, Payload: s.entries[i].payload})
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// IntersectSamples returns the ascending sample of hashes present in every
// input, truncated to cap (defaulting to the minimum input capacity when
// cap <= 0). It implements the merge-skip algorithm of spec §4.2: one
// cursor per input, realigning past mismatches and stopping as soon as any
// input is exhausted or the output reaches cap.
func IntersectSamples(samples []*Sample, cap int) *Sample {
	if len(samples) == 0 {
		return &Sample{kind: KindSortedVector}
	}
	if cap <= 0 {
		cap = samples[0].capacity
		for _, s := range samples[1:] {
			if s.capacity < cap {
				cap = s.capacity
			}
		}
	}

	result := &Sample{kind: KindSortedVector, capacity: cap}
	cursors := make([]int, len(samples))

	for {
		if cursors[0] >= len(samples[0].entries) {
			break
		}
		if !samples[0].isValid(cursors[0]) {
			cursors[0]++
			continue
		}
		lead := samples[0].entries[cursors[0]].hash

		allMatch := true
		exhausted := false
		minMismatch := ^uint64(0)

		for i := 1; i < len(samples); i++ {
			for cursors[i] < len(samples[i].entries) {
				if !samples[i].isValid(cursors[i]) {
					cursors[i]++
					continue
				}
				if samples[i].entries[cursors[i]].hash < lead {
					cursors[i]++
					continue
				}
				break
			}
			if cursors[i] >= len(samples[i].entries) {
				exhausted = true
				break
			}
			v := samples[i].entries[cursors[i]].hash
			if v != lead {
				allMatch = false
				if v < minMismatch {
					minMismatch = v
				}
			}
		}

		if exhausted {
			break
		}

		if allMatch {
			result.entries = append(result.entries, sampleEntry{hash: lead})
			if len(result.entries) >= cap {
				break
			}
			for i := range samples {
				cursors[i]++
			}
			continue
		}

		cursors[0]++
		for cursors[0] < len(samples[0].entries) {
			if !samples[0].isValid(cursors[0]) {
				cursors[0]++
				continue
			}
			if samples[0].entries[cursors[0]].hash < minMismatch {
				cursors[0]++
				continue
			}
			break
		}
	}

	return result
}

// UnionSamples returns the ascending merge of all inputs' valid entries,
// truncated to cap (defaulting to the first input's capacity when cap<=0,
// matching Cell.Combine and spec §8 testable property 4: for disjoint A,B,
// |union(A,B)| = min(K, |A|+|B|) against a single K, not a sum of
// capacities).
func UnionSamples(samples []*Sample, cap int) *Sample {
	if cap <= 0 && len(samples) > 0 {
		cap = samples[0].capacity
	}

	var all []uint64
	for _, s := range samples {
		all = append(all, s.Iterate(len(s.entries))...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	result := &Sample{kind: KindSortedVector, capacity: cap}
	var last uint64
	first := true
	for _, h := range all {
		if !first && h == last {
			continue
		}
		result.entries = append(result.entries, sampleEntry{hash: h})
		last, first = h, false
		if len(result.entries) >= cap {
			break
		}
	}
	return result
}
