// cell.go: an omni-sketch grid cell
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// Cell is a min-hash sample plus an exact counter of how many records were
// offered to it (spec §3). RecordCount counts every offer, including those
// evicted from the sample; Sample.Len() is therefore always <=
// min(RecordCount, K).
type Cell struct {
	Sample      *Sample
	RecordCount uint64
}

// NewCell returns an empty cell backed by a fresh sorted-set sample of the
// given capacity.
func NewCell(capacity int) *Cell {
	return &Cell{Sample: NewSetSample(capacity)}
}

// MaxSampleCount returns the cell's sample capacity K, the cap later
// Intersect/Combine calls chaining off this cell should themselves use
// (SPEC_FULL §12.2; spec §8 scenario S3 checks it survives Flatten).
func (c *Cell) MaxSampleCount() uint64 {
	return uint64(c.Sample.Capacity())
}

// Offer records one ingest of rid hash h into the cell: the sample is
// offered h, and RecordCount advances unconditionally.
func (c *Cell) Offer(h uint64) {
	c.Sample.Add(h)
	c.RecordCount++
}

// estimateFromSample reconstructs a cardinality from a match count and the
// per-input (maxRecordCount, capacity) pair that dominated it, per spec
// §4.2 "Cardinality reconstruction": estimate = m * nMax / K, exact when
// nMax <= K.
func estimateFromSample(matches int, nMax uint64, capacity int) uint64 {
	if capacity <= 0 || nMax <= uint64(capacity) {
		return uint64(matches)
	}
	return uint64(round(float64(matches) * float64(nMax) / float64(capacity)))
}

func round(f float64) float64 {
	if f < 0 {
		return -roundPositive(-f)
	}
	return roundPositive(f)
}

func roundPositive(f float64) float64 {
	i := float64(int64(f))
	if f-i >= 0.5 {
		return i + 1
	}
	return i
}

// SamplingProbability returns the fraction of this cell's true record
// count that the sample represents: |sample| / RecordCount, clipped to
// [0,1]. A zero RecordCount resolves to 1.0 (spec §7 "numeric edge").
func (c *Cell) SamplingProbability() float64 {
	if c.RecordCount == 0 {
		return 1.0
	}
	p := float64(c.Sample.Len()) / float64(c.RecordCount)
	if p > 1.0 {
		return 1.0
	}
	if p < 0 {
		return 0
	}
	return p
}

// Intersect combines cells from the D rows of a sketch that a single probe
// value routed to, or chains two already-combined cells during join
// evaluation. cap bounds the result sample; cap<=0 defaults to the minimum
// input capacity. The result's RecordCount is scaled from the match count
// by the maximum RecordCount among the inputs, per spec §4.5.
func Intersect(cells []*Cell, cap int) *Cell {
	samples := make([]*Sample, len(cells))
	var nMax uint64
	var nMaxCapacity int
	for i, c := range cells {
		samples[i] = c.Sample
		if c.RecordCount > nMax {
			nMax = c.RecordCount
			nMaxCapacity = c.Sample.Capacity()
		}
	}

	resultSample := IntersectSamples(samples, cap)
	recordCount := estimateFromSample(resultSample.Len(), nMax, nMaxCapacity)

	return &Cell{Sample: resultSample, RecordCount: recordCount}
}

// Combine unions cells under the capacity of the first input, summing
// their record counts (spec §4.5).
func Combine(cells []*Cell) *Cell {
	samples := make([]*Sample, len(cells))
	var sum uint64
	for i, c := range cells {
		samples[i] = c.Sample
		sum += c.RecordCount
	}

	cap := 0
	if len(cells) > 0 {
		cap = cells[0].Sample.Capacity()
	}
	resultSample := UnionSamples(samples, cap)

	return &Cell{Sample: resultSample, RecordCount: sum}
}
