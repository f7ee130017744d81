// config.go: configuration for newly built omni-sketches
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package omnisketch

import "github.com/agilira/go-timecache"

// Default dimensions and range-expansion cap used when an EstimatorConfig
// field is left at its zero value.
const (
	DefaultWidth             = 256
	DefaultDepth             = 4
	DefaultSampleCapacity    = 128
	DefaultRangeExpansionCap = 10_000
)

// EstimatorConfig holds the knobs a query-optimizer process wants to tune
// without recompiling: the dimensions new sketches default to, the cap
// convertRange enforces (spec §4.2/§6), and the ambient observability
// surface. It governs sketch *construction*, never the semantics of an
// already-built sketch (those are immutable per spec §3).
type EstimatorConfig struct {
	// DefaultWidth is the column count new sketches use unless told
	// otherwise. Must be > 0. Default: DefaultWidth.
	DefaultWidth int

	// DefaultDepth is the row count new sketches use unless told
	// otherwise. Must be > 0. Default: DefaultDepth.
	DefaultDepth int

	// DefaultSampleCapacity is the min-hash sample capacity K new sketches
	// use unless told otherwise. Must be > 0. Default: DefaultSampleCapacity.
	DefaultSampleCapacity int

	// RangeExpansionCap is the widest [lo,hi] span convertRange accepts
	// before rejecting the predicate with ErrCodeRangeTooWide (spec §6).
	RangeExpansionCap int64

	// Router selects the cell-index mapper variant new sketches use
	// unless told otherwise. If nil, BarrettQuadraticRouter is used.
	Router CellRouter

	// Logger receives diagnostics. If nil, NoOpLogger is used. The
	// package's sketches, reducer and planner do not log through it.
	Logger Logger

	// TimeProvider supplies timestamps for metrics only. If nil, a
	// default implementation is used.
	TimeProvider TimeProvider

	// MetricsCollector receives instrumentation for ingest/probe/reduce/
	// plan-evaluate operations reported by the embedding code; the
	// package's sketches, reducer and planner do not call it. If nil,
	// NoOpMetricsCollector is used.
	MetricsCollector MetricsCollector
}

// Validate normalizes zero-value fields to defaults. It never returns an
// error: every field has a safe default, matching the teacher's
// Config.Validate posture of "normalization, not rejection".
func (c *EstimatorConfig) Validate() error {
	if c.DefaultWidth <= 0 {
		c.DefaultWidth = DefaultWidth
	}
	if c.DefaultDepth <= 0 {
		c.DefaultDepth = DefaultDepth
	}
	if c.DefaultSampleCapacity <= 0 {
		c.DefaultSampleCapacity = DefaultSampleCapacity
	}
	if c.RangeExpansionCap <= 0 {
		c.RangeExpansionCap = DefaultRangeExpansionCap
	}
	if c.Router == nil {
		c.Router = DefaultRouter
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
	return nil
}

// DefaultEstimatorConfig returns a config with sensible defaults applied.
func DefaultEstimatorConfig() EstimatorConfig {
	cfg := EstimatorConfig{
		DefaultWidth:          DefaultWidth,
		DefaultDepth:          DefaultDepth,
		DefaultSampleCapacity: DefaultSampleCapacity,
		RangeExpansionCap:     DefaultRangeExpansionCap,
		Router:                DefaultRouter,
		Logger:                NoOpLogger{},
		MetricsCollector:      NoOpMetricsCollector{},
	}
	cfg.TimeProvider = &systemTimeProvider{}
	return cfg
}

// systemTimeProvider is the default TimeProvider, using go-timecache for
// ~121x faster access than time.Now() with zero allocations. It feeds
// metrics timestamps only; no cardinality computation reads it.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
