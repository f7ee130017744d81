// interfaces.go: public ambient interfaces for omnisketch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package omnisketch

// Logger defines a minimal logging interface with zero overhead when
// unused. Implementations should use structured logging.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a Logger that does nothing. Used as the default so callers
// never need a nil check.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider supplies the current time for instrumentation timestamps
// only — never for cardinality computation, which stays a deterministic
// pure function of sketch state (spec §7).
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	Now() int64
}

// MetricsCollector records instrumentation for the operations this
// estimator performs. Implementations must be safe to call from a single
// goroutine at a time (the core itself has no concurrency, spec §5);
// NoOpMetricsCollector is the zero-overhead default. The sketches, the
// reducer and the planner in this package do not call a MetricsCollector
// themselves; every Record* call comes from the embedding code.
type MetricsCollector interface {
	// RecordIngest records one Add/AddNull, with the elapsed duration in
	// nanoseconds and whether the ingest was null.
	RecordIngest(durationNanos int64, wasNull bool)

	// RecordProbe records one Probe/ProbeHashedSet, with the elapsed
	// duration and the resulting sample size.
	RecordProbe(durationNanos int64, sampleSize int)

	// RecordReduce records one reducer rule application, naming the rule
	// that fired.
	RecordReduce(rule string, durationNanos int64)

	// RecordPlanEvaluate records one PlanNode.Evaluate, with the elapsed
	// duration and the resulting estimate.
	RecordPlanEvaluate(durationNanos int64, estimate float64)
}

// NoOpMetricsCollector is a MetricsCollector that does nothing.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordIngest(int64, bool)          {}
func (NoOpMetricsCollector) RecordProbe(int64, int)            {}
func (NoOpMetricsCollector) RecordReduce(string, int64)        {}
func (NoOpMetricsCollector) RecordPlanEvaluate(int64, float64) {}
