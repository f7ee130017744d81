// collector.go: OpenTelemetry-backed MetricsCollector for omnisketch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/omnisketch"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements omnisketch.MetricsCollector using
// OpenTelemetry histograms and counters.
//
// Thread-safety: safe for concurrent use by multiple goroutines; the
// underlying OTEL instruments are lock-free.
type OTelMetricsCollector struct {
	ingestLatency       metric.Int64Histogram
	probeLatency        metric.Int64Histogram
	reduceLatency       metric.Int64Histogram
	planEvaluateLatency metric.Int64Histogram

	ingestTotal     metric.Int64Counter
	ingestNullTotal metric.Int64Counter
	reduceRuleTotal metric.Int64Counter
}

// Options configures an OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/omnisketch"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful when several estimators
// run in the same process and should be distinguishable in metrics.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates the instruments backing an
// OTelMetricsCollector from provider. Returns an error if provider is nil or
// instrument creation fails.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/omnisketch"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	if c.ingestLatency, err = meter.Int64Histogram(
		"omnisketch_ingest_latency_ns",
		metric.WithDescription("Latency of Add/AddNull calls in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.probeLatency, err = meter.Int64Histogram(
		"omnisketch_probe_latency_ns",
		metric.WithDescription("Latency of Probe/ProbeHashedSet calls in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.reduceLatency, err = meter.Int64Histogram(
		"omnisketch_reduce_latency_ns",
		metric.WithDescription("Latency of a single reducer rule application in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.planEvaluateLatency, err = meter.Int64Histogram(
		"omnisketch_plan_evaluate_latency_ns",
		metric.WithDescription("Latency of PlanNode.Evaluate in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.ingestTotal, err = meter.Int64Counter(
		"omnisketch_ingest_total",
		metric.WithDescription("Total number of non-null ingests"),
	); err != nil {
		return nil, err
	}
	if c.ingestNullTotal, err = meter.Int64Counter(
		"omnisketch_ingest_null_total",
		metric.WithDescription("Total number of null ingests"),
	); err != nil {
		return nil, err
	}
	if c.reduceRuleTotal, err = meter.Int64Counter(
		"omnisketch_reduce_rule_total",
		metric.WithDescription("Total number of reducer rule firings, tagged by rule name"),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordIngest implements omnisketch.MetricsCollector.
func (c *OTelMetricsCollector) RecordIngest(durationNanos int64, wasNull bool) {
	ctx := context.Background()
	c.ingestLatency.Record(ctx, durationNanos)
	if wasNull {
		c.ingestNullTotal.Add(ctx, 1)
		return
	}
	c.ingestTotal.Add(ctx, 1)
}

// RecordProbe implements omnisketch.MetricsCollector.
func (c *OTelMetricsCollector) RecordProbe(durationNanos int64, sampleSize int) {
	ctx := context.Background()
	c.probeLatency.Record(ctx, durationNanos, metric.WithAttributes(
		sampleSizeAttribute(sampleSize),
	))
}

// RecordReduce implements omnisketch.MetricsCollector.
func (c *OTelMetricsCollector) RecordReduce(rule string, durationNanos int64) {
	ctx := context.Background()
	attrs := metric.WithAttributes(ruleAttribute(rule))
	c.reduceLatency.Record(ctx, durationNanos, attrs)
	c.reduceRuleTotal.Add(ctx, 1, attrs)
}

// RecordPlanEvaluate implements omnisketch.MetricsCollector.
func (c *OTelMetricsCollector) RecordPlanEvaluate(durationNanos int64, estimate float64) {
	c.planEvaluateLatency.Record(context.Background(), durationNanos)
}

// Compile-time interface check.
var _ omnisketch.MetricsCollector = (*OTelMetricsCollector)(nil)
