// Package otel provides OpenTelemetry integration for omnisketch metrics.
//
// # Overview
//
// This package implements the omnisketch.MetricsCollector interface using
// OpenTelemetry, so an optimizer process can export ingest/probe/reduce/plan
// latencies to any OTEL-compatible backend (Prometheus, Jaeger, DataDog)
// without the core module depending on the OTEL SDK.
//
// The package is a separate module to keep the omnisketch core lightweight.
// A process that never wires a MetricsCollector pays nothing for OTEL.
//
// # Quick start
//
//	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := omnisketchotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := omnisketch.DefaultEstimatorConfig()
//	cfg.MetricsCollector = collector
//
// # Metrics exposed
//
// Histograms (nanosecond duration):
//   - omnisketch_ingest_latency_ns
//   - omnisketch_probe_latency_ns
//   - omnisketch_reduce_latency_ns
//   - omnisketch_plan_evaluate_latency_ns
//
// Counters:
//   - omnisketch_ingest_total: every recorded ingest
//   - omnisketch_ingest_null_total: recorded ingests that were null
//   - omnisketch_reduce_rule_total{rule}: tagged by which reducer rule fired
//
// # Thread safety
//
// All methods are safe for concurrent use; the underlying OTEL instruments
// are lock-free. The estimator core does not call a MetricsCollector
// itself; the embedding process records its measurements, and may share
// one collector across several estimators.
package otel
