package otel

import (
	"context"
	"testing"
	"time"

	"github.com/agilira/omnisketch"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOTelMetricsCollector_Interface(t *testing.T) {
	var _ omnisketch.MetricsCollector = (*OTelMetricsCollector)(nil)
}

func TestNewOTelMetricsCollector(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}
}

func TestNewOTelMetricsCollector_NilProvider(t *testing.T) {
	collector, err := NewOTelMetricsCollector(nil)
	if err == nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return error")
	}
	if collector != nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return nil collector")
	}
}

func TestOTelMetricsCollector_RecordIngest(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordIngest(1000, false)
	collector.RecordIngest(2000, true)
	collector.RecordIngest(1500, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundLatency, foundTotal, foundNullTotal bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "omnisketch_ingest_latency_ns":
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Fatalf("expected Histogram[int64], got %T", m.Data)
				}
				var total uint64
				for _, dp := range hist.DataPoints {
					total += dp.Count
				}
				if total != 3 {
					t.Errorf("expected 3 observations, got %d", total)
				}
			case "omnisketch_ingest_total":
				foundTotal = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("expected Sum[int64], got %T", m.Data)
				}
				if sum.DataPoints[0].Value != 2 {
					t.Errorf("expected 2 non-null ingests, got %d", sum.DataPoints[0].Value)
				}
			case "omnisketch_ingest_null_total":
				foundNullTotal = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("expected Sum[int64], got %T", m.Data)
				}
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("expected 1 null ingest, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("omnisketch_ingest_latency_ns metric not found")
	}
	if !foundTotal {
		t.Error("omnisketch_ingest_total metric not found")
	}
	if !foundNullTotal {
		t.Error("omnisketch_ingest_null_total metric not found")
	}
}

func TestOTelMetricsCollector_RecordProbe(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordProbe(500, 10)
	collector.RecordProbe(700, 20)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "omnisketch_probe_latency_ns" {
				found = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Fatalf("expected Histogram[int64], got %T", m.Data)
				}
				var total uint64
				for _, dp := range hist.DataPoints {
					total += dp.Count
				}
				if total != 2 {
					t.Errorf("expected 2 observations, got %d", total)
				}
			}
		}
	}
	if !found {
		t.Error("omnisketch_probe_latency_ns metric not found")
	}
}

func TestOTelMetricsCollector_RecordReduce(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordReduce("merge-single-connection", 300)
	collector.RecordReduce("merge-single-connection", 400)
	collector.RecordReduce("expand-pk-connection", 100)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundLatency, foundRuleTotal bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "omnisketch_reduce_latency_ns":
				foundLatency = true
			case "omnisketch_reduce_rule_total":
				foundRuleTotal = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("expected Sum[int64], got %T", m.Data)
				}
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				if total != 3 {
					t.Errorf("expected 3 rule firings across all rule labels, got %d", total)
				}
			}
		}
	}
	if !foundLatency {
		t.Error("omnisketch_reduce_latency_ns metric not found")
	}
	if !foundRuleTotal {
		t.Error("omnisketch_reduce_rule_total metric not found")
	}
}

func TestOTelMetricsCollector_RecordPlanEvaluate(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordPlanEvaluate(900, 123.0)
	collector.RecordPlanEvaluate(1100, 456.0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "omnisketch_plan_evaluate_latency_ns" {
				found = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Fatalf("expected Histogram[int64], got %T", m.Data)
				}
				var total uint64
				for _, dp := range hist.DataPoints {
					total += dp.Count
				}
				if total != 2 {
					t.Errorf("expected 2 observations, got %d", total)
				}
			}
		}
	}
	if !found {
		t.Error("omnisketch_plan_evaluate_latency_ns metric not found")
	}
}

func TestOTelMetricsCollector_Concurrent(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	const numGoroutines = 10
	const opsPerGoroutine = 100
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < opsPerGoroutine; j++ {
				collector.RecordIngest(int64(100+id), j%2 == 0)
				collector.RecordProbe(int64(200+id), j)
				collector.RecordReduce("rule", int64(50+id))
				collector.RecordPlanEvaluate(int64(75+id), float64(j))
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("test timeout - deadlock?")
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no metrics collected after concurrent operations")
	}
}

func TestOTelMetricsCollector_WithOptions(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider, WithMeterName("custom_omnisketch"))
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	collector.RecordIngest(1000, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no scope metrics")
	}
	if rm.ScopeMetrics[0].Scope.Name != "custom_omnisketch" {
		t.Errorf("expected scope name 'custom_omnisketch', got %q", rm.ScopeMetrics[0].Scope.Name)
	}
}
