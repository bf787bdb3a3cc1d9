package telemetry

import (
	"context"
	"testing"
)

func TestInitWithoutEndpointReturnsNoop(t *testing.T) {
	provider, shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("init telemetry: %v", err)
	}
	if provider == nil {
		t.Fatalf("expected meter provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown should not fail: %v", err)
	}
}

func TestNewMetricsRegistersCounters(t *testing.T) {
	provider, _, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("init telemetry: %v", err)
	}
	metrics, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	if metrics.DaysReplicated == nil || metrics.RecordsEmitted == nil || metrics.SchemaWrites == nil || metrics.RetryWaits == nil {
		t.Fatalf("expected all counters registered")
	}
	metrics.DaysReplicated.Add(context.Background(), 1)
}

func TestParseEndpoint(t *testing.T) {
	host, insecure, err := parseEndpoint("http://collector:4318")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	if host != "collector:4318" || !insecure {
		t.Fatalf("unexpected endpoint parse: %s insecure=%v", host, insecure)
	}

	host, insecure, err = parseEndpoint("https://collector:4318")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	if host != "collector:4318" || insecure {
		t.Fatalf("expected secure endpoint, got %s insecure=%v", host, insecure)
	}
}
