package telemetry

import (
	"fmt"

	apimetric "go.opentelemetry.io/otel/metric"
)

// Metrics groups the sync engine's counters.
type Metrics struct {
	DaysReplicated apimetric.Int64Counter
	RecordsEmitted apimetric.Int64Counter
	SchemaWrites   apimetric.Int64Counter
	RetryWaits     apimetric.Int64Counter
}

// NewMetrics registers the engine counters on the provider's meter.
func NewMetrics(provider apimetric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("ratetap/engine")

	days, err := meter.Int64Counter("ratetap.days.replicated",
		apimetric.WithDescription("Calendar days fully processed"))
	if err != nil {
		return nil, fmt.Errorf("create days counter: %w", err)
	}
	records, err := meter.Int64Counter("ratetap.records.emitted",
		apimetric.WithDescription("Day records written to the output stream"))
	if err != nil {
		return nil, fmt.Errorf("create records counter: %w", err)
	}
	schemas, err := meter.Int64Counter("ratetap.schema.writes",
		apimetric.WithDescription("Schema declarations emitted"))
	if err != nil {
		return nil, fmt.Errorf("create schema counter: %w", err)
	}
	retries, err := meter.Int64Counter("ratetap.provider.retries",
		apimetric.WithDescription("Retry waits taken against the provider"))
	if err != nil {
		return nil, fmt.Errorf("create retry counter: %w", err)
	}

	return &Metrics{
		DaysReplicated: days,
		RecordsEmitted: records,
		SchemaWrites:   schemas,
		RetryWaits:     retries,
	}, nil
}
