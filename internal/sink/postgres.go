// Package sink persists the emitted stream into the Postgres warehouse so
// replicated days survive independently of downstream consumers.
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratetap/ratetap/internal/schema"
)

const (
	rateUpsertSQL = `
INSERT INTO exchange_rates (
    stream,
    day,
    rates,
    updated_at
)
VALUES ($1, $2, $3::jsonb, NOW())
ON CONFLICT (stream, day) DO UPDATE SET
    rates = EXCLUDED.rates,
    updated_at = NOW();
`
	schemaUpsertSQL = `
INSERT INTO stream_schemas (
    stream,
    schema,
    key_properties,
    updated_at
)
VALUES ($1, $2::jsonb, $3, NOW())
ON CONFLICT (stream) DO UPDATE SET
    schema = EXCLUDED.schema,
    key_properties = EXCLUDED.key_properties,
    updated_at = NOW();
`
	rateSelectSQL = `SELECT rates FROM exchange_rates WHERE stream = $1 AND day = $2;`
)

// PostgresWriter mirrors the record stream into the warehouse. It implements
// the same writer contract as the stdout stream so the engine can fan out to
// both.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

// NewPostgresWriter constructs a PostgresWriter backed by the provided pool.
func NewPostgresWriter(pool *pgxpool.Pool) *PostgresWriter {
	return &PostgresWriter{pool: pool}
}

// WriteSchema upserts the stream's current schema document.
func (w *PostgresWriter) WriteSchema(stream string, sch schema.Schema, keyProperties []string) error {
	if w.pool == nil {
		return fmt.Errorf("rate sink: nil pool")
	}
	name := strings.TrimSpace(stream)
	if name == "" {
		return fmt.Errorf("rate sink: stream name required")
	}
	payload, err := json.Marshal(sch)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	ctx, cancel := execContext()
	defer cancel()
	if _, err := w.pool.Exec(ctx, schemaUpsertSQL, name, payload, keyProperties); err != nil {
		return fmt.Errorf("upsert schema for %s: %w", name, err)
	}
	return nil
}

// WriteRecord upserts one day's rates keyed by (stream, day). Re-running a
// day overwrites rather than duplicates.
func (w *PostgresWriter) WriteRecord(stream string, rec schema.DayRecord) error {
	if w.pool == nil {
		return fmt.Errorf("rate sink: nil pool")
	}
	name := strings.TrimSpace(stream)
	if name == "" {
		return fmt.Errorf("rate sink: stream name required")
	}
	rates := make(map[string]float64, len(rec.Entries))
	for _, entry := range rec.Entries {
		rates[entry.Code] = entry.Rate
	}
	payload, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}

	ctx, cancel := execContext()
	defer cancel()
	if _, err := w.pool.Exec(ctx, rateUpsertSQL, name, rec.Date, payload); err != nil {
		return fmt.Errorf("upsert rates for %s %s: %w", name, rec.Day(), err)
	}
	return nil
}

// WriteState is a no-op: the checkpoint store owns durable cursor state.
func (w *PostgresWriter) WriteState(any) error { return nil }

// LoadRates retrieves one stored day, mainly for verification tooling.
func (w *PostgresWriter) LoadRates(ctx context.Context, stream string, day time.Time) (map[string]float64, error) {
	if w.pool == nil {
		return nil, fmt.Errorf("rate sink: nil pool")
	}
	var payload []byte
	if err := w.pool.QueryRow(ctx, rateSelectSQL, stream, day).Scan(&payload); err != nil {
		return nil, fmt.Errorf("select rates for %s %s: %w", stream, day.Format(time.DateOnly), err)
	}
	var rates map[string]float64
	if err := json.Unmarshal(payload, &rates); err != nil {
		return nil, fmt.Errorf("unmarshal rates: %w", err)
	}
	return rates, nil
}

func execContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
