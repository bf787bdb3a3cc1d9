package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	cursorUpsertSQL = `
INSERT INTO sync_state (stream, start_date, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (stream) DO UPDATE SET
    start_date = EXCLUDED.start_date,
    updated_at = NOW();
`
	cursorSelectSQL = `SELECT start_date FROM sync_state WHERE stream = $1;`
)

// PostgresStore keeps the checkpoint in a sync_state table so multiple hosts
// can share one cursor.
type PostgresStore struct {
	pool   *pgxpool.Pool
	stream string
}

// NewPostgresStore constructs a PostgresStore for the given stream name.
func NewPostgresStore(pool *pgxpool.Pool, stream string) *PostgresStore {
	return &PostgresStore{pool: pool, stream: strings.TrimSpace(stream)}
}

// Load retrieves the stored cursor; absence yields a zero cursor.
func (s *PostgresStore) Load(ctx context.Context) (Cursor, error) {
	if s.pool == nil {
		return Cursor{}, fmt.Errorf("state store: nil pool")
	}
	var day time.Time
	err := s.pool.QueryRow(ctx, cursorSelectSQL, s.stream).Scan(&day)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cursor{}, nil
		}
		return Cursor{}, fmt.Errorf("load cursor for %s: %w", s.stream, err)
	}
	return NewCursor(day), nil
}

// Persist upserts the cursor row.
func (s *PostgresStore) Persist(ctx context.Context, cursor Cursor) error {
	if s.pool == nil {
		return fmt.Errorf("state store: nil pool")
	}
	if cursor.IsZero() {
		return fmt.Errorf("state store: refusing to persist zero cursor")
	}
	if _, err := s.pool.Exec(ctx, cursorUpsertSQL, s.stream, cursor.StartDate); err != nil {
		return fmt.Errorf("persist cursor for %s: %w", s.stream, err)
	}
	return nil
}
