// Package state persists the sync checkpoint: the date cursor that makes
// repeated invocations resumable without gaps or duplicates.
package state

import (
	"bytes"
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ratetap/ratetap/errs"
)

// Cursor is the single piece of durable state: the next day to replicate, or
// the last day successfully replicated when the sync is caught up.
type Cursor struct {
	StartDate time.Time
}

// NewCursor builds a cursor for the given day, truncated to date precision.
func NewCursor(day time.Time) Cursor {
	y, m, d := day.UTC().Date()
	return Cursor{StartDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseCursor parses an ISO calendar date into a cursor.
func ParseCursor(value string) (Cursor, error) {
	parsed, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return Cursor{}, errs.New("state", errs.CodeInvalid,
			errs.WithMessage("start_date "+value+" is not an ISO calendar date"),
			errs.WithCause(err))
	}
	return Cursor{StartDate: parsed}, nil
}

// IsZero reports whether the cursor carries no date.
func (c Cursor) IsZero() bool { return c.StartDate.IsZero() }

// Day returns the cursor date in ISO form.
func (c Cursor) Day() string { return c.StartDate.UTC().Format(time.DateOnly) }

// Next returns the cursor advanced by exactly one calendar day.
func (c Cursor) Next() Cursor {
	return Cursor{StartDate: c.StartDate.AddDate(0, 0, 1)}
}

// MarshalJSON renders the single-field checkpoint record.
func (c Cursor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"start_date":`)
	day, err := json.Marshal(c.Day())
	if err != nil {
		return nil, err
	}
	buf.Write(day)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses the single-field checkpoint record.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	var envelope struct {
		StartDate string `json:"start_date"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if strings.TrimSpace(envelope.StartDate) == "" {
		*c = Cursor{}
		return nil
	}
	parsed, err := ParseCursor(envelope.StartDate)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Store abstracts checkpoint persistence. Load returns a zero cursor when no
// prior checkpoint exists.
type Store interface {
	Load(ctx context.Context) (Cursor, error)
	Persist(ctx context.Context, cursor Cursor) error
}

// Resolve determines the first day to replicate: strictly after the prior
// checkpoint when one exists, else the configured start date, else the
// current UTC date, first non-empty wins. The checkpoint names the last day
// successfully replicated, so resumption must not reprocess it.
func Resolve(checkpoint Cursor, configured string, now time.Time) (Cursor, error) {
	if !checkpoint.IsZero() {
		return checkpoint.Next(), nil
	}
	if strings.TrimSpace(configured) != "" {
		return ParseCursor(configured)
	}
	return NewCursor(now), nil
}
