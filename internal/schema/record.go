// Package schema defines the replicated record shape and the additive output
// schema that grows as new currencies appear.
package schema

import (
	"bytes"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ratetap/ratetap/errs"
)

// RecordTimeLayout is the canonical timestamp format for emitted records.
const RecordTimeLayout = "2006-01-02T15:04:05Z"

// RateEntry is a single currency quote within a day's snapshot.
type RateEntry struct {
	Code string
	Rate float64
}

// DayRecord is one normalized daily rate snapshot. Entries are ordered
// ascending by rate with the base currency appended last at exactly 1.0;
// MarshalJSON preserves that order.
type DayRecord struct {
	Date    time.Time
	Entries []RateEntry
}

// Validate checks structural invariants of the record.
func (r DayRecord) Validate() error {
	if r.Date.IsZero() {
		return errs.New("schema/record", errs.CodeInvalid, errs.WithMessage("record date required"))
	}
	for _, entry := range r.Entries {
		if entry.Code == "" {
			return errs.New("schema/record", errs.CodeInvalid, errs.WithMessage("empty currency code"))
		}
		if entry.Rate < 0 {
			return errs.New("schema/record", errs.CodeInvalid, errs.WithMessage("negative rate for "+entry.Code))
		}
	}
	return nil
}

// Currencies returns the record's currency codes in entry order.
func (r DayRecord) Currencies() []string {
	out := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		out = append(out, entry.Code)
	}
	return out
}

// Day returns the record's calendar date in ISO form.
func (r DayRecord) Day() string {
	return r.Date.UTC().Format(time.DateOnly)
}

// MarshalJSON renders the record as a flat object: the date field first,
// then one field per currency in entry order.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	ts, err := json.Marshal(r.Date.UTC().Format(RecordTimeLayout))
	if err != nil {
		return nil, err
	}
	buf.Write(ts)
	for _, entry := range r.Entries {
		buf.WriteByte(',')
		code, err := json.Marshal(entry.Code)
		if err != nil {
			return nil, err
		}
		buf.Write(code)
		buf.WriteByte(':')
		rate, err := json.Marshal(entry.Rate)
		if err != nil {
			return nil, err
		}
		buf.Write(rate)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clone returns a deep copy of the record.
func (r DayRecord) Clone() DayRecord {
	clone := r
	if r.Entries != nil {
		clone.Entries = make([]RateEntry, len(r.Entries))
		copy(clone.Entries, r.Entries)
	}
	return clone
}
