// Package normalize turns raw provider payloads into canonical day records.
package normalize

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ratetap/ratetap/errs"
	"github.com/ratetap/ratetap/internal/provider"
	"github.com/ratetap/ratetap/internal/schema"
)

// Normalize transforms one day's raw payload into a DayRecord: every rate is
// rounded to 2 decimal places, entries are sorted ascending by rounded value,
// the base currency is appended at exactly 1.0, and the calendar date becomes
// a midnight-UTC timestamp. Pure function; malformed input is an error.
func Normalize(payload provider.RawPayload) (schema.DayRecord, error) {
	base := strings.TrimSpace(payload.Base)
	if base == "" {
		return schema.DayRecord{}, errs.New("normalize", errs.CodeInvalid,
			errs.WithMessage("payload missing base currency"))
	}

	date, err := time.ParseInLocation(time.DateOnly, payload.Date, time.UTC)
	if err != nil {
		return schema.DayRecord{}, errs.New("normalize", errs.CodeInvalid,
			errs.WithMessage("payload date "+payload.Date+" is not an ISO calendar date"),
			errs.WithCause(err))
	}

	entries := make([]schema.RateEntry, 0, len(payload.Rates)+1)
	for code, rate := range payload.Rates {
		// The base is pinned to 1.0 below; a quoted base rate is discarded
		// so the record never carries the currency twice.
		if code == base {
			continue
		}
		rounded, _ := decimal.NewFromFloat(rate).Round(2).Float64()
		entries = append(entries, schema.RateEntry{Code: code, Rate: rounded})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Rate != entries[j].Rate {
			return entries[i].Rate < entries[j].Rate
		}
		return entries[i].Code < entries[j].Code
	})
	entries = append(entries, schema.RateEntry{Code: base, Rate: 1.0})

	rec := schema.DayRecord{Date: date, Entries: entries}
	if err := rec.Validate(); err != nil {
		return schema.DayRecord{}, err
	}
	return rec, nil
}
