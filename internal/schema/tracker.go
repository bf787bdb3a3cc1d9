package schema

// Tracker owns the current output schema and the snapshot captured at the end
// of the previous successfully completed day. Observe merges a day's
// currencies and reports whether the schema now differs from that snapshot;
// Commit advances the snapshot once the day fully completes.
type Tracker struct {
	current  Schema
	baseline Schema
}

// NewTracker returns a tracker whose baseline is empty, so the first observed
// day always reports a change.
func NewTracker() *Tracker {
	return &Tracker{
		current:  New(),
		baseline: Schema{},
	}
}

// Observe merges every currency field of the record into the schema and
// reports whether the schema differs from the previous day's snapshot.
func (t *Tracker) Observe(rec DayRecord) bool {
	for _, code := range rec.Currencies() {
		if code == DateField {
			continue
		}
		if !t.current.Has(code) {
			t.current.Add(code, NullableNumber())
		}
	}
	return !t.current.Equal(t.baseline)
}

// Commit captures the current schema as the comparison baseline for
// subsequent days.
func (t *Tracker) Commit() {
	t.baseline = t.current.Clone()
}

// Schema returns a copy of the current schema.
func (t *Tracker) Schema() Schema {
	return t.current.Clone()
}
