// Package emit writes the schema-tagged record stream consumed by downstream
// pipelines: SCHEMA, RECORD and STATE messages as JSON lines.
package emit

import (
	"github.com/ratetap/ratetap/internal/schema"
)

// Writer receives the engine's output stream.
type Writer interface {
	// WriteSchema declares (or re-declares) the record shape for a stream.
	WriteSchema(stream string, sch schema.Schema, keyProperties []string) error
	// WriteRecord emits one day's normalized record.
	WriteRecord(stream string, rec schema.DayRecord) error
	// WriteState emits the checkpoint value.
	WriteState(value any) error
}

// MultiWriter fans every message out to all wrapped writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter wraps the given writers; nil entries are dropped.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	kept := make([]Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			kept = append(kept, w)
		}
	}
	return &MultiWriter{writers: kept}
}

// WriteSchema implements Writer.
func (m *MultiWriter) WriteSchema(stream string, sch schema.Schema, keyProperties []string) error {
	for _, w := range m.writers {
		if err := w.WriteSchema(stream, sch, keyProperties); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecord implements Writer.
func (m *MultiWriter) WriteRecord(stream string, rec schema.DayRecord) error {
	for _, w := range m.writers {
		if err := w.WriteRecord(stream, rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteState implements Writer.
func (m *MultiWriter) WriteState(value any) error {
	for _, w := range m.writers {
		if err := w.WriteState(value); err != nil {
			return err
		}
	}
	return nil
}
