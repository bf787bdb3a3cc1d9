package emit

import (
	"fmt"
	"io"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/ratetap/ratetap/internal/schema"
)

type schemaMessage struct {
	Type          string        `json:"type"`
	Stream        string        `json:"stream"`
	Schema        schema.Schema `json:"schema"`
	KeyProperties []string      `json:"key_properties"`
}

type recordMessage struct {
	Type   string           `json:"type"`
	Stream string           `json:"stream"`
	Record schema.DayRecord `json:"record"`
}

type stateMessage struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// StreamWriter emits messages as JSON lines to an io.Writer, typically
// stdout. Writes are serialised; the engine itself is sequential but the
// status listener shares the process.
type StreamWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStreamWriter constructs a StreamWriter over out.
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// WriteSchema implements Writer.
func (w *StreamWriter) WriteSchema(stream string, sch schema.Schema, keyProperties []string) error {
	if keyProperties == nil {
		keyProperties = []string{}
	}
	return w.writeLine(schemaMessage{
		Type:          "SCHEMA",
		Stream:        stream,
		Schema:        sch,
		KeyProperties: keyProperties,
	})
}

// WriteRecord implements Writer.
func (w *StreamWriter) WriteRecord(stream string, rec schema.DayRecord) error {
	return w.writeLine(recordMessage{
		Type:   "RECORD",
		Stream: stream,
		Record: rec,
	})
}

// WriteState implements Writer.
func (w *StreamWriter) WriteState(value any) error {
	return w.writeLine(stateMessage{
		Type:  "STATE",
		Value: value,
	})
}

func (w *StreamWriter) writeLine(message any) error {
	encoded, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
