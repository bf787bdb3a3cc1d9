package engine

import "github.com/ratetap/ratetap/internal/state"

// Code classifies a run outcome.
type Code int

const (
	// CodeOK marks a run that replicated every pending day.
	CodeOK Code = iota
	// CodeConfigError marks a run rejected before any network activity.
	CodeConfigError
	// CodeSyncError marks a run halted by an unrecoverable provider failure.
	CodeSyncError
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeConfigError:
		return "config_error"
	case CodeSyncError:
		return "sync_error"
	default:
		return "unknown"
	}
}

// Result summarises a completed run. The outermost boundary maps Code to a
// process exit status; the engine itself never exits.
type Result struct {
	Code           Code
	Cursor         state.Cursor
	DaysProcessed  int64
	RecordsEmitted int64
	SchemaWrites   int64
}

// Progress is a point-in-time snapshot served by the status listener.
type Progress struct {
	RunID          string `json:"run_id"`
	State          string `json:"state"`
	Base           string `json:"base"`
	Cursor         string `json:"cursor,omitempty"`
	CurrentDay     string `json:"current_day,omitempty"`
	DaysProcessed  int64  `json:"days_processed"`
	RecordsEmitted int64  `json:"records_emitted"`
	SchemaWrites   int64  `json:"schema_writes"`
}
