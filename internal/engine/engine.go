// Package engine drives the day-by-day incremental sync: fetch, normalize,
// schema check, emit, checkpoint.
package engine

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ratetap/ratetap/errs"
	"github.com/ratetap/ratetap/internal/emit"
	"github.com/ratetap/ratetap/internal/normalize"
	"github.com/ratetap/ratetap/internal/provider"
	"github.com/ratetap/ratetap/internal/schema"
	"github.com/ratetap/ratetap/internal/state"
	"github.com/ratetap/ratetap/lib/telemetry"
)

// DefaultStream names the emitted record stream.
const DefaultStream = "exchange_rate"

// Fetcher retrieves one day's raw payload from the rate provider.
type Fetcher interface {
	Fetch(ctx context.Context, day time.Time) (provider.RawPayload, error)
}

// Config carries the engine's run parameters.
type Config struct {
	Stream    string
	Base      string
	StartDate string
	APIKey    string
}

// Options tunes engine collaborators; zero values select defaults.
type Options struct {
	Clock   func() time.Time
	Logger  *log.Logger
	Metrics *telemetry.Metrics
}

// Engine owns the sync loop, the schema tracker and the cursor. It is
// strictly sequential: one day fully completes before the next begins.
type Engine struct {
	cfg     Config
	client  Fetcher
	writer  emit.Writer
	store   state.Store
	tracker *schema.Tracker
	clock   func() time.Time
	logger  *log.Logger
	metrics *telemetry.Metrics
	runID   string

	mu       sync.Mutex
	progress Progress
}

// New constructs an engine over the given collaborators.
func New(cfg Config, client Fetcher, writer emit.Writer, store state.Store, opts Options) *Engine {
	if strings.TrimSpace(cfg.Stream) == "" {
		cfg.Stream = DefaultStream
	}
	if strings.TrimSpace(cfg.Base) == "" {
		cfg.Base = "USD"
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &Engine{
		cfg:     cfg,
		client:  client,
		writer:  writer,
		store:   store,
		tracker: schema.NewTracker(),
		clock:   clock,
		logger:  logger,
		metrics: opts.Metrics,
		runID:   uuid.NewString(),
	}
	e.progress = Progress{RunID: e.runID, State: "pending", Base: cfg.Base}
	return e
}

// RunID identifies this invocation in logs and status output.
func (e *Engine) RunID() string { return e.runID }

// Progress returns a snapshot of the run's current position and counters.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Run executes the sync loop and returns a typed result. The error is nil
// exactly when the result code is CodeOK.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if strings.TrimSpace(e.cfg.APIKey) == "" {
		e.logger.Printf("run %s: missing api key; re-configure and run again", e.runID)
		e.setState("config_error")
		return Result{Code: CodeConfigError}, errs.New("engine", errs.CodeConfig,
			errs.WithMessage("missing api key"),
			errs.WithRemediation("set api_key in the config file or FIXER_API_KEY"))
	}

	checkpoint, err := e.store.Load(ctx)
	if err != nil {
		e.setState("failed")
		return Result{Code: CodeSyncError}, errs.New("engine", errs.CodeFatal,
			errs.WithMessage("load checkpoint"), errs.WithCause(err))
	}
	start, err := state.Resolve(checkpoint, e.cfg.StartDate, e.clock().UTC())
	if err != nil {
		e.setState("config_error")
		return Result{Code: CodeConfigError}, err
	}

	// cursor tracks the last fully replicated day; it stays at the loaded
	// checkpoint until the first day of this run completes.
	cursor := checkpoint
	e.setCursor(cursor)
	e.setState("running")

	var days, records, schemas int64

	// today is consulted on every iteration so a backfill that crosses UTC
	// midnight keeps going until it reaches the actual current date.
	today := func() state.Cursor { return state.NewCursor(e.clock().UTC()) }

	fatal := func(day state.Cursor, cause error) (Result, error) {
		e.logger.Printf("run %s: fatal error on %s: %v", e.runID, day.Day(), cause)
		e.persistBestEffort(cursor)
		e.setState("failed")
		result := Result{
			Code:           CodeSyncError,
			Cursor:         cursor,
			DaysProcessed:  days,
			RecordsEmitted: records,
			SchemaWrites:   schemas,
		}
		return result, errs.New("engine", errs.CodeFatal,
			errs.WithMessage("sync halted on "+day.Day()), errs.WithCause(cause))
	}

	for day := start; !day.StartDate.After(today().StartDate); day = day.Next() {
		if err := ctx.Err(); err != nil {
			return fatal(day, err)
		}
		e.setCurrentDay(day)
		e.logger.Printf("run %s: replicating exchange rate data from %s using base %s",
			e.runID, day.Day(), e.cfg.Base)

		payload, err := e.client.Fetch(ctx, day.StartDate)
		if err != nil {
			return fatal(day, err)
		}

		rec, err := normalize.Normalize(payload)
		if err != nil {
			return fatal(day, err)
		}

		if e.tracker.Observe(rec) {
			if err := e.writer.WriteSchema(e.cfg.Stream, e.tracker.Schema(), []string{schema.DateField}); err != nil {
				return fatal(day, err)
			}
			schemas++
			e.count(ctx, e.metricSchemaWrites())
		}

		// The provider may answer with a different day's data (e.g. no
		// published rates); skip the record but still advance the cursor.
		if rec.Day() == day.Day() {
			if err := e.writer.WriteRecord(e.cfg.Stream, rec); err != nil {
				return fatal(day, err)
			}
			records++
			e.count(ctx, e.metricRecordsEmitted())
		} else {
			e.logger.Printf("run %s: provider returned %s for requested day %s; skipping record",
				e.runID, rec.Day(), day.Day())
		}

		cursor = day
		e.tracker.Commit()
		days++
		e.count(ctx, e.metricDaysReplicated())
		e.setCursor(cursor)
		e.addCounts(days, records, schemas)
	}

	// Checkpoints record replicated days only. A run that processed nothing
	// and loaded no prior checkpoint leaves the store untouched and emits no
	// state message; the next run resolves its start from config again.
	if !cursor.IsZero() {
		if err := e.store.Persist(ctx, cursor); err != nil {
			e.setState("failed")
			return Result{Code: CodeSyncError, Cursor: cursor, DaysProcessed: days, RecordsEmitted: records, SchemaWrites: schemas},
				errs.New("engine", errs.CodeFatal, errs.WithMessage("persist checkpoint"), errs.WithCause(err))
		}
		if err := e.writer.WriteState(cursor); err != nil {
			e.setState("failed")
			return Result{Code: CodeSyncError, Cursor: cursor, DaysProcessed: days, RecordsEmitted: records, SchemaWrites: schemas},
				errs.New("engine", errs.CodeFatal, errs.WithMessage("emit final state"), errs.WithCause(err))
		}
	}

	e.setState("done")
	e.addCounts(days, records, schemas)
	e.logger.Printf("run %s: exiting normally after %d day(s)", e.runID, days)
	return Result{
		Code:           CodeOK,
		Cursor:         cursor,
		DaysProcessed:  days,
		RecordsEmitted: records,
		SchemaWrites:   schemas,
	}, nil
}

// persistBestEffort saves the last-known-good cursor and emits a final state
// message on the fatal path; failures here are logged, not propagated, so the
// original fatal error surfaces.
func (e *Engine) persistBestEffort(cursor state.Cursor) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cursor.IsZero() {
		return
	}
	if err := e.store.Persist(ctx, cursor); err != nil {
		e.logger.Printf("run %s: persist checkpoint after failure: %v", e.runID, err)
	}
	if err := e.writer.WriteState(cursor); err != nil {
		e.logger.Printf("run %s: emit state after failure: %v", e.runID, err)
	}
}

func (e *Engine) count(ctx context.Context, counter func(context.Context)) {
	if counter != nil {
		counter(ctx)
	}
}

func (e *Engine) metricDaysReplicated() func(context.Context) {
	if e.metrics == nil || e.metrics.DaysReplicated == nil {
		return nil
	}
	return func(ctx context.Context) { e.metrics.DaysReplicated.Add(ctx, 1) }
}

func (e *Engine) metricRecordsEmitted() func(context.Context) {
	if e.metrics == nil || e.metrics.RecordsEmitted == nil {
		return nil
	}
	return func(ctx context.Context) { e.metrics.RecordsEmitted.Add(ctx, 1) }
}

func (e *Engine) metricSchemaWrites() func(context.Context) {
	if e.metrics == nil || e.metrics.SchemaWrites == nil {
		return nil
	}
	return func(ctx context.Context) { e.metrics.SchemaWrites.Add(ctx, 1) }
}

func (e *Engine) setState(value string) {
	e.mu.Lock()
	e.progress.State = value
	e.mu.Unlock()
}

func (e *Engine) setCursor(cursor state.Cursor) {
	e.mu.Lock()
	if !cursor.IsZero() {
		e.progress.Cursor = cursor.Day()
	}
	e.mu.Unlock()
}

func (e *Engine) setCurrentDay(day state.Cursor) {
	e.mu.Lock()
	e.progress.CurrentDay = day.Day()
	e.mu.Unlock()
}

func (e *Engine) addCounts(days, records, schemas int64) {
	e.mu.Lock()
	e.progress.DaysProcessed = days
	e.progress.RecordsEmitted = records
	e.progress.SchemaWrites = schemas
	e.mu.Unlock()
}
