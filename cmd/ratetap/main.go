// Command ratetap replicates daily exchange rates from the provider API into
// a schema-tagged record stream, resuming from the stored checkpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sourcegraph/conc"

	"github.com/ratetap/ratetap/internal/config"
	"github.com/ratetap/ratetap/internal/emit"
	"github.com/ratetap/ratetap/internal/engine"
	"github.com/ratetap/ratetap/internal/persistence/migrations"
	"github.com/ratetap/ratetap/internal/provider"
	httpserver "github.com/ratetap/ratetap/internal/server/http"
	"github.com/ratetap/ratetap/internal/sink"
	"github.com/ratetap/ratetap/internal/state"
	"github.com/ratetap/ratetap/lib/telemetry"
)

const (
	defaultConfigPath = "config/app.yaml"
	defaultStatePath  = "state.json"
	loggerPrefix      = "ratetap "

	statusShutdownTimeout    = 5 * time.Second
	lifecycleShutdownTimeout = 10 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	statusReadHeaderTimeout  = 5 * time.Second
)

// Exit statuses: 0 replicated every pending day, 1 configuration error,
// 2 sync halted partway.
func main() {
	os.Exit(run())
}

func run() int {
	cfgPath, statePath := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newLogger()

	appCfg, loadedFromFile, err := config.LoadOrDefault(ctx, cfgPath)
	if err != nil {
		logger.Printf("load config: %v", err)
		return int(engine.CodeConfigError)
	}
	if !loadedFromFile {
		logger.Printf("configuration file not found, using defaults")
	}
	logger.Printf("configuration initialised: env=%s, stream=%s", appCfg.Environment, appCfg.Stream.Name)

	settings, err := appCfg.ProviderSettings()
	if err != nil {
		logger.Printf("resolve provider settings: %v", err)
		return int(engine.CodeConfigError)
	}

	meterProvider, telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		OTLPEndpoint: appCfg.Telemetry.OTLPEndpoint,
		ServiceName:  appCfg.Telemetry.ServiceName,
		Environment:  string(appCfg.Environment),
	})
	if err != nil {
		logger.Printf("initialize telemetry: %v", err)
		return int(engine.CodeConfigError)
	}
	defer shutdownStep(logger, "telemetry", telemetryShutdownTimeout, telemetryShutdown)

	metrics, err := telemetry.NewMetrics(meterProvider)
	if err != nil {
		logger.Printf("register metrics: %v", err)
		return int(engine.CodeConfigError)
	}

	pool, err := openWarehouse(ctx, appCfg, logger)
	if err != nil {
		logger.Printf("warehouse: %v", err)
		return int(engine.CodeConfigError)
	}
	if pool != nil {
		defer pool.Close()
	}

	store := buildStateStore(appCfg, pool, statePath)
	writer := buildWriter(pool)

	base := appCfg.Provider.Base
	if base == "" {
		base = "USD"
	}
	client := provider.NewClient(settings.Provider, base, logger)
	if metrics.RetryWaits != nil {
		client.SetNotify(func(err error, next time.Duration) {
			metrics.RetryWaits.Add(context.Background(), 1)
			logger.Printf("provider retry in %s: %v", next.Round(time.Millisecond), err)
		})
	}

	eng := engine.New(engine.Config{
		Stream:    appCfg.Stream.Name,
		Base:      base,
		StartDate: appCfg.Provider.StartDate,
		APIKey:    settings.Provider.APIKey,
	}, client, writer, store, engine.Options{Logger: logger, Metrics: metrics})

	var lifecycle conc.WaitGroup
	statusServer := startStatusServer(&lifecycle, logger, appCfg.APIServer.Addr, eng)

	result, runErr := eng.Run(ctx)
	if runErr != nil {
		logger.Printf("sync finished with error: %v", runErr)
	} else {
		logger.Printf("sync finished: days=%d records=%d schemas=%d cursor=%s",
			result.DaysProcessed, result.RecordsEmitted, result.SchemaWrites, result.Cursor.Day())
	}

	if statusServer != nil {
		shutdownStep(logger, "status server", statusShutdownTimeout, statusServer.Shutdown)
	}
	cancel()
	waitLifecycle(logger, &lifecycle)

	return int(result.Code)
}

func parseFlags() (string, string) {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to application configuration file (default: %s)", defaultConfigPath))
	statePath := flag.String("state", "", fmt.Sprintf("Path to the checkpoint file (default: %s)", defaultStatePath))
	flag.Parse()
	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = defaultConfigPath
	}
	return path, strings.TrimSpace(*statePath)
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, loggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

// openWarehouse connects the optional Postgres sink, applying migrations
// first when configured. A blank DSN yields a nil pool.
func openWarehouse(ctx context.Context, appCfg config.AppConfig, logger *log.Logger) (*pgxpool.Pool, error) {
	dsn := appCfg.Warehouse.DSN
	if dsn == "" {
		return nil, nil
	}
	if appCfg.Warehouse.MigrateOnStart {
		// Empty path selects the migrations embedded in the binary.
		if err := migrations.Apply(ctx, dsn, "", logger); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	logger.Printf("warehouse connected")
	return pool, nil
}

func buildStateStore(appCfg config.AppConfig, pool *pgxpool.Pool, statePathFlag string) state.Store {
	if pool != nil {
		return state.NewPostgresStore(pool, appCfg.Stream.Name)
	}
	path := statePathFlag
	if path == "" {
		path = appCfg.Stream.StatePath
	}
	if path == "" {
		path = defaultStatePath
	}
	return state.NewFileStore(path)
}

func buildWriter(pool *pgxpool.Pool) emit.Writer {
	stdout := emit.NewStreamWriter(os.Stdout)
	if pool == nil {
		return stdout
	}
	return emit.NewMultiWriter(stdout, sink.NewPostgresWriter(pool))
}

func startStatusServer(lifecycle *conc.WaitGroup, logger *log.Logger, addr string, source httpserver.ProgressSource) *http.Server {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           httpserver.NewHandler(source),
		ReadHeaderTimeout: statusReadHeaderTimeout,
	}
	lifecycle.Go(func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("status server: %v", err)
		}
	})
	logger.Printf("status API listening on %s", addr)
	return server
}

func shutdownStep(logger *log.Logger, name string, timeout time.Duration, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Printf("shutdown: %s failed: %v", name, err)
	}
}

func waitLifecycle(logger *log.Logger, lifecycle *conc.WaitGroup) {
	done := make(chan struct{})
	go func() {
		lifecycle.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(lifecycleShutdownTimeout):
		logger.Printf("shutdown: timeout waiting for goroutines")
	}
}
