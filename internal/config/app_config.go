// Package config manages application configuration loading and validation.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	rootcfg "github.com/ratetap/ratetap/config"
)

// Environment names the deployment tier.
type Environment string

const (
	EnvDev     Environment = "dev"
	EnvStaging Environment = "staging"
	EnvProd    Environment = "prod"
)

// RetryConfig tunes the provider retry policy. Interval is a Go duration
// string.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"maxAttempts" json:"max_attempts"`
	Interval       string  `yaml:"interval" json:"interval"`
	JitterFraction float64 `yaml:"jitterFraction" json:"jitter_fraction"`
}

// ProviderConfig configures the upstream historical-rates API.
type ProviderConfig struct {
	Endpoint    string      `yaml:"endpoint" json:"endpoint"`
	APIKey      string      `yaml:"apiKey" json:"api_key"`
	Base        string      `yaml:"base" json:"base"`
	StartDate   string      `yaml:"startDate" json:"start_date"`
	HTTPTimeout string      `yaml:"httpTimeout" json:"http_timeout"`
	Retry       RetryConfig `yaml:"retry" json:"retry"`
}

// StreamConfig names the emitted stream and where its checkpoint lives.
type StreamConfig struct {
	Name      string `yaml:"name" json:"name"`
	StatePath string `yaml:"statePath" json:"state_path"`
}

// WarehouseConfig points at the optional Postgres sink. An empty DSN
// disables it.
type WarehouseConfig struct {
	DSN            string `yaml:"dsn" json:"dsn"`
	MigrateOnStart bool   `yaml:"migrateOnStart" json:"migrate_on_start"`
}

// APIServerConfig configures the status HTTP listener. An empty addr
// disables it.
type APIServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// TelemetryConfig configures OTLP exporters (metrics only).
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint" json:"otlp_endpoint"`
	ServiceName  string `yaml:"serviceName" json:"service_name"`
}

// AppConfig is the unified ratetap application configuration sourced from a
// YAML or JSON file.
type AppConfig struct {
	Environment Environment     `yaml:"environment" json:"environment"`
	Provider    ProviderConfig  `yaml:"provider" json:"provider"`
	Stream      StreamConfig    `yaml:"stream" json:"stream"`
	Warehouse   WarehouseConfig `yaml:"warehouse" json:"warehouse"`
	APIServer   APIServerConfig `yaml:"apiServer" json:"api_server"`
	Telemetry   TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// Load reads and validates an AppConfig from the provided file. Files ending
// in .json are decoded as JSON, anything else as YAML.
func Load(ctx context.Context, configPath string) (AppConfig, error) {
	_ = ctx

	reader, closer, err := openConfigFile(configPath)
	if err != nil {
		return AppConfig{}, err
	}
	defer closer()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if strings.EqualFold(filepath.Ext(configPath), ".json") {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
		}
	} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// LoadOrDefault loads the file at configPath when it exists. A missing file
// yields defaults; the boolean reports whether a file was read.
func LoadOrDefault(ctx context.Context, configPath string) (AppConfig, bool, error) {
	if strings.TrimSpace(configPath) == "" {
		return Default(), false, nil
	}
	cfg, err := Load(ctx, configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return AppConfig{}, false, err
	}
	return cfg, true, nil
}

// Default returns the configuration used when no file is given: every value
// comes from built-in defaults plus process environment overrides.
func Default() AppConfig {
	cfg := AppConfig{}
	cfg.normalise()
	return cfg
}

func (c *AppConfig) normalise() {
	c.Environment = Environment(strings.ToLower(strings.TrimSpace(string(c.Environment))))
	if c.Environment == "" {
		c.Environment = EnvDev
	}

	c.Provider.Endpoint = strings.TrimSpace(c.Provider.Endpoint)
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	c.Provider.Base = strings.ToUpper(strings.TrimSpace(c.Provider.Base))
	c.Provider.StartDate = strings.TrimSpace(c.Provider.StartDate)
	c.Provider.HTTPTimeout = strings.TrimSpace(c.Provider.HTTPTimeout)
	c.Provider.Retry.Interval = strings.TrimSpace(c.Provider.Retry.Interval)

	c.Stream.Name = strings.TrimSpace(c.Stream.Name)
	if c.Stream.Name == "" {
		c.Stream.Name = "exchange_rate"
	}
	c.Stream.StatePath = strings.TrimSpace(c.Stream.StatePath)

	c.Warehouse.DSN = strings.TrimSpace(c.Warehouse.DSN)
	c.APIServer.Addr = strings.TrimSpace(c.APIServer.Addr)
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "ratetap"
	}
}

// Validate performs semantic validation on the configuration.
func (c AppConfig) Validate() error {
	switch c.Environment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return fmt.Errorf("environment must be one of dev, staging, prod")
	}

	if c.Provider.Base != "" && len(c.Provider.Base) != 3 {
		return fmt.Errorf("provider base must be a three-letter currency code")
	}
	if c.Provider.StartDate != "" {
		if _, err := time.ParseInLocation(time.DateOnly, c.Provider.StartDate, time.UTC); err != nil {
			return fmt.Errorf("provider startDate must be YYYY-MM-DD: %w", err)
		}
	}
	if c.Provider.HTTPTimeout != "" {
		if _, err := time.ParseDuration(c.Provider.HTTPTimeout); err != nil {
			return fmt.Errorf("provider httpTimeout: %w", err)
		}
	}
	if c.Provider.Retry.MaxAttempts < 0 {
		return fmt.Errorf("provider retry maxAttempts must be >= 0")
	}
	if c.Provider.Retry.Interval != "" {
		if _, err := time.ParseDuration(c.Provider.Retry.Interval); err != nil {
			return fmt.Errorf("provider retry interval: %w", err)
		}
	}
	if c.Provider.Retry.JitterFraction < 0 || c.Provider.Retry.JitterFraction > 1 {
		return fmt.Errorf("provider retry jitterFraction must be within [0, 1]")
	}

	if c.Warehouse.MigrateOnStart && c.Warehouse.DSN == "" {
		return fmt.Errorf("warehouse migrateOnStart requires a dsn")
	}

	return nil
}

// ProviderSettings folds the file values over built-in defaults and process
// environment overrides, in ascending precedence: defaults, environment,
// file.
func (c AppConfig) ProviderSettings() (rootcfg.Settings, error) {
	settings := rootcfg.FromEnv()

	opts := []rootcfg.Option{
		rootcfg.WithEnvironment(rootcfg.Environment(c.Environment)),
		rootcfg.WithEndpoint(c.Provider.Endpoint),
		rootcfg.WithAPIKey(c.Provider.APIKey),
	}
	if c.Provider.HTTPTimeout != "" {
		timeout, err := time.ParseDuration(c.Provider.HTTPTimeout)
		if err != nil {
			return rootcfg.Settings{}, fmt.Errorf("provider httpTimeout: %w", err)
		}
		opts = append(opts, rootcfg.WithHTTPTimeout(timeout))
	}

	retry := rootcfg.RetrySettings{
		MaxAttempts:    c.Provider.Retry.MaxAttempts,
		JitterFraction: c.Provider.Retry.JitterFraction,
	}
	if c.Provider.Retry.Interval != "" {
		interval, err := time.ParseDuration(c.Provider.Retry.Interval)
		if err != nil {
			return rootcfg.Settings{}, fmt.Errorf("provider retry interval: %w", err)
		}
		retry.Interval = interval
	}
	opts = append(opts, rootcfg.WithRetry(retry))

	return rootcfg.Apply(settings, opts...), nil
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := strings.TrimSpace(path)
	candidate = filepath.Clean(candidate)

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
