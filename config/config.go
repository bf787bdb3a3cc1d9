// Package config centralises runtime configuration helpers for ratetap.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment identifies the runtime environment where ratetap operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

const (
	// DefaultEndpoint is the apilayer fixer historical-rates base URL.
	DefaultEndpoint = "https://api.apilayer.com/fixer"
	// DefaultHTTPTimeout bounds a single provider request.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultRetryInterval is the constant wait between retry attempts.
	DefaultRetryInterval = 30 * time.Second
	// DefaultMaxAttempts is the total number of tries for a transient failure.
	DefaultMaxAttempts = 5
	// DefaultJitterFraction randomises each retry wait by +/- this fraction.
	DefaultJitterFraction = 0.5
)

// RetrySettings tunes the provider client's backoff policy.
type RetrySettings struct {
	MaxAttempts    int
	Interval       time.Duration
	JitterFraction float64
}

// ProviderSettings aggregates transport and credential configuration for the
// rate provider.
type ProviderSettings struct {
	Endpoint    string
	APIKey      string
	HTTPTimeout time.Duration
	Retry       RetrySettings
}

// Settings contains the ratetap configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment Environment
	Provider    ProviderSettings
}

// Default returns the default ratetap configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Provider: ProviderSettings{
			Endpoint:    DefaultEndpoint,
			APIKey:      "",
			HTTPTimeout: DefaultHTTPTimeout,
			Retry: RetrySettings{
				MaxAttempts:    DefaultMaxAttempts,
				Interval:       DefaultRetryInterval,
				JitterFraction: DefaultJitterFraction,
			},
		},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if env := strings.TrimSpace(os.Getenv("RATETAP_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("FIXER_BASE_URL")); v != "" {
		cfg.Provider.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("FIXER_API_KEY")); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("RATETAP_HTTP_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Provider.HTTPTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("RATETAP_RETRY_INTERVAL")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Provider.Retry.Interval = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("RATETAP_RETRY_MAX_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Provider.Retry.MaxAttempts = n
		}
	}
	return cfg
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies the provided Option set to a copy of the base Settings.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEnvironment configures the top-level environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		if env != "" {
			s.Environment = env
		}
	}
}

// WithEndpoint overrides the provider's historical-rates base URL.
func WithEndpoint(endpoint string) Option {
	endpoint = strings.TrimSpace(endpoint)
	return func(s *Settings) {
		if endpoint != "" {
			s.Provider.Endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithAPIKey overrides the provider API key.
func WithAPIKey(key string) Option {
	key = strings.TrimSpace(key)
	return func(s *Settings) {
		if key != "" {
			s.Provider.APIKey = key
		}
	}
}

// WithHTTPTimeout overrides the per-request HTTP timeout.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(s *Settings) {
		if timeout > 0 {
			s.Provider.HTTPTimeout = timeout
		}
	}
}

// WithRetry overrides the retry policy tuning.
func WithRetry(retry RetrySettings) Option {
	return func(s *Settings) {
		if retry.MaxAttempts > 0 {
			s.Provider.Retry.MaxAttempts = retry.MaxAttempts
		}
		if retry.Interval > 0 {
			s.Provider.Retry.Interval = retry.Interval
		}
		if retry.JitterFraction > 0 {
			s.Provider.Retry.JitterFraction = retry.JitterFraction
		}
	}
}
