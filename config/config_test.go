package config

import (
	"testing"
	"time"
)

func TestDefaultConfigProvidesProviderSettings(t *testing.T) {
	cfg := Default()
	if cfg.Environment != EnvProd {
		t.Fatalf("expected default environment prod, got %s", cfg.Environment)
	}
	if cfg.Provider.Endpoint != DefaultEndpoint {
		t.Fatalf("expected default endpoint, got %s", cfg.Provider.Endpoint)
	}
	if cfg.Provider.Retry.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("expected %d retry attempts, got %d", DefaultMaxAttempts, cfg.Provider.Retry.MaxAttempts)
	}
	if cfg.Provider.Retry.Interval != DefaultRetryInterval {
		t.Fatalf("expected %s retry interval, got %s", DefaultRetryInterval, cfg.Provider.Retry.Interval)
	}
}

func TestFromEnvOverridesValues(t *testing.T) {
	t.Setenv("RATETAP_ENV", "STAGING")
	t.Setenv("FIXER_BASE_URL", "https://fixer.test")
	t.Setenv("FIXER_API_KEY", "key")
	t.Setenv("RATETAP_HTTP_TIMEOUT", "15s")
	t.Setenv("RATETAP_RETRY_INTERVAL", "2s")
	t.Setenv("RATETAP_RETRY_MAX_ATTEMPTS", "3")

	cfg := FromEnv()
	if cfg.Environment != EnvStaging {
		t.Fatalf("expected staging environment, got %s", cfg.Environment)
	}
	if cfg.Provider.Endpoint != "https://fixer.test" {
		t.Fatalf("expected env override endpoint, got %s", cfg.Provider.Endpoint)
	}
	if cfg.Provider.APIKey != "key" {
		t.Fatalf("expected api key override")
	}
	if cfg.Provider.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.Provider.HTTPTimeout)
	}
	if cfg.Provider.Retry.Interval != 2*time.Second || cfg.Provider.Retry.MaxAttempts != 3 {
		t.Fatalf("expected retry overrides, got %+v", cfg.Provider.Retry)
	}
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("RATETAP_HTTP_TIMEOUT", "soon")
	t.Setenv("RATETAP_RETRY_MAX_ATTEMPTS", "-2")

	cfg := FromEnv()
	if cfg.Provider.HTTPTimeout != DefaultHTTPTimeout {
		t.Fatalf("invalid timeout should keep default, got %s", cfg.Provider.HTTPTimeout)
	}
	if cfg.Provider.Retry.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("invalid attempts should keep default, got %d", cfg.Provider.Retry.MaxAttempts)
	}
}

func TestApplyOptionsCopyAndMutate(t *testing.T) {
	base := Default()

	applied := Apply(base,
		WithEnvironment(EnvDev),
		WithEndpoint("https://override/"),
		WithAPIKey(" secret "),
		WithHTTPTimeout(25*time.Second),
		WithRetry(RetrySettings{MaxAttempts: 2, Interval: time.Second, JitterFraction: 0.1}),
	)

	if applied.Environment != EnvDev {
		t.Fatalf("expected dev environment, got %s", applied.Environment)
	}
	if applied.Provider.Endpoint != "https://override" {
		t.Fatalf("expected trailing slash trimmed, got %s", applied.Provider.Endpoint)
	}
	if applied.Provider.APIKey != "secret" {
		t.Fatalf("expected trimmed api key, got %q", applied.Provider.APIKey)
	}
	if applied.Provider.Retry.MaxAttempts != 2 || applied.Provider.Retry.Interval != time.Second {
		t.Fatalf("expected retry override, got %+v", applied.Provider.Retry)
	}

	if base.Provider.Endpoint != DefaultEndpoint || base.Provider.APIKey != "" {
		t.Fatalf("expected base settings untouched after Apply")
	}
}

func TestNilAndEmptyOptionsAreNoOps(t *testing.T) {
	base := Default()
	applied := Apply(base, nil, WithEndpoint("   "), WithAPIKey(""), WithHTTPTimeout(0))
	if applied != base {
		t.Fatalf("expected settings unchanged, got %+v", applied)
	}
}
