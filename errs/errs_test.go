package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesStatusAndCause(t *testing.T) {
	err := New(
		"fixer",
		CodeTransient,
		WithHTTP(503),
		WithMessage("historical rates unavailable"),
		WithRemediation("retry after backoff"),
		WithCause(errors.New("fixer http 503")),
	)

	out := err.Error()
	if !strings.Contains(out, "provider=fixer") {
		t.Fatalf("expected provider marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=transient") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "http=503") {
		t.Fatalf("expected http status in error string: %s", out)
	}
	if !strings.Contains(out, "remediation=\"retry after backoff\"") {
		t.Fatalf("expected remediation guidance in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"fixer http 503\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestRetryableCoversRateLimitAndServerErrors(t *testing.T) {
	cases := map[int]bool{
		429: true,
		500: true,
		502: true,
		503: true,
		400: false,
		401: false,
		403: false,
		404: false,
		418: false,
	}
	for status, want := range cases {
		if got := Retryable(status); got != want {
			t.Fatalf("Retryable(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestClassifySplitsTransientAndPermanent(t *testing.T) {
	if Classify(429) != CodeTransient || Classify(500) != CodeTransient {
		t.Fatalf("expected 429/5xx to classify as transient")
	}
	if Classify(404) != CodePermanent || Classify(401) != CodePermanent {
		t.Fatalf("expected other statuses to classify as permanent")
	}
}

func TestCodePredicatesUnwrap(t *testing.T) {
	inner := New("fixer", CodeTransient, WithHTTP(503))
	wrapped := fmt.Errorf("fetch 2024-01-01: %w", inner)
	if !IsTransient(wrapped) {
		t.Fatalf("expected transient code through wrapping")
	}
	if IsPermanent(wrapped) || IsConfig(wrapped) {
		t.Fatalf("unexpected code match for wrapped transient error")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := New("fixer", CodeTransient, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach cause")
	}
}
