// Package errs provides structured error types and helpers for ratetap.
package errs

import (
	"net/http"
	"strconv"
	"strings"
)

// Code identifies a sync error category.
type Code string

const (
	// CodeConfig indicates invalid or missing configuration (e.g. no API key).
	CodeConfig Code = "config"
	// CodeTransient indicates a retryable provider failure (429, 5xx, network fault).
	CodeTransient Code = "transient"
	// CodePermanent indicates a non-retryable provider failure (any other non-200).
	CodePermanent Code = "permanent"
	// CodeFatal indicates a run-level failure that terminates the sync.
	CodeFatal Code = "fatal"
	// CodeInvalid indicates malformed input supplied by the caller or provider.
	CodeInvalid Code = "invalid"
)

// E captures structured error information produced across the ratetap stack.
type E struct {
	Provider    string
	Code        Code
	HTTP        int
	Message     string
	Remediation string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the provider and error code.
func New(provider string, code Code, opts ...Option) *E {
	e := &E{
		Provider:    strings.TrimSpace(provider),
		Code:        code,
		HTTP:        0,
		Message:     "",
		Remediation: "",
		cause:       nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithRemediation attaches remediation guidance to the error.
func WithRemediation(remediation string) Option {
	trimmed := strings.TrimSpace(remediation)
	return func(e *E) {
		e.Remediation = trimmed
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	provider := strings.TrimSpace(e.Provider)
	if provider == "" {
		provider = "unknown"
	}
	parts = append(parts, "provider="+provider)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.Remediation != "" {
		parts = append(parts, "remediation="+strconv.Quote(e.Remediation))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// Retryable reports whether the HTTP status warrants a retry. Only 429 and
// server errors qualify; every other non-200 status gives up immediately.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Classify maps a non-200 HTTP status to an error code using the retry predicate.
func Classify(status int) Code {
	if Retryable(status) {
		return CodeTransient
	}
	return CodePermanent
}

// IsConfig reports whether err carries the configuration error code.
func IsConfig(err error) bool { return hasCode(err, CodeConfig) }

// IsTransient reports whether err carries the transient error code.
func IsTransient(err error) bool { return hasCode(err, CodeTransient) }

// IsPermanent reports whether err carries the permanent error code.
func IsPermanent(err error) bool { return hasCode(err, CodePermanent) }

func hasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*E); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
