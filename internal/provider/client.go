package provider

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"

	"github.com/ratetap/ratetap/config"
	"github.com/ratetap/ratetap/errs"
)

const providerName = "fixer"

// Notify observes each retry wait; used to surface retry telemetry.
type Notify func(err error, next time.Duration)

// Client issues one historical-rates request per calendar day with bounded
// retry on transient failures. It is stateless and mutates neither schema nor
// cursor state.
type Client struct {
	endpoint string
	base     string
	apiKey   string
	retry    config.RetrySettings
	http     *http.Client
	logger   *log.Logger
	notify   Notify
}

// NewClient constructs a provider client for the given base currency.
func NewClient(settings config.ProviderSettings, base string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		endpoint: strings.TrimRight(settings.Endpoint, "/"),
		base:     strings.TrimSpace(base),
		apiKey:   settings.APIKey,
		retry:    settings.Retry,
		http:     &http.Client{Timeout: settings.HTTPTimeout},
		logger:   logger,
		notify:   nil,
	}
}

// SetNotify registers a callback invoked before each retry wait.
func (c *Client) SetNotify(notify Notify) {
	c.notify = notify
}

// Fetch retrieves the raw payload for the given calendar day. Transient
// failures (429, 5xx, connection faults) are retried with a constant interval
// plus random jitter up to the configured attempt budget; any other non-200
// status fails immediately.
func (c *Client) Fetch(ctx context.Context, day time.Time) (RawPayload, error) {
	operation := func() (RawPayload, error) {
		return c.fetchOnce(ctx, day)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.Interval
	policy.MaxInterval = c.retry.Interval
	policy.Multiplier = 1.0
	policy.RandomizationFactor = c.retry.JitterFraction

	payload, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.retry.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Printf("provider %s: transient failure, retrying in %s: %v", providerName, next, err)
			if c.notify != nil {
				c.notify(err, next)
			}
		}),
	)
	if err != nil {
		return RawPayload{}, err
	}
	return payload, nil
}

func (c *Client) fetchOnce(ctx context.Context, day time.Time) (RawPayload, error) {
	endpoint := fmt.Sprintf("%s/%s?base=%s", c.endpoint, day.UTC().Format(time.DateOnly), c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawPayload{}, backoff.Permanent(errs.New(providerName, errs.CodePermanent,
			errs.WithMessage("create request"), errs.WithCause(err)))
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection-level faults are transient.
		return RawPayload{}, errs.New(providerName, errs.CodeTransient,
			errs.WithMessage("request historical rates"), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		failure := errs.New(providerName, errs.Classify(resp.StatusCode),
			errs.WithHTTP(resp.StatusCode),
			errs.WithMessage(strings.TrimSpace(string(body))))
		if !errs.Retryable(resp.StatusCode) {
			return RawPayload{}, backoff.Permanent(failure)
		}
		return RawPayload{}, failure
	}

	var payload RawPayload
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(&payload); err != nil {
		return RawPayload{}, backoff.Permanent(errs.New(providerName, errs.CodeInvalid,
			errs.WithMessage("decode historical rates"), errs.WithCause(err)))
	}
	return payload, nil
}
