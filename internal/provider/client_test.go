package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ratetap/ratetap/config"
	"github.com/ratetap/ratetap/errs"
)

func testSettings(endpoint string) config.ProviderSettings {
	return config.ProviderSettings{
		Endpoint:    endpoint,
		APIKey:      "test-key",
		HTTPTimeout: 5 * time.Second,
		Retry: config.RetrySettings{
			MaxAttempts:    5,
			Interval:       time.Millisecond,
			JitterFraction: 0.5,
		},
	}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	require.NoError(t, err)
	return parsed
}

func TestFetchDecodesPayloadAndSendsCredentials(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("apikey")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-01-01","rates":{"USD":1.10,"JPY":160.555}}`))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL), "EUR", nil)
	payload, err := client.Fetch(context.Background(), day(t, "2024-01-01"))
	require.NoError(t, err)

	require.Equal(t, "/2024-01-01", gotPath)
	require.Equal(t, "base=EUR", gotQuery)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "EUR", payload.Base)
	require.Equal(t, "2024-01-01", payload.Date)
	require.Equal(t, 160.555, payload.Rates["JPY"])
}

func TestFetchRetriesServerErrorsExactlyFiveTimes(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL), "EUR", nil)
	_, err := client.Fetch(context.Background(), day(t, "2024-01-01"))

	require.Error(t, err)
	require.True(t, errs.IsTransient(err))
	require.Equal(t, int32(5), attempts.Load())
}

func TestFetchRetriesRateLimitResponses(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2024-01-01","rates":{"USD":1.1}}`))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL), "EUR", nil)
	payload, err := client.Fetch(context.Background(), day(t, "2024-01-01"))

	require.NoError(t, err)
	require.Equal(t, int32(3), attempts.Load())
	require.Equal(t, "EUR", payload.Base)
}

func TestFetchNeverRetriesClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL), "EUR", nil)
	_, err := client.Fetch(context.Background(), day(t, "2024-01-01"))

	require.Error(t, err)
	require.True(t, errs.IsPermanent(err))
	require.Equal(t, int32(1), attempts.Load())
}

func TestFetchRetriesConnectionFaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	settings := testSettings(server.URL)
	settings.Retry.MaxAttempts = 2
	client := NewClient(settings, "EUR", nil)

	var notified atomic.Int32
	client.SetNotify(func(error, time.Duration) { notified.Add(1) })

	_, err := client.Fetch(context.Background(), day(t, "2024-01-01"))
	require.Error(t, err)
	require.True(t, errs.IsTransient(err))
	require.Equal(t, int32(1), notified.Load())
}

func TestFetchSurfacesMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"base":`))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL), "EUR", nil)
	_, err := client.Fetch(context.Background(), day(t, "2024-01-01"))
	require.Error(t, err)
	require.False(t, errs.IsTransient(err))
}
