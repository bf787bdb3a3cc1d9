// Package provider implements the HTTP client for the historical-rates API,
// including the retry/backoff policy for transient failures.
package provider

// RawPayload is one day's decoded provider response, returned unmodified on
// HTTP 200.
type RawPayload struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}
